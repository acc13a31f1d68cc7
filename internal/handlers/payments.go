package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"podlearn/internal/db"
)

// creditsPerPack is how many transcription credits one purchased pack grants.
const creditsPerPack = 10

type paymentEvent struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status         string `json:"status"`
			FirstOrderItem struct {
				Quantity int `json:"quantity"`
			} `json:"first_order_item"`
		} `json:"attributes"`
	} `json:"data"`
}

// LemonSqueezyWebhook verifies the payment provider's HMAC signature and
// applies credit/subscription changes. No retries, no ordering: each event is
// a single upsert.
func (h *Handlers) LemonSqueezyWebhook(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("LEMONSQUEEZY_WEBHOOK_SECRET")
	if secret == "" {
		log.Println("LEMONSQUEEZY_WEBHOOK_SECRET is not set")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(r.Header.Get("X-Signature"))) {
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	userID, err := strconv.ParseInt(event.Meta.CustomData.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing or invalid user_id in custom data")
		return
	}

	switch event.Meta.EventName {
	case "order_created":
		quantity := event.Data.Attributes.FirstOrderItem.Quantity
		if quantity < 1 {
			quantity = 1
		}
		if err := db.AddCredits(userID, quantity*creditsPerPack); err != nil {
			log.Printf("Error adding credits for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Could not apply order")
			return
		}
	case "subscription_created", "subscription_updated", "subscription_resumed":
		active := event.Data.Attributes.Status == "active" || event.Data.Attributes.Status == "on_trial"
		if err := db.SetSubscription(userID, event.Data.ID, active); err != nil {
			log.Printf("Error updating subscription for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Could not apply subscription update")
			return
		}
	case "subscription_cancelled", "subscription_expired":
		if err := db.SetSubscription(userID, event.Data.ID, false); err != nil {
			log.Printf("Error deactivating subscription for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Could not apply subscription update")
			return
		}
	default:
		// Unhandled events are acknowledged so the provider stops resending.
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
