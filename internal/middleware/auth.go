package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"podlearn/internal/db"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the session bearer token and upserts the user.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Authorization header format must be 'Bearer <token>'", http.StatusUnauthorized)
			return
		}

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Println("JWT_SECRET is not set")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("Invalid session token: %v", err)
			http.Error(w, "Invalid session token", http.StatusUnauthorized)
			return
		}
		if claims.Subject == "" {
			http.Error(w, "Invalid session token", http.StatusUnauthorized)
			return
		}

		user, err := db.UpsertUser(claims.Subject, claims.Email)
		if err != nil {
			http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
