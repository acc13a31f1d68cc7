package language

// Profile selects the transcription provider's language code and feature
// flags for an episode. The provider's Hebrew model supports none of the
// diarization/analysis features, so detecting Hebrew turns them all off.
type Profile struct {
	Code              string
	SpeakerLabels     bool
	SentimentAnalysis bool
	EntityDetection   bool
}

// Detect classifies an episode title by script. Any character in the Hebrew
// Unicode block selects the Hebrew profile.
func Detect(title string) Profile {
	for _, r := range title {
		if r >= 0x0590 && r <= 0x05FF {
			return Profile{Code: "he"}
		}
	}
	return Profile{
		SpeakerLabels:     true,
		SentimentAnalysis: true,
		EntityDetection:   true,
	}
}
