package tts

// SupportedVoices is the fixed set of voice identifiers the speech model
// accepts. Requests naming anything else are rejected before any external
// call.
var SupportedVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// DefaultVoice is used when a caller does not pick one.
const DefaultVoice = "alloy"

// IsSupportedVoice reports whether id names a supported voice.
func IsSupportedVoice(id string) bool {
	for _, v := range SupportedVoices {
		if v == id {
			return true
		}
	}
	return false
}
