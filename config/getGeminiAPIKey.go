package config

// GetGeminiAPIKey returns the Gemini API key, or an empty string when the
// suggested-fix service should stay disabled.
func GetGeminiAPIKey() string {
	return GetEnv("GEMINI_API_KEY")
}
