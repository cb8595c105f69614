package integrations

// Defines the expected structure for Gemini API credentials (stored encrypted).
type GeminiCredentials struct {
	APIKey string `json:"api_key"`
}

// Defines the expected structure for a Drive access credential. The OAuth
// popup runs client-side; the backend only ever sees the resulting token.
type DriveCredentials struct {
	AccessToken string `json:"access_token"`
}

// Represents the standard structure for testing an integration's connection.
type TestConnectionResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"` // error details or success confirmation
	Details map[string]interface{} `json:"details,omitempty"` // extra details (e.g. {"model": "..."})
}

// Helper type for decrypted credentials map
type DecryptedCredentials map[string]string
