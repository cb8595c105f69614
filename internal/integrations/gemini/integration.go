package gemini

import (
	"context"
	"errors"

	"alphavault-backend/internal/integrations"
	integration_models "alphavault-backend/internal/models/integrations"
)

// Ensure Integration implements the registry interface.
var _ integrations.Integration = (*Integration)(nil)

// Integration adapts the Gemini client to the integration registry so
// the credentials service can test keys uniformly.
type Integration struct {
	client *Client
}

// NewIntegration wraps an existing client.
func NewIntegration(client *Client) *Integration {
	return &Integration{client: client}
}

// TestConnection verifies the API key with a minimal prompt. Classified
// API failures are reported in the result; only unexpected system
// failures surface as an error.
func (g *Integration) TestConnection(ctx context.Context, decryptedCreds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error) {
	apiKey, ok := decryptedCreds["api_key"]
	if !ok || apiKey == "" {
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: "Missing or empty 'api_key' in credentials",
		}, nil
	}

	err := g.client.ValidateKey(ctx, apiKey)
	if err != nil {
		var classified *integrations.ClassifiedError
		if errors.As(err, &classified) {
			return &integration_models.TestConnectionResult{
				Success: false,
				Message: classified.Message,
			}, nil
		}
		return nil, err
	}

	return &integration_models.TestConnectionResult{
		Success: true,
		Message: "Connection Successful",
		Details: map[string]interface{}{"model": g.client.Model()},
	}, nil
}

// GetCredentialSchema returns an empty GeminiCredentials struct to define
// the expected credential keys.
func (g *Integration) GetCredentialSchema() interface{} {
	return integration_models.GeminiCredentials{}
}
