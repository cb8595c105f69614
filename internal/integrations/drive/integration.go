package drive

import (
	"context"
	"errors"

	"alphavault-backend/internal/integrations"
	integration_models "alphavault-backend/internal/models/integrations"
)

// Ensure Integration implements the registry interface.
var _ integrations.Integration = (*Integration)(nil)

// Integration adapts the Drive client to the integration registry.
type Integration struct {
	client *Client
}

// NewIntegration wraps an existing client.
func NewIntegration(client *Client) *Integration {
	return &Integration{client: client}
}

// TestConnection runs the bounded readiness probe with the supplied
// access token.
func (d *Integration) TestConnection(ctx context.Context, decryptedCreds integration_models.DecryptedCredentials) (*integration_models.TestConnectionResult, error) {
	token, ok := decryptedCreds["access_token"]
	if !ok || token == "" {
		return &integration_models.TestConnectionResult{
			Success: false,
			Message: "Missing or empty 'access_token' in credentials",
		}, nil
	}

	if err := d.client.EnsureReady(ctx, token); err != nil {
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
		Message: "Successfully connected to Google Drive",
	}, nil
}

// GetCredentialSchema returns an empty DriveCredentials struct to define
// the expected credential keys.
func (d *Integration) GetCredentialSchema() interface{} {
	return integration_models.DriveCredentials{}
}
