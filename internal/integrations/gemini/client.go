package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"alphavault-backend/internal/integrations"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the generateContent REST endpoint. It holds no
// credential: the API key is supplied per call so a runtime key change
// takes effect immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewClient creates a Gemini client for the given model identifier.
func NewClient(model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    defaultBaseURL,
		model:      model,
	}
}

// SetBaseURL points the client at a different endpoint. Tests use this
// to target a local stub server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate performs one generateContent call. All failures come back as
// *integrations.ClassifiedError so callers can render them by kind.
func (c *Client) Generate(ctx context.Context, apiKey string, req *GenerateRequest) (*GenerateResponse, error) {
	if apiKey == "" {
		return nil, integrations.NewClassifiedError(integrations.KindConfiguration, "no Gemini API key configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindData, Message: "failed to encode request", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: "Gemini API unreachable", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		_ = json.Unmarshal(respBody, &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = string(respBody)
		}
		log.Printf("ERROR [GeminiClient] generateContent returned %d: %s", resp.StatusCode, msg)
		return nil, classifyStatus(resp.StatusCode, msg)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindData, Message: "failed to decode Gemini response", Err: err}
	}
	return &genResp, nil
}

// ValidateKey issues a minimal prompt to verify the key works, without
// touching any conversation state.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return integrations.NewClassifiedError(integrations.KindConfiguration, "No API Key provided")
	}
	req := &GenerateRequest{
		Contents: []Content{{Role: RoleUser, Parts: []Part{{Text: "Test"}}}},
	}
	_, err := c.Generate(ctx, apiKey, req)
	return err
}
