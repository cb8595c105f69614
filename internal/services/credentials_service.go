package services

import (
	"context"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"alphavault-backend/internal/crypto"
	"alphavault-backend/internal/integrations"
	api_models "alphavault-backend/internal/models"
	integration_models "alphavault-backend/internal/models/integrations"
)

// Custom errors for the credentials service
var (
	ErrCredentialValidation = errors.New("credential validation failed")
	ErrCredentialEncryption = errors.New("credential encryption failed")
	ErrCredentialDecryption = errors.New("credential decryption failed")
)

// CredentialsService holds the Gemini API key for this deployment. The
// key lives in memory and, when a store path is configured, in one
// encrypted file so it survives restarts. It is the only state allowed
// to outlive a session.
type CredentialsService interface {
	SetKey(ctx context.Context, apiKey string) error
	ClearKey(ctx context.Context) error
	GetKey(ctx context.Context) string
	TestCredential(ctx context.Context) (*api_models.TestCredentialResponse, error)
}

type credentialsService struct {
	mu        sync.RWMutex
	key       string
	aead      cipher.AEAD
	registry  *integrations.Registry
	storePath string
}

// NewCredentialsService creates the service, preferring a previously
// persisted key over the bootstrap key from the environment.
func NewCredentialsService(aeadCipher cipher.AEAD, reg *integrations.Registry, storePath, bootstrapKey string) CredentialsService {
	s := &credentialsService{
		aead:      aeadCipher,
		registry:  reg,
		storePath: storePath,
		key:       bootstrapKey,
	}
	if persisted, err := s.loadPersistedKey(); err != nil {
		log.Printf("WARN [CredService] could not load persisted credential: %v", err)
	} else if persisted != "" {
		s.key = persisted
		log.Println("[CredService] Loaded persisted Gemini credential.")
	}
	return s
}

// GetKey returns the current API key, empty when none is configured.
func (s *credentialsService) GetKey(_ context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// SetKey validates, stores, and persists a new API key.
func (s *credentialsService) SetKey(_ context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: api_key cannot be empty", ErrCredentialValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = apiKey

	if err := s.persistKey(apiKey); err != nil {
		log.Printf("ERROR [CredService] SetKey: persistence failed: %v", err)
		return err
	}
	log.Println("[CredService] SetKey: Gemini credential updated.")
	return nil
}

// ClearKey forgets the key in memory and removes the persisted copy.
func (s *credentialsService) ClearKey(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""

	if s.storePath == "" {
		return nil
	}
	if err := os.Remove(s.storePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("ERROR [CredService] ClearKey: failed to remove credential file: %v", err)
		return fmt.Errorf("failed to remove persisted credential: %w", err)
	}
	log.Println("[CredService] ClearKey: Gemini credential removed.")
	return nil
}

// TestCredential checks the stored key against the live API.
func (s *credentialsService) TestCredential(ctx context.Context) (*api_models.TestCredentialResponse, error) {
	key := s.GetKey(ctx)
	if key == "" {
		return &api_models.TestCredentialResponse{
			Success: false,
			Message: "No API key is configured.",
		}, nil
	}

	integration, err := s.registry.Get(string(api_models.ServiceTypeGemini))
	if err != nil {
		log.Printf("ERROR [CredService] TestCredential: registry lookup failed: %v", err)
		return nil, fmt.Errorf("internal error: unsupported service type %q", api_models.ServiceTypeGemini)
	}

	testResult, err := integration.TestConnection(ctx, integration_models.DecryptedCredentials{"api_key": key})
	if err != nil {
		log.Printf("ERROR [CredService] TestCredential: TestConnection failed: %v", err)
		return nil, fmt.Errorf("error occurred during connection test: %w", err)
	}
	log.Printf("[CredService] TestCredential: Success=%v Message=%q", testResult.Success, testResult.Message)

	return &api_models.TestCredentialResponse{
		Success: testResult.Success,
		Message: testResult.Message,
	}, nil
}

// persistKey writes the key as `{"encrypted": "<base64>"}` so the file
// never holds plaintext. Callers hold the write lock.
func (s *credentialsService) persistKey(apiKey string) error {
	if s.storePath == "" {
		return nil
	}

	plaintext, err := json.Marshal(integration_models.GeminiCredentials{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("failed to process credential data: %w", err)
	}
	encrypted, err := crypto.Encrypt(s.aead, plaintext)
	if err != nil {
		return ErrCredentialEncryption
	}

	wrapper := struct {
		Encrypted string `json:"encrypted"`
	}{
		Encrypted: base64.StdEncoding.EncodeToString(encrypted),
	}
	payload, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to prepare encrypted data for storage: %w", err)
	}
	if err := os.WriteFile(s.storePath, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// loadPersistedKey reads and decrypts the credential file; a missing
// file is not an error.
func (s *credentialsService) loadPersistedKey() (string, error) {
	if s.storePath == "" {
		return "", nil
	}
	payload, err := os.ReadFile(s.storePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}

	var wrapper struct {
		Encrypted string `json:"encrypted"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return "", fmt.Errorf("failed to read stored credential format: %w", err)
	}
	encrypted, err := base64.StdEncoding.DecodeString(wrapper.Encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored credential: %w", err)
	}
	plaintext, err := crypto.Decrypt(s.aead, encrypted)
	if err != nil {
		return "", ErrCredentialDecryption
	}

	var creds integration_models.GeminiCredentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return "", fmt.Errorf("failed to unmarshal decrypted credential: %w", err)
	}
	return creds.APIKey, nil
}
