package config

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	JWTSecret       string
	TokenExpiration time.Duration
	EncryptionKey   []byte // Raw key bytes (32 for AES-256)
	GeminiAPIKey    string // Optional bootstrap key; runtime overrides win
	GeminiModel     string
	CredStorePath   string // Encrypted credential file location
	AllowedOrigins  []string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "default-super-secret-key") // CHANGE THIS IN PRODUCTION!

	tokenExpStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	tokenExpHours, err := strconv.Atoi(tokenExpStr)
	if err != nil {
		log.Printf("Warning: Invalid JWT_EXPIRATION_HOURS '%s', using default 24h. Error: %v", tokenExpStr, err)
		tokenExpHours = 24
	}

	// Load and decode the Encryption Key (MUST be 64 hex characters for 32 bytes)
	encryptionKeyHex := getEnv("ENCRYPTION_KEY", "")
	if encryptionKeyHex == "" {
		log.Fatal("FATAL: ENCRYPTION_KEY environment variable is not set.")
	}
	encryptionKeyBytes, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		log.Fatalf("FATAL: Failed to decode ENCRYPTION_KEY from hex: %v", err)
	}
	if len(encryptionKeyBytes) != 32 {
		log.Fatalf("FATAL: ENCRYPTION_KEY must be 32 bytes (64 hex characters) long, got %d bytes", len(encryptionKeyBytes))
	}

	originsStr := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := &Config{
		HTTPPort:        port,
		JWTSecret:       jwtSecret,
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),
		EncryptionKey:   encryptionKeyBytes,
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""), // empty is fine, key can be set at runtime
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CredStorePath:   getEnv("CRED_STORE_PATH", "alphavault_credential.bin"),
		AllowedOrigins:  origins,
	}

	log.Printf("Loaded config: Port=%s, Model=%s, TokenExp=%s, EncryptionKey=***", cfg.HTTPPort, cfg.GeminiModel, cfg.TokenExpiration)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}
