package auth

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	SessionIDKey contextKey = "sessionID"
)

// --- JWT Claims ---

// SessionClaims includes standard JWT claims plus the session ID.
// Match this with the claims parsing in api/middleware.go
type SessionClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}

// NewSessionToken generates a signed JWT bound to one workspace session.
// The token is the only handle on the session; there are no user accounts.
func NewSessionToken(sessionID uuid.UUID, jwtSecret string, expiration time.Duration) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "alphavault-backend",
			Subject:   sessionID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT token for session %s: %v", sessionID, err)
		return "", err
	}

	return signedToken, nil
}
