package integrations

import "fmt"

// ErrorKind classifies failures from external services so callers can
// decide how to surface them: retry, reconfigure, or wait.
type ErrorKind string

const (
	// KindConfiguration: missing credential or required client id.
	// Fatal to the feature, recoverable by user input.
	KindConfiguration ErrorKind = "configuration"
	// KindTransport: service unreachable or readiness timeout. Retryable.
	KindTransport ErrorKind = "transport"
	// KindAuth: permission denied or invalid credential.
	KindAuth ErrorKind = "auth"
	// KindQuota: rate or usage limit, optionally with a retry-after hint.
	KindQuota ErrorKind = "quota"
	// KindData: malformed provider output or corrupt file bytes.
	// Recoverable by skipping the offending unit of work.
	KindData ErrorKind = "data"
)

// ClassifiedError wraps an external failure with its taxonomy kind and a
// message fit for rendering directly in the conversation.
type ClassifiedError struct {
	Kind              ErrorKind
	Message           string
	RetryAfterSeconds int // set for quota errors when the provider hinted a wait
	Err               error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// NewClassifiedError builds a ClassifiedError without a wrapped cause.
func NewClassifiedError(kind ErrorKind, message string) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Message: message}
}
