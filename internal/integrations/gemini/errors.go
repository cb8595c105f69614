package gemini

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alphavault-backend/internal/integrations"
)

// retryDelayRe matches the provider's "retry in 12.3s" hint embedded in
// quota error messages.
var retryDelayRe = regexp.MustCompile(`(?i)retry in ([0-9]+(?:\.[0-9]+)?)s`)

// ParseRetryDelaySeconds extracts the suggested wait from a quota error
// message, rounded up to whole seconds. Returns false when no hint is
// present. This is a best-effort string match against third-party error
// text, not a contract.
func ParseRetryDelaySeconds(message string) (int, bool) {
	m := retryDelayRe.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(math.Ceil(secs)), true
}

// classifyStatus maps an HTTP error status plus provider message onto
// the error taxonomy, with the quota special cases the provider is known
// to emit.
func classifyStatus(status int, message string) *integrations.ClassifiedError {
	switch {
	case status == 429:
		if strings.Contains(message, "User Project is not enabled") {
			return integrations.NewClassifiedError(integrations.KindQuota,
				"API Error (429): 'Generative Language API' is not enabled on your Google Cloud Project. Please search for it in the Console and click Enable.")
		}
		if secs, ok := ParseRetryDelaySeconds(message); ok {
			return &integrations.ClassifiedError{
				Kind:              integrations.KindQuota,
				Message:           fmt.Sprintf("API Error (429): Quota Exceeded. Please wait %d seconds and try again.", secs),
				RetryAfterSeconds: secs,
			}
		}
		return integrations.NewClassifiedError(integrations.KindQuota,
			fmt.Sprintf("API Error (429): Quota Exceeded. Raw details: %s", message))

	case status == 403:
		return integrations.NewClassifiedError(integrations.KindAuth,
			fmt.Sprintf("API Error (403): Permission Denied. Raw: %s", message))

	case status == 400:
		if strings.Contains(message, "API key not valid") || strings.Contains(message, "API_KEY_INVALID") {
			return integrations.NewClassifiedError(integrations.KindAuth,
				fmt.Sprintf("API Error (400): Invalid API key. Raw: %s", message))
		}
		return integrations.NewClassifiedError(integrations.KindData,
			fmt.Sprintf("API Error (400): Invalid Request. Raw: %s", message))

	case status >= 500:
		return integrations.NewClassifiedError(integrations.KindTransport,
			fmt.Sprintf("API Error (%d): provider unavailable. Raw: %s", status, message))

	default:
		return integrations.NewClassifiedError(integrations.KindTransport,
			fmt.Sprintf("API Error (%d): %s", status, message))
	}
}
