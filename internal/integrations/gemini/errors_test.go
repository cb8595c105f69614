package gemini

import (
	"strings"
	"testing"

	"alphavault-backend/internal/integrations"
)

func TestParseRetryDelaySeconds(t *testing.T) {
	tests := []struct {
		message string
		want    int
		ok      bool
	}{
		{"Resource exhausted. Please retry in 12.3s.", 13, true},
		{"please retry in 5s", 5, true},
		{"Retry In 0.2s", 1, true},
		{"quota exceeded", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseRetryDelaySeconds(tt.message)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRetryDelaySeconds(%q) = (%d, %v), want (%d, %v)", tt.message, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClassifyStatusQuotaWithRetryHint(t *testing.T) {
	ce := classifyStatus(429, "You exceeded your quota. Please retry in 12.3s.")
	if ce.Kind != integrations.KindQuota {
		t.Fatalf("kind = %s, want quota", ce.Kind)
	}
	if ce.RetryAfterSeconds != 13 {
		t.Errorf("retry after = %d, want 13 (ceiling of 12.3)", ce.RetryAfterSeconds)
	}
	if !strings.Contains(ce.Message, "13") {
		t.Errorf("surfaced message must contain the wait value: %q", ce.Message)
	}
}

func TestClassifyStatusProjectNotEnabled(t *testing.T) {
	ce := classifyStatus(429, "User Project is not enabled for this API")
	if ce.Kind != integrations.KindQuota {
		t.Fatalf("kind = %s, want quota", ce.Kind)
	}
	if !strings.Contains(ce.Message, "Generative Language API") {
		t.Errorf("expected the enable-API hint, got %q", ce.Message)
	}
	if ce.RetryAfterSeconds != 0 {
		t.Errorf("no retry hint expected, got %d", ce.RetryAfterSeconds)
	}
}

func TestClassifyStatusKinds(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    integrations.ErrorKind
	}{
		{403, "permission denied", integrations.KindAuth},
		{400, "API key not valid. Please pass a valid API key. [API_KEY_INVALID]", integrations.KindAuth},
		{400, "invalid argument: contents", integrations.KindData},
		{429, "generic quota text", integrations.KindQuota},
		{500, "internal error", integrations.KindTransport},
		{503, "overloaded", integrations.KindTransport},
	}
	for _, tt := range tests {
		ce := classifyStatus(tt.status, tt.message)
		if ce.Kind != tt.want {
			t.Errorf("classifyStatus(%d, %q).Kind = %s, want %s", tt.status, tt.message, ce.Kind, tt.want)
		}
	}
}
