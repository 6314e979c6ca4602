package providers

import "testing"

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  Kind
		retryable bool
	}{
		{"rate limited", 429, `{"error":"rate limit exceeded"}`, KindRateLimited, false},
		{"service unavailable", 503, "upstream brownout", KindServiceUnavailable, true},
		{"internal error", 500, "oops", KindServiceUnavailable, true},
		{"tool use unsupported", 400, `{"error":{"message":"This model does not support tools"}}`, KindModelUnsupported, false},
		{"no tool endpoints", 404, `No endpoints found that support tool use`, KindModelUnsupported, false},
		{"plain bad request", 400, `{"error":"invalid request"}`, KindAPIRequestFailed, true},
		{"not found", 404, "no such route", KindAPIRequestFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus("test", tt.status, tt.body)
			if err.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", err.Kind, tt.wantKind)
			}
			if err.Retryable() != tt.retryable {
				t.Errorf("retryable = %v, want %v", err.Retryable(), tt.retryable)
			}
			if err.Status != tt.status {
				t.Errorf("status = %d, want %d", err.Status, tt.status)
			}
		})
	}
}

func TestNetErrorIsRetryable(t *testing.T) {
	err := netError("test", errTest("connection reset by peer"))
	if err.Kind != KindNetwork {
		t.Errorf("kind = %v", err.Kind)
	}
	if !err.Retryable() {
		t.Error("network errors must be retryable")
	}
}

func TestNoAPIKeyIsNotRetryable(t *testing.T) {
	err := &Error{Kind: KindNoAPIKey, Provider: "anthropic"}
	if err.Retryable() {
		t.Error("missing credentials must not be retried")
	}
}

func TestErrorString(t *testing.T) {
	withStatus := &Error{Kind: KindRateLimited, Provider: "openai", Status: 429, Message: "slow down"}
	if got := withStatus.Error(); got != "openai: rate_limit_exceeded (HTTP 429): slow down" {
		t.Errorf("got %q", got)
	}

	transport := &Error{Kind: KindNetwork, Provider: "groq", Message: "read: connection reset"}
	if got := transport.Error(); got != "groq: network: read: connection reset" {
		t.Errorf("got %q", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
