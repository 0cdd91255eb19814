package errors

import (
	"fmt"
	"testing"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{502, ErrorTypeServerError},
		{200, ErrorTypeUnknown},
		{418, ErrorTypeUnknown},
	}

	for _, test := range tests {
		if got := FromStatusCode(test.code); got != test.expected {
			t.Errorf("FromStatusCode(%d) = %s, want %s", test.code, got, test.expected)
		}
	}
}

func TestIsTemporaryBlock(t *testing.T) {
	if IsTemporaryBlock(nil) {
		t.Error("nil error should not be a temporary block")
	}

	typed := New(ErrorTypeTemporaryBlock, "blocked")
	if !IsTemporaryBlock(typed) {
		t.Error("typed temporary block error not detected")
	}

	wrapped := fmt.Errorf("fetch failed: %w", typed)
	if !IsTemporaryBlock(wrapped) {
		t.Error("wrapped temporary block error not detected")
	}

	literal := fmt.Errorf("instagram said: Please wait a few minutes before you try again")
	if !IsTemporaryBlock(literal) {
		t.Error("literal block message not detected")
	}

	if IsTemporaryBlock(New(ErrorTypeRateLimit, "slow down")) {
		t.Error("rate limit error misclassified as temporary block")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeConnection, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("%s should be retryable", et)
		}
	}

	notRetryable := []ErrorType{ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeTemporaryBlock, ErrorTypeUnknown}
	for _, et := range notRetryable {
		if IsRetryable(et) {
			t.Errorf("%s should not be retryable", et)
		}
	}
}

func TestClassificationHelpers(t *testing.T) {
	if !IsTooManyRequests(NewWithCode(ErrorTypeRateLimit, "rate limit exceeded", 429)) {
		t.Error("429 error not detected as too many requests")
	}
	if !IsConnection(New(ErrorTypeConnection, "connection reset")) {
		t.Error("connection error not detected")
	}
	if !IsConnection(New(ErrorTypeNetwork, "dial timeout")) {
		t.Error("network error should count as connection failure")
	}
	if !IsAuth(NewWithCode(ErrorTypeAuth, "login required", 401)) {
		t.Error("auth error not detected")
	}
	if IsTooManyRequests(fmt.Errorf("plain error")) {
		t.Error("plain error misclassified")
	}
}
