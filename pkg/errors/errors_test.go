package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInstance, "line %d: bad token", 3)

	if err.Code != ErrCodeInvalidInstance {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInstance)
	}
	if err.Message != "line 3: bad token" {
		t.Errorf("Message = %v, want %v", err.Message, "line 3: bad token")
	}
	expected := "INVALID_INSTANCE: line 3: bad token"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "save result")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInfeasible, "x"), ErrCodeInfeasible, true},
		{"different code", New(ErrCodeInfeasible, "x"), ErrCodeNotFound, false},
		{"wrapped with fmt", fmt.Errorf("run: %w", New(ErrCodeInconsistentCache, "x")), ErrCodeInconsistentCache, true},
		{"plain error", errors.New("x"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidConfig, "bad decay")); got != "bad decay" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestIsInvariant(t *testing.T) {
	if !IsInvariant(New(ErrCodeInfeasible, "x")) {
		t.Error("INFEASIBLE should be an invariant violation")
	}
	if IsInvariant(New(ErrCodeInvalidInstance, "x")) {
		t.Error("INVALID_INSTANCE should not be an invariant violation")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidKey, "x"), 400},
		{New(ErrCodeNotFound, "x"), 404},
		{New(ErrCodeStore, "x"), 500},
		{errors.New("x"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
