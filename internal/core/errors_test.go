package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := &Error{Code: "TEST", Message: "test failed"}
	if err.Error() != "[TEST] test failed" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapError(ErrProviderFailed, cause)

	if !errors.Is(err, ErrProviderFailed) {
		t.Error("wrapped error should match base by code")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to cause")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no contract match", ErrNoContractMatch, true},
		{"no bars wrapped", WrapError(ErrNoBars, fmt.Errorf("empty response")), true},
		{"no reference price", ErrNoReferencePrice, true},
		{"data quality", ErrDataQuality, false},
		{"provider failure", ErrProviderFailed, false},
		{"plain error", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
