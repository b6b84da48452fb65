package main

import (
	"testing"

	"github.com/microreview/internal/domain"
)

func TestExitCodeError_Error(t *testing.T) {
	tests := []struct {
		code domain.ExitCode
		want string
	}{
		{domain.ExitFindings, "findings were reported"},
		{domain.ExitError, "review failed with error"},
		{domain.ExitInterrupted, "review was interrupted"},
		{domain.ExitCode(99), "exit code 99"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := exitCodeError{code: tt.code}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestExitCode_ReturnsNilForNoFindings(t *testing.T) {
	if err := exitCode(domain.ExitNoFindings); err != nil {
		t.Errorf("expected nil for ExitNoFindings, got %v", err)
	}
}

func TestExitCode_ReturnsErrorForOtherCodes(t *testing.T) {
	codes := []domain.ExitCode{
		domain.ExitFindings,
		domain.ExitError,
		domain.ExitInterrupted,
	}

	for _, code := range codes {
		err := exitCode(code)
		if err == nil {
			t.Errorf("expected error for code %d, got nil", code)
			continue
		}
		exitErr, ok := err.(exitCodeError)
		if !ok {
			t.Errorf("expected exitCodeError type, got %T", err)
			continue
		}
		if exitErr.code != code {
			t.Errorf("expected code %d, got %d", code, exitErr.code)
		}
	}
}
