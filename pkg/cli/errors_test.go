package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/ladder/pkg/rules"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "missing required field")

	expected := "config error in server.listen_address: missing required field"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("eval", underlyingErr)

	if err.Error() != "command eval failed: underlying error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	exhausted := &rules.ExhaustedError[int]{Attempts: 3, Last: 7}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage", Usagef("bad flag %q", "--x"), ExitUsage},
		{"wrapped usage", fmt.Errorf("eval: %w", Usagef("missing ladder")), ExitUsage},
		{"config", NewConfigError("records.driver", "unknown"), ExitUsage},
		{"exhausted", NewCommandError("roll", exhausted), ExitExhausted},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
