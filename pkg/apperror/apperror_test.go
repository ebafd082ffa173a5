package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("dup"), KindConflict},
		{"auth", Auth("nope"), KindAuth},
		{"wrapped", fmt.Errorf("vote: %w", NotFound("missing")), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
		{"internal", Internal("store failed", errors.New("conn reset")), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("conn reset")
	err := Internal("store failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Expected Internal error to unwrap to its cause")
	}
	if err.Error() != "store failed: conn reset" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
