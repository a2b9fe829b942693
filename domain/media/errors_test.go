package media

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{"validation", NewValidationError("too big"), ErrValidation, KindValidation},
		{"decode", NewDecodeError(errors.New("bad header")), ErrDecode, KindDecode},
		{"delegate load", NewDelegateLoadError(errors.New("no binary")), ErrDelegateLoad, KindDelegateLoad},
		{"encode", NewEncodeError(errors.New("out of memory")), ErrEncode, KindEncode},
		{"unknown", Classify(errors.New("boom")), ErrUnknown, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("convert: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if KindOf(wrapped) != tt.kind {
				t.Errorf("KindOf() = %v, want %v", KindOf(wrapped), tt.kind)
			}
		})
	}
}

func TestError_DoesNotMatchOtherSentinels(t *testing.T) {
	err := NewDecodeError(errors.New("bad header"))
	if errors.Is(err, ErrValidation) {
		t.Error("decode error matched ErrValidation")
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("strategy exhausted")
	err := NewDecodeError(cause)
	if !errors.Is(err, cause) {
		t.Error("expected decode error to unwrap to its cause")
	}
	if err.Error() != MessageDecodeFailed {
		t.Errorf("Error() = %q, want %q", err.Error(), MessageDecodeFailed)
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(nil, "fallback"); got != "fallback" {
		t.Errorf("MessageOf(nil) = %q", got)
	}
	if got := MessageOf(errors.New(""), "fallback"); got != "fallback" {
		t.Errorf("MessageOf(empty) = %q", got)
	}
	if got := MessageOf(errors.New("disk full"), "fallback"); got != "disk full" {
		t.Errorf("MessageOf(err) = %q", got)
	}
}

func TestClassify_KeepsExistingKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewEncodeError(errors.New("x")))
	if Classify(err).Kind != KindEncode {
		t.Errorf("Classify() lost the encode kind")
	}
}
