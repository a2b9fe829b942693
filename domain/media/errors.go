package media

import (
	"errors"
	"fmt"
)

// ErrorKind classifies conversion failures
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindDecode
	KindDelegateLoad
	KindEncode
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindDelegateLoad:
		return "delegate_load"
	case KindEncode:
		return "encode"
	}
	return "unknown"
}

var (
	// ErrValidation is matched by every validation failure (size ceiling, extension, busy engine)
	ErrValidation = errors.New("validation failed")

	// ErrDecode is matched when every decode strategy has been exhausted
	ErrDecode = errors.New("decode failed")

	// ErrDelegateLoad is matched when the codec delegate could not be initialized
	ErrDelegateLoad = errors.New("codec delegate failed to load")

	// ErrEncode is matched when encoding could not allocate or complete
	ErrEncode = errors.New("encode failed")

	// ErrUnknown is matched by failures that fit no other kind
	ErrUnknown = errors.New("conversion failed")
)

// Caller-facing messages
const (
	MessageConversionFailed = "Conversion failed"
	MessageDecodeFailed     = "Could not decode audio from this file. Please try a different file format."
)

// Error is a classified conversion failure with a caller-facing message
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return MessageConversionFailed
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

func sentinelFor(k ErrorKind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindDecode:
		return ErrDecode
	case KindDelegateLoad:
		return ErrDelegateLoad
	case KindEncode:
		return ErrEncode
	}
	return ErrUnknown
}

// NewValidationError reports input rejected before any work started
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewDecodeError wraps the joined causes of an exhausted decode chain
func NewDecodeError(cause error) *Error {
	return &Error{Kind: KindDecode, Message: MessageDecodeFailed, Err: cause}
}

// NewDelegateLoadError wraps a codec delegate initialization failure
func NewDelegateLoadError(cause error) *Error {
	return &Error{Kind: KindDelegateLoad, Message: fmt.Sprintf("failed to load codec engine: %v", cause), Err: cause}
}

// NewEncodeError wraps an encoder failure
func NewEncodeError(cause error) *Error {
	return &Error{Kind: KindEncode, Message: fmt.Sprintf("failed to encode audio: %v", cause), Err: cause}
}

// KindOf returns the kind of err, KindUnknown when err is not classified
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns err's message, or fallback when err is nil or has an empty message
func MessageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// Classify wraps err as an unknown-kind Error unless it is already classified
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Message: MessageOf(err, MessageConversionFailed), Err: err}
}
