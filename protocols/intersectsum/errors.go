package intersectsum

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies protocol errors.
type Kind uint8

const (
	// KindInvalidInput means the caller supplied out-of-range values.
	KindInvalidInput Kind = iota + 1
	// KindMalformedMessage means a peer message failed to parse or carried
	// invalid points or ciphertexts.
	KindMalformedMessage
	// KindProtocolOrder means an operation was invoked in the wrong state.
	KindProtocolOrder
	// KindCrypto means a failure of the underlying cryptography, such as
	// key generation exhaustion.
	KindCrypto
	// KindInternal means an invariant violation that indicates a bug.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindMalformedMessage:
		return "malformed message"
	case KindProtocolOrder:
		return "protocol order violation"
	case KindCrypto:
		return "crypto failure"
	case KindInternal:
		return "internal error"
	default:
		return fmt.Sprintf("unknown kind %d", uint8(k))
	}
}

// Error is the error type returned by every protocol operation. A session
// that produced an Error is dead: no further operations will succeed.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("intersectsum: %s: %s", e.kind, e.msg)
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error classification.
func (e *Error) Kind() Kind { return e.kind }

// KindOf extracts the Kind of err, or 0 if err is not a protocol error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, msg string) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}
