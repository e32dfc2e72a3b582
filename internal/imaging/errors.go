package imaging

import "errors"

var (
	ErrValidation      = errors.New("image validation failed")
	ErrTransformFailed = errors.New("image transform failed")
	ErrTooComplex      = errors.New("image too complex")
	ErrInvalidDataURI  = errors.New("invalid data uri")
)

// Kind classifies a ProcessingError.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindTransformFailed
	KindTooComplex
	KindInvalidDataURI
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransformFailed:
		return "transform_failed"
	case KindTooComplex:
		return "too_complex"
	case KindInvalidDataURI:
		return "invalid_data_uri"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTooComplex:
		return ErrTooComplex
	case KindInvalidDataURI:
		return ErrInvalidDataURI
	default:
		return ErrTransformFailed
	}
}

// ProcessingError is returned by every failing normalizer operation.
// Message is safe to show to end users as-is.
type ProcessingError struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, may be nil
}

func (e *ProcessingError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind's sentinel and the underlying cause to errors.Is.
func (e *ProcessingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

func newError(kind Kind, message string, cause error) *ProcessingError {
	return &ProcessingError{Kind: kind, Message: message, Err: cause}
}

// Message returns the user-facing message of err. Errors that did not come
// from this package are reported with their full text.
func Message(err error) string {
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return perr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
