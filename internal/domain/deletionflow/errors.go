package deletionflow

import "errors"

// Kind is the closed set of failure categories the flow understands. Backend
// errors are mapped to a Kind once, at the adapter boundary; the flow never
// inspects raw error strings.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
)

// Error is a categorised backend failure carrying a user-displayable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// AsFlowError normalises any backend error into an *Error. Errors that did not
// pass through the adapter are treated as transport failures.
func AsFlowError(err error) *Error {
	if err == nil {
		return nil
	}
	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr
	}
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

// Transition errors returned to callers driving the flow. These are caller
// mistakes, not backend failures, and never change flow state.
var (
	ErrInvalidTransition = errors.New("operation not valid in the current state")
	ErrNotConfirmed      = errors.New("confirmation phrase does not match")
	ErrCloseProcessing   = errors.New("cannot close while processing")
)
