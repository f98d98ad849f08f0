package ledger

import "errors"

// Validation errors are raised before any network call.
var (
	ErrIncompleteForm        = errors.New("all fields are required")
	ErrNoTimeIn              = errors.New("please select time in first")
	ErrTimeOutNotAfterTimeIn = errors.New("time out must be later than time in")
	ErrDurationTooShort      = errors.New("time difference must be at least 1 hour")
	ErrNetworkOrServer       = errors.New("network or server error")
)

// DefaultSubmitFailure is shown when the backend gives no message.
const DefaultSubmitFailure = "Failed to add report."

// SubmitError carries the message to show after a failed submission.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() []error { return []error{ErrNetworkOrServer, e.Err} }

type userMessager interface {
	UserMessage() string
}

func newSubmitError(err error) *SubmitError {
	msg := DefaultSubmitFailure
	var um userMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		msg = um.UserMessage()
	}
	return &SubmitError{Message: msg, Err: err}
}
