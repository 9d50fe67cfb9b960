package types

import (
	"errors"
)

// MaxUploadSize is the largest image the detection server accepts (100 MiB).
const MaxUploadSize = 100 * 1024 * 1024

var (
	ErrValidation      = errors.New("validation error")
	ErrUpload          = errors.New("upload error")
	ErrPoll            = errors.New("poll error")
	ErrPollTimeout     = errors.New("poll timeout")
	ErrServerReported  = errors.New("server reported error")
	ErrResultFetch     = errors.New("result fetch error")
	ErrStats           = errors.New("stats error")
	ErrNoSelection     = errors.New("no file selected")
	ErrNoCompletedTask = errors.New("no completed task")
	ErrBusy            = errors.New("upload already in progress")
)

// Error is a classified session failure. Kind is one of the sentinels above,
// Message is the text shown to the user.
type Error struct {
	Kind    error
	TaskID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// NewError builds a classified error.
func NewError(kind error, taskID, message string, cause error) *Error {
	return &Error{Kind: kind, TaskID: taskID, Message: message, Err: cause}
}

// UserMessage returns the user-facing text of err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
