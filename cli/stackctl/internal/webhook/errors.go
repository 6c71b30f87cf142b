package webhook

import (
	"errors"
	"fmt"
)

var (
	ErrNoMessages       = errors.New("no messages found in the request body")
	ErrUnexpectedStatus = errors.New("unexpected workflow status")
	ErrMissingField     = errors.New("response field missing")
)

// StatusError is returned when the workflow answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d - %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
