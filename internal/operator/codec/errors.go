package codec

import (
	"errors"
	"fmt"
)

// MalformedPayloadError means the bytes do not match the expected tuple
// layout. It is fatal for the task, never for the process.
type MalformedPayloadError struct {
	Shape string
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s payload", e.Shape)
	}
	return fmt.Sprintf("malformed %s payload: %v", e.Shape, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

var errNotCanonical = errors.New("payload is not the canonical encoding of the expected tuple")

// IsMalformed reports whether err carries a MalformedPayloadError.
func IsMalformed(err error) bool {
	var target *MalformedPayloadError
	return errors.As(err, &target)
}

func malformed(shape string, err error) error {
	return &MalformedPayloadError{Shape: shape, Err: err}
}
