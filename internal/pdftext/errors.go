package pdftext

import (
	"errors"
	"fmt"
)

// ErrNoText is returned when a backend ran but recovered no text layer.
var ErrNoText = errors.New("no text recovered")

// recoverPanic turns a panic from a third-party PDF reader into an error.
func recoverPanic(backend string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: reader panic: %v", backend, r)
	}
}
