package main

import (
	"errors"
	"fmt"
)

var ErrInvalidEncoding = errors.New("input is not valid UTF-8 or UTF-16")

// ArgumentError is returned when the command line can not be used as given.
type ArgumentError struct {
	Msg string
	Err error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// IOError is returned when the source file can not be read or decoded,
// or when the output can not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConversionError is returned when goldmark fails on the given input.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("error converting %s: %s", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// exitCode maps an error returned from run to a process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return 2
	}

	return 1
}
