// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfs

import (
	"errors"
	"fmt"
)

// Status codes used by the shipped accessors. They follow the negated errno
// values returned by owserver. Codes are otherwise opaque to this package.
const (
	CodeNotFound    = -2
	CodeIO          = -5
	CodeAccess      = -13
	CodeIsDirectory = -21
	CodeInvalid     = -22
)

var (
	// ErrEncoding is returned when a path or string value cannot be sent to
	// the accessor, i.e. it contains a NUL byte.
	ErrEncoding = errors.New("owfs: invalid encoding")
	// ErrConversion is returned when a length does not fit the width used by
	// the accessors.
	ErrConversion = errors.New("owfs: value out of range")
	// ErrShortWrite is wrapped by an AccessError when fewer bytes than
	// requested were written.
	ErrShortWrite = errors.New("owfs: short write")
	// ErrClosed is returned by every operation on a closed Conn.
	ErrClosed = errors.New("owfs: connection closed")
)

// AccessError is returned when the accessor reports a failure.
//
// Code is the status reported by the accessor and is passed through as is.
type AccessError struct {
	Op   string // "read" or "write"
	Path string
	Code int
	Err  error // underlying cause, may be nil
}

// NewAccessError returns an AccessError without an underlying cause. It is
// meant for Accessor implementations.
func NewAccessError(op, path string, code int) *AccessError {
	return &AccessError{Op: op, Path: path, Code: code}
}

func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("owfs: %s %s: code %d: %v", e.Op, e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("owfs: %s %s: code %d", e.Op, e.Path, e.Code)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// wrapAccess turns an accessor error into an *AccessError, keeping the one
// the accessor returned when it already is one.
func wrapAccess(op, path string, err error) error {
	var ae *AccessError
	if errors.As(err, &ae) {
		return err
	}
	return &AccessError{Op: op, Path: path, Code: CodeIO, Err: err}
}
