// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfs

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
)

// Accessor serves the bus namespace.
//
// Read returns the payload stored at path: a comma separated listing for
// directories, a value for attributes. The returned slice is owned by the
// caller. Write stores data at an attribute path and returns the number of
// bytes the bus accepted.
//
// Failures should be reported as *AccessError so that the status code is
// preserved; any other error is reported with CodeIO.
type Accessor interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) (int, error)
	Close() error
}

// Opts contains options to pass to New.
type Opts struct {
	// Logger receives debug events, e.g. devices dropped during a scan. A nil
	// Logger discards them.
	Logger *slog.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{}

// maxLen is the largest payload the accessors can describe; owserver uses
// 32 bit signed lengths.
const maxLen = math.MaxInt32

// New returns a connection handle over an opened Accessor.
//
// The handle owns the accessor: Close closes it.
func New(a Accessor, opts *Opts) *Conn {
	if opts == nil {
		opts = &DefaultOpts
	}
	l := opts.Logger
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Conn{a: a, log: l}
}

// Conn is an open connection to a bus namespace.
//
// Conn is safe for concurrent use as long as its Accessor is.
type Conn struct {
	a   Accessor
	log *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func (c *Conn) String() string {
	if s, ok := c.a.(fmt.Stringer); ok {
		return "owfs{" + s.String() + "}"
	}
	return "owfs"
}

// Close releases the accessor. It is safe to call Close more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.a.Close()
}

// Device returns an unloaded record for the device at path. No I/O is done.
func (c *Conn) Device(path string) *Device {
	return &Device{c: c, path: path}
}

// Get reads path and returns it as a string.
//
// The payload is cut at the first NUL byte and invalid UTF-8 sequences are
// replaced.
func (c *Conn) Get(path string) (string, error) {
	b, err := c.read(path)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), nil
}

// GetBytes reads path and returns the raw payload.
func (c *Conn) GetBytes(path string) ([]byte, error) {
	return c.read(path)
}

// Set writes value to path.
func (c *Conn) Set(path, value string) error {
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%w: NUL in value for %q", ErrEncoding, path)
	}
	return c.write(path, []byte(value))
}

// SetBytes writes value to path. Unlike Set, value may contain NUL bytes.
func (c *Conn) SetBytes(path string, value []byte) error {
	return c.write(path, value)
}

func (c *Conn) read(path string) ([]byte, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	b, err := c.a.Read(path)
	if err != nil {
		return nil, wrapAccess("read", path, err)
	}
	return b, nil
}

func (c *Conn) write(path string, value []byte) error {
	if err := checkPath(path); err != nil {
		return err
	}
	if len(value) > maxLen {
		return fmt.Errorf("%w: %d bytes for %q", ErrConversion, len(value), path)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	n, err := c.a.Write(path, value)
	if err != nil {
		return wrapAccess("write", path, err)
	}
	if n != len(value) {
		return &AccessError{Op: "write", Path: path, Code: CodeIO, Err: ErrShortWrite}
	}
	return nil
}

func checkPath(path string) error {
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: NUL in path %q", ErrEncoding, path)
	}
	return nil
}
