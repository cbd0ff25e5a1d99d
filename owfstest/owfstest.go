// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfstest

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GermanBionicSystems/owfs"
)

// IO registers one read or write on the namespace.
type IO struct {
	Path  string
	Write bool
	// Data is the payload read, or the payload expected to be written.
	Data []byte
	// Short is the number of bytes a write reports as not written.
	Short int
	// Code, when not zero, fails the operation with this status.
	Code int
}

// Record implements owfs.Accessor and records everything written to it.
//
// This can then be used to feed to Playback to do "replay" based unit tests.
type Record struct {
	sync.Mutex
	Accessor owfs.Accessor // Accessor can be nil if only writes are being recorded.
	Ops      []IO
}

func (r *Record) String() string {
	return "record"
}

// Read implements owfs.Accessor.
func (r *Record) Read(path string) ([]byte, error) {
	r.Lock()
	defer r.Unlock()
	io := IO{Path: path}
	if r.Accessor == nil {
		r.Ops = append(r.Ops, io)
		return nil, nil
	}
	b, err := r.Accessor.Read(path)
	io.Data = append([]byte(nil), b...)
	io.Code = codeOf(err)
	r.Ops = append(r.Ops, io)
	return b, err
}

// Write implements owfs.Accessor.
func (r *Record) Write(path string, data []byte) (int, error) {
	r.Lock()
	defer r.Unlock()
	io := IO{Path: path, Write: true, Data: append([]byte(nil), data...)}
	if r.Accessor == nil {
		r.Ops = append(r.Ops, io)
		return len(data), nil
	}
	n, err := r.Accessor.Write(path, data)
	io.Short = len(data) - n
	io.Code = codeOf(err)
	r.Ops = append(r.Ops, io)
	return n, err
}

// Close implements owfs.Accessor.
func (r *Record) Close() error {
	r.Lock()
	defer r.Unlock()
	if r.Accessor == nil {
		return nil
	}
	return r.Accessor.Close()
}

// Playback implements owfs.Accessor and plays back a recorded I/O flow.
//
// While "replay" type of unit tests are of limited value, they still present
// an easy way to do basic code coverage.
//
// Set DontPanic to true to return an error instead of panicking, which is the
// default.
type Playback struct {
	sync.Mutex
	Ops       []IO
	DontPanic bool

	count  int
	closed bool
}

func (p *Playback) String() string {
	return "playback"
}

// Read implements owfs.Accessor.
func (p *Playback) Read(path string) ([]byte, error) {
	p.Lock()
	defer p.Unlock()
	io, err := p.next("read", path, false)
	if err != nil {
		return nil, err
	}
	if io.Code != 0 {
		return nil, owfs.NewAccessError("read", path, io.Code)
	}
	return append([]byte(nil), io.Data...), nil
}

// Write implements owfs.Accessor.
func (p *Playback) Write(path string, data []byte) (int, error) {
	p.Lock()
	defer p.Unlock()
	io, err := p.next("write", path, true)
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(io.Data, data) {
		return 0, p.fail(fmt.Errorf("owfstest: unexpected write %q to %q, expected %q", data, path, io.Data))
	}
	if io.Code != 0 {
		return 0, owfs.NewAccessError("write", path, io.Code)
	}
	return len(data) - io.Short, nil
}

// Close implements owfs.Accessor.
//
// It fails when not all the expected operations were done.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	p.closed = true
	if len(p.Ops) != p.count {
		return p.fail(fmt.Errorf("owfstest: expected playback to be empty: I/O count %d; expected %d", p.count, len(p.Ops)))
	}
	return nil
}

func (p *Playback) next(op, path string, write bool) (IO, error) {
	if p.closed {
		return IO{}, p.fail(errors.New("owfstest: " + op + " after Close"))
	}
	if p.count >= len(p.Ops) {
		return IO{}, p.fail(fmt.Errorf("owfstest: unexpected %s %q (I/O count %d)", op, path, p.count))
	}
	io := p.Ops[p.count]
	if io.Path != path || io.Write != write {
		return IO{}, p.fail(fmt.Errorf("owfstest: unexpected %s %q, expected %s", op, path, describe(io)))
	}
	p.count++
	return io, nil
}

func (p *Playback) fail(err error) error {
	if !p.DontPanic {
		panic(err)
	}
	return err
}

// Tree implements owfs.Accessor over a static namespace.
//
// Files maps attribute paths, without leading slash, to their value, e.g.
// "10.67C6697351FF/type": "DS18S20". Directories are derived from the file
// paths and listed in sorted order. The "uncached/" prefix is ignored.
//
// Tree is safe for concurrent use.
type Tree struct {
	sync.Mutex
	Files map[string]string
	// Fail maps a path, in the same form as Files, to a status code returned
	// for every access to it.
	Fail map[string]int
}

func (t *Tree) String() string {
	return "tree"
}

// Read implements owfs.Accessor.
func (t *Tree) Read(path string) ([]byte, error) {
	t.Lock()
	defer t.Unlock()
	p := clean(path)
	if code, ok := t.Fail[p]; ok {
		return nil, owfs.NewAccessError("read", path, code)
	}
	if v, ok := t.Files[p]; ok {
		return []byte(v), nil
	}
	entries := t.list(p)
	if entries == nil {
		return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
	}
	return []byte(strings.Join(entries, ",")), nil
}

// Write implements owfs.Accessor. Only existing files can be written.
func (t *Tree) Write(path string, data []byte) (int, error) {
	t.Lock()
	defer t.Unlock()
	p := clean(path)
	if code, ok := t.Fail[p]; ok {
		return 0, owfs.NewAccessError("write", path, code)
	}
	if _, ok := t.Files[p]; !ok {
		if t.list(p) != nil {
			return 0, owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
		}
		return 0, owfs.NewAccessError("write", path, owfs.CodeNotFound)
	}
	t.Files[p] = string(data)
	return len(data), nil
}

// Close implements owfs.Accessor.
func (t *Tree) Close() error {
	return nil
}

// list returns the sorted children of directory dir, or nil if dir has none.
func (t *Tree) list(dir string) []string {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	seen := map[string]bool{}
	for f := range t.Files {
		rest, ok := strings.CutPrefix(f, prefix)
		if !ok || rest == "" {
			continue
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i+1]
		}
		seen[rest] = true
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func clean(path string) string {
	p := strings.Trim(path, "/")
	for {
		rest, ok := strings.CutPrefix(p, "uncached")
		if !ok || (rest != "" && rest[0] != '/') {
			return p
		}
		p = strings.TrimPrefix(rest, "/")
	}
}

func describe(io IO) string {
	if io.Write {
		return fmt.Sprintf("write %q to %q", io.Data, io.Path)
	}
	return fmt.Sprintf("read %q", io.Path)
}

func codeOf(err error) int {
	if err == nil {
		return 0
	}
	var ae *owfs.AccessError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return owfs.CodeIO
}

var _ owfs.Accessor = &Record{}
var _ owfs.Accessor = &Playback{}
var _ owfs.Accessor = &Tree{}
