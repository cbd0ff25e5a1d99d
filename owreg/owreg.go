// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owreg

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/GermanBionicSystems/owfs"
)

// DefaultScheme is used for connection strings without a scheme.
const DefaultScheme = "owserver"

// Opener opens an accessor for target, the part of the connection string
// after "scheme://".
type Opener func(target string, cfg *Config) (owfs.Accessor, error)

// Open opens the bus designated by the connection string conn with the
// default configuration.
func Open(conn string) (*owfs.Conn, error) {
	cfg := DefaultConfig
	cfg.Connection = conn
	return OpenConfig(&cfg)
}

// OpenConfig opens the bus described by cfg.
func OpenConfig(cfg *Config) (*owfs.Conn, error) {
	scheme, target := split(cfg.Connection)
	mu.Lock()
	o, ok := byScheme[scheme]
	mu.Unlock()
	if !ok {
		return nil, errors.New("owreg: unknown scheme " + strconv.Quote(scheme))
	}
	l, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	a, err := o(target, cfg)
	if err != nil {
		return nil, err
	}
	return owfs.New(a, &owfs.Opts{Logger: l}), nil
}

// Register registers an accessor opener for a scheme.
//
// Registering the same scheme twice is an error.
func Register(scheme string, o Opener) error {
	if scheme == "" || strings.Contains(scheme, "://") {
		return errors.New("owreg: invalid scheme " + strconv.Quote(scheme))
	}
	if o == nil {
		return errors.New("owreg: nil opener for " + strconv.Quote(scheme))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byScheme[scheme]; ok {
		return errors.New("owreg: scheme " + strconv.Quote(scheme) + " already registered")
	}
	byScheme[scheme] = o
	return nil
}

// Unregister removes a previously registered scheme.
//
// This can happen when an accessor is provided by a plugin that goes away.
func Unregister(scheme string) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byScheme[scheme]; !ok {
		return errors.New("owreg: unknown scheme " + strconv.Quote(scheme))
	}
	delete(byScheme, scheme)
	return nil
}

// Schemes returns the registered schemes, sorted.
func Schemes() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(byScheme))
	for s := range byScheme {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

//

var (
	mu       sync.Mutex
	byScheme = map[string]Opener{}
)

func split(conn string) (string, string) {
	if scheme, target, ok := strings.Cut(conn, "://"); ok {
		return scheme, target
	}
	return DefaultScheme, conn
}
