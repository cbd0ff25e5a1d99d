// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owbus

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/GermanBionicSystems/owfs"
	"github.com/GermanBionicSystems/owfs/owreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ds248x"
)

// defaultAddr is the I²C address of a DS2482 with AD0 and AD1 low.
const defaultAddr = 0x18

// parseTarget parses "<bus name>?addr=0x18". An empty bus name selects the
// first I²C bus.
func parseTarget(target string) (string, uint16, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", 0, fmt.Errorf("owbus: %w", err)
	}
	addr := uint16(defaultAddr)
	if s := u.Query().Get("addr"); s != "" {
		v, err := strconv.ParseUint(s, 0, 7)
		if err != nil {
			return "", 0, fmt.Errorf("owbus: invalid address %q", s)
		}
		addr = uint16(v)
	}
	return u.Path, addr, nil
}

func open(target string, cfg *owreg.Config) (owfs.Accessor, error) {
	name, addr, err := parseTarget(target)
	if err != nil {
		return nil, err
	}
	l, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	i, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("owbus: %w", err)
	}
	d, err := ds248x.New(i, addr, &ds248x.DefaultOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("owbus: %w", err), i.Close())
	}
	b, err := New(d, &Opts{Resolution: cfg.Resolution, Logger: l})
	if err != nil {
		return nil, errors.Join(err, i.Close())
	}
	b.closer = i
	return b, nil
}

func init() {
	if err := owreg.Register("i2c", open); err != nil {
		panic(err)
	}
}
