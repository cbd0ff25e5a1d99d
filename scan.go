// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfs

import (
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// rootPath is the root listing that bypasses the bus driver cache.
	rootPath = "/uncached/"
	// alarmPath lists the devices currently in alarm state.
	alarmPath = "/uncached/alarm/"
)

// ScanOptions selects the devices returned by Scan.
//
// A nil slice imposes no constraint. A non-nil slice is always applied: an
// empty Types or AttrsAny matches no device.
type ScanOptions struct {
	Types    []string // device "type" must be one of these
	AttrsAll []string // device must have all of these attributes
	AttrsAny []string // device must have at least one of these attributes

	// Workers is the number of devices loaded and matched concurrently. Values
	// below 2 scan sequentially. The result order does not depend on it.
	Workers int
}

// Matches reports whether d passes all the predicates of o.
//
// Types costs a read of the "type" attribute. The attribute predicates only
// look at the names found by the last d.Load, so d must have been loaded for
// them to match.
func (o *ScanOptions) Matches(d *Device) bool {
	if o.Types != nil {
		t, err := d.Get("type")
		if err != nil || !contains(o.Types, t) {
			return false
		}
	}
	for _, a := range o.AttrsAll {
		if !d.Has(a) {
			return false
		}
	}
	if o.AttrsAny != nil {
		found := false
		for _, a := range o.AttrsAny {
			if d.Has(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Scan enumerates the devices on the bus and returns the loaded devices
// matching opts, in bus enumeration order. A nil opts matches every device.
//
// Only a failure to read the bus root is returned. A device that cannot be
// loaded is left out of the result.
func (c *Conn) Scan(opts *ScanOptions) ([]*Device, error) {
	return c.scan(rootPath, opts)
}

// Alarms is like Scan but only enumerates the devices in alarm state.
func (c *Conn) Alarms(opts *ScanOptions) ([]*Device, error) {
	return c.scan(alarmPath, opts)
}

func (c *Conn) scan(root string, opts *ScanOptions) ([]*Device, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}
	data, err := c.Get(root)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range strings.Split(data, ",") {
		if p, ok := devicePath(e); ok {
			paths = append(paths, p)
		}
	}

	// One slot per candidate keeps the enumeration order whatever the
	// completion order.
	found := make([]*Device, len(paths))
	probe := func(i int) {
		d := c.Device(paths[i])
		if err := d.Load(); err != nil {
			c.log.Debug("owfs: dropping device", "path", paths[i], "err", err)
			return
		}
		if opts.Matches(d) {
			found[i] = d
		}
	}
	if opts.Workers < 2 {
		for i := range paths {
			probe(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i := range paths {
			g.Go(func() error {
				probe(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]*Device, 0, len(found))
	for _, d := range found {
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// devicePath returns the device path for a root listing entry, and false if
// the entry is not a device directory. Device directories start with an
// uppercase hex digit and end with a slash.
func devicePath(entry string) (string, bool) {
	if entry == "" || !isHexDigit(entry[0]) {
		return "", false
	}
	p, ok := strings.CutSuffix(entry, "/")
	if !ok {
		return "", false
	}
	return p, true
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'F')
}

func contains(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
