// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfs

import (
	"sort"
	"strconv"
	"strings"
)

// Device is a record for one device on the bus.
//
// A Device starts unloaded: it knows its path but not the names of its
// attributes. Load fetches them. A loaded device without attributes is
// different from an unloaded one, see Loaded.
//
// Device is not safe for concurrent use.
type Device struct {
	c      *Conn
	path   string
	loaded bool
	attrs  map[string]struct{}
}

// Path returns the device path in the bus namespace, e.g. "10.67C6697351FF".
func (d *Device) Path() string {
	return d.path
}

func (d *Device) String() string {
	return d.path
}

// Load reads the device directory and replaces the set of attribute names.
//
// Sub-directories of the device are not attributes and are skipped. On error
// the previous state is kept.
func (d *Device) Load() error {
	data, err := d.c.Get(d.path)
	if err != nil {
		return err
	}
	attrs := map[string]struct{}{}
	for _, e := range strings.Split(data, ",") {
		if e == "" || strings.HasSuffix(e, "/") {
			continue
		}
		attrs[e] = struct{}{}
	}
	d.attrs = attrs
	d.loaded = true
	return nil
}

// Loaded reports whether Load succeeded at least once.
func (d *Device) Loaded() bool {
	return d.loaded
}

// Attrs returns the attribute names found by the last Load, sorted. It returns
// an empty slice when the device was never loaded.
func (d *Device) Attrs() []string {
	out := make([]string, 0, len(d.attrs))
	for a := range d.attrs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the device has the attribute name. It is always false
// for an unloaded device.
func (d *Device) Has(name string) bool {
	_, ok := d.attrs[name]
	return ok
}

// Get reads the attribute attr of the device.
func (d *Device) Get(attr string) (string, error) {
	return d.c.Get(d.attrPath(attr))
}

// GetBytes reads the attribute attr of the device as raw bytes.
func (d *Device) GetBytes(attr string) ([]byte, error) {
	return d.c.GetBytes(d.attrPath(attr))
}

// Set writes value to the attribute attr of the device.
func (d *Device) Set(attr, value string) error {
	return d.c.Set(d.attrPath(attr), value)
}

// SetBytes writes value to the attribute attr of the device.
func (d *Device) SetBytes(attr string, value []byte) error {
	return d.c.SetBytes(d.attrPath(attr), value)
}

// Info reads the type and family of the device.
//
// Only a failure to read "type" is returned. When "family" cannot be read or
// is not a number, the family is reported as unknown.
func (d *Device) Info() (Info, error) {
	t, err := d.Get("type")
	if err != nil {
		return Info{}, err
	}
	i := Info{typ: t}
	if f, err := d.Get("family"); err == nil {
		if v, err := strconv.ParseUint(f, 10, 32); err == nil {
			i.family = uint32(v)
			i.hasFamily = true
		}
	}
	return i, nil
}

func (d *Device) attrPath(attr string) string {
	return d.path + "/" + attr
}

// Info is a snapshot of the declared type and family code of a device.
type Info struct {
	typ       string
	family    uint32
	hasFamily bool
}

// Type returns the device type, e.g. "DS18B20".
func (i Info) Type() string {
	return i.typ
}

// Family returns the family code and whether it is known.
func (i Info) Family() (uint32, bool) {
	return i.family, i.hasFamily
}

func (i Info) String() string {
	if !i.hasFamily {
		return i.typ + "{family:unknown}"
	}
	return i.typ + "{family:" + strconv.FormatUint(uint64(i.family), 10) + "}"
}
