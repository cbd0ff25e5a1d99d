// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owbus

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/GermanBionicSystems/owfs"
	"periph.io/x/conn/v3/onewire"
)

// Opts contains options to pass to the constructor.
type Opts struct {
	// Resolution is the number of bits, 9 to 12, used by the "temperature"
	// attribute and by simultaneous conversions.
	Resolution int `yaml:"resolution"`
	// Logger receives bus events. A nil Logger discards them.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Resolution: 12,
}

// New returns an accessor serving the owfs namespace of b.
//
// The bus is not searched until the namespace is first read.
func New(b onewire.Bus, opts *Opts) (*Bus, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Resolution < 9 || opts.Resolution > 12 {
		return nil, errors.New("owbus: invalid resolution")
	}
	l := opts.Logger
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{bus: b, opts: *opts, log: l}, nil
}

// Bus implements owfs.Accessor on top of a onewire.Bus.
//
// Bus is safe for concurrent use; bus transactions are serialized.
type Bus struct {
	bus    onewire.Bus
	opts   Opts
	log    *slog.Logger
	closer io.Closer // closed along with the Bus, if set

	mu       sync.Mutex
	devices  []rom // result of the last search
	searched bool
	stats    [len(statNames)]uint64
	closed   bool
}

func (b *Bus) String() string {
	return "owbus(" + b.bus.String() + ")"
}

// Read implements owfs.Accessor.
func (b *Bus) Read(path string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, owfs.ErrClosed
	}
	b.stats[statReads]++
	v, err := b.readLocked(path)
	if err != nil {
		b.stats[statErrors]++
		return nil, err
	}
	return v, nil
}

// Write implements owfs.Accessor.
func (b *Bus) Write(path string, data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, owfs.ErrClosed
	}
	b.stats[statWrites]++
	if err := b.writeLocked(path, string(data)); err != nil {
		b.stats[statErrors]++
		return 0, err
	}
	return len(data), nil
}

// Close implements owfs.Accessor.
//
// It closes the underlying bus when it was opened through the "i2c" scheme.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

//

// Top level directories beside the devices.
const (
	dirAlarm        = "alarm"
	dirSimultaneous = "simultaneous"
	dirStatistics   = "statistics"
	dirUncached     = "uncached"
)

const (
	statErrors = iota
	statReads
	statSearches
	statWrites
)

var statNames = [...]string{"errors", "reads", "searches", "writes"}

// Attributes of every device.
var romAttrs = []string{"address", "crc8", "family", "id", "r_address", "r_id", "type"}

// Additional attributes of thermometers.
var thermAttrs = []string{"latesttemp", "temperature", "temperature10", "temperature11", "temperature12", "temperature9", "temphigh", "templow"}

// split returns the elements of path and whether it goes through uncached/.
func split(path string) ([]string, bool) {
	p := strings.Trim(path, "/")
	if p == "" {
		return nil, false
	}
	parts := strings.Split(p, "/")
	if parts[0] == dirUncached {
		return parts[1:], true
	}
	return parts, false
}

func (b *Bus) readLocked(path string) ([]byte, error) {
	parts, fresh := split(path)
	if len(parts) == 0 {
		devs, err := b.devicesLocked("read", path, fresh)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(devs)+4)
		for _, r := range devs {
			names = append(names, r.name()+"/")
		}
		names = append(names, dirAlarm+"/", dirSimultaneous+"/", dirStatistics+"/")
		if !fresh {
			names = append(names, dirUncached+"/")
		}
		return listing(names), nil
	}

	switch parts[0] {
	case dirAlarm:
		if len(parts) == 1 {
			b.stats[statSearches]++
			addrs, err := b.bus.Search(true)
			if err != nil {
				return nil, busFailure("read", path, err)
			}
			names := make([]string, 0, len(addrs))
			for _, a := range addrs {
				names = append(names, rom(a).name()+"/")
			}
			return listing(names), nil
		}
		parts = parts[1:]
	case dirStatistics:
		switch len(parts) {
		case 1:
			return listing(statNames[:]), nil
		case 2:
			for i, n := range statNames {
				if n == parts[1] {
					return fmt.Appendf(nil, "%12d", b.stats[i]), nil
				}
			}
		}
		return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
	case dirSimultaneous:
		switch {
		case len(parts) == 1:
			return []byte("temperature"), nil
		case len(parts) == 2 && parts[1] == "temperature":
			return fmt.Appendf(nil, "%12d", 0), nil
		}
		return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
	}

	r, err := b.findLocked("read", path, parts[0], fresh)
	if err != nil {
		return nil, err
	}
	switch len(parts) {
	case 1:
		names := append([]string(nil), romAttrs...)
		if r.isThermometer() {
			names = append(names, thermAttrs...)
		}
		sort.Strings(names)
		return listing(names), nil
	case 2:
		return b.readAttr(r, path, parts[1])
	}
	return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
}

func (b *Bus) readAttr(r rom, path, attr string) ([]byte, error) {
	switch attr {
	case "address":
		return []byte(r.address()), nil
	case "crc8":
		return fmt.Appendf(nil, "%02X", r.at(7)), nil
	case "family":
		return fmt.Appendf(nil, "%02X", r.family()), nil
	case "id":
		return []byte(r.id()), nil
	case "r_address":
		return []byte(r.raddress()), nil
	case "r_id":
		return []byte(r.rid()), nil
	case "type":
		return []byte(r.typ()), nil
	}
	if !r.isThermometer() {
		return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
	}
	t := newThermometer(b.bus, r)
	switch attr {
	case "temperature", "temperature9", "temperature10", "temperature11", "temperature12":
		bits := b.opts.Resolution
		if s := strings.TrimPrefix(attr, "temperature"); s != "" {
			bits, _ = strconv.Atoi(s)
		}
		c, err := t.convert(bits)
		if err != nil {
			return nil, busFailure("read", path, err)
		}
		return fmt.Appendf(nil, "%12g", c.Celsius()), nil
	case "latesttemp":
		c, err := t.lastTemp()
		if err != nil {
			return nil, busFailure("read", path, err)
		}
		return fmt.Appendf(nil, "%12g", c.Celsius()), nil
	case "temphigh", "templow":
		high, low, err := t.alarms()
		if err != nil {
			return nil, busFailure("read", path, err)
		}
		if attr == "temphigh" {
			return fmt.Appendf(nil, "%12d", high), nil
		}
		return fmt.Appendf(nil, "%12d", low), nil
	}
	return nil, owfs.NewAccessError("read", path, owfs.CodeNotFound)
}

func (b *Bus) writeLocked(path, data string) error {
	parts, fresh := split(path)
	if len(parts) == 0 {
		return owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
	}
	switch parts[0] {
	case dirAlarm:
		if len(parts) == 1 {
			return owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
		}
		parts = parts[1:]
	case dirStatistics:
		if len(parts) == 1 {
			return owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
		}
		return owfs.NewAccessError("write", path, owfs.CodeAccess)
	case dirSimultaneous:
		switch {
		case len(parts) == 1:
			return owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
		case len(parts) != 2 || parts[1] != "temperature":
			return owfs.NewAccessError("write", path, owfs.CodeNotFound)
		}
		if strings.TrimSpace(data) != "1" {
			return owfs.NewAccessError("write", path, owfs.CodeInvalid)
		}
		b.log.Debug("owbus: simultaneous conversion", "bus", b.bus.String(), "bits", b.opts.Resolution)
		if err := convertAll(b.bus, b.opts.Resolution); err != nil {
			return busFailure("write", path, err)
		}
		return nil
	}

	r, err := b.findLocked("write", path, parts[0], fresh)
	if err != nil {
		return err
	}
	switch len(parts) {
	case 1:
		return owfs.NewAccessError("write", path, owfs.CodeIsDirectory)
	case 2:
	default:
		return owfs.NewAccessError("write", path, owfs.CodeNotFound)
	}
	attr := parts[1]
	if r.isThermometer() && (attr == "temphigh" || attr == "templow") {
		v, err := strconv.ParseInt(strings.TrimSpace(data), 10, 8)
		if err != nil {
			return &owfs.AccessError{Op: "write", Path: path, Code: owfs.CodeInvalid, Err: err}
		}
		if err := newThermometer(b.bus, r).setAlarm(attr == "temphigh", int8(v)); err != nil {
			return busFailure("write", path, err)
		}
		return nil
	}
	if has(romAttrs, attr) || (r.isThermometer() && has(thermAttrs, attr)) {
		return owfs.NewAccessError("write", path, owfs.CodeAccess)
	}
	return owfs.NewAccessError("write", path, owfs.CodeNotFound)
}

// devicesLocked returns the devices on the bus, searching it when fresh is
// set or when it was never searched.
func (b *Bus) devicesLocked(op, path string, fresh bool) ([]rom, error) {
	if fresh || !b.searched {
		b.stats[statSearches]++
		addrs, err := b.bus.Search(false)
		if err != nil {
			return nil, busFailure(op, path, err)
		}
		b.devices = b.devices[:0]
		for _, a := range addrs {
			b.devices = append(b.devices, rom(a))
		}
		b.searched = true
		b.log.Debug("owbus: searched", "bus", b.bus.String(), "devices", len(b.devices))
	}
	return b.devices, nil
}

// findLocked resolves a device directory name.
func (b *Bus) findLocked(op, path, name string, fresh bool) (rom, error) {
	devs, err := b.devicesLocked(op, path, fresh)
	if err != nil {
		return 0, err
	}
	for _, r := range devs {
		if r.name() == name {
			return r, nil
		}
	}
	return 0, owfs.NewAccessError(op, path, owfs.CodeNotFound)
}

func busFailure(op, path string, err error) error {
	return &owfs.AccessError{Op: op, Path: path, Code: owfs.CodeIO, Err: err}
}

func listing(names []string) []byte {
	return []byte(strings.Join(names, ","))
}

func has(l []string, s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

var _ owfs.Accessor = &Bus{}
