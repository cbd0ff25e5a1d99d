// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owbus

import (
	"fmt"

	"periph.io/x/conn/v3/onewire"
)

// Family codes of the supported thermometers.
const (
	familyDS18S20  = 0x10
	familyDS1822   = 0x22
	familyDS18B20  = 0x28
	familyDS1825   = 0x3B
	familyDS28EA00 = 0x42
)

// familyNames maps family codes to the value of the "type" attribute.
var familyNames = map[byte]string{
	0x01:           "DS2401",
	0x05:           "DS2405",
	familyDS18S20:  "DS18S20",
	0x12:           "DS2406",
	0x1D:           "DS2423",
	0x1F:           "DS2409",
	0x20:           "DS2450",
	familyDS1822:   "DS1822",
	0x23:           "DS2433",
	0x26:           "DS2438",
	familyDS18B20:  "DS18B20",
	0x29:           "DS2408",
	0x2D:           "DS2431",
	0x3A:           "DS2413",
	familyDS1825:   "DS1825",
	familyDS28EA00: "DS28EA00",
}

// rom gives access to the bytes of a ROM address: the family code, six serial
// number bytes and the CRC, in bus order.
type rom onewire.Address

func (r rom) at(i int) byte {
	return byte(uint64(r) >> (8 * uint(i)))
}

func (r rom) family() byte {
	return r.at(0)
}

// name is the directory name of the device, e.g. "28.AC410E070000".
func (r rom) name() string {
	return fmt.Sprintf("%02X.%s", r.family(), r.id())
}

func (r rom) id() string {
	return r.hex(1, 7)
}

func (r rom) rid() string {
	return r.rhex(1, 7)
}

func (r rom) address() string {
	return r.hex(0, 8)
}

func (r rom) raddress() string {
	return r.rhex(0, 8)
}

func (r rom) typ() string {
	if n, ok := familyNames[r.family()]; ok {
		return n
	}
	return "unknown"
}

func (r rom) isThermometer() bool {
	switch r.family() {
	case familyDS18S20, familyDS1822, familyDS18B20, familyDS1825, familyDS28EA00:
		return true
	}
	return false
}

func (r rom) hex(from, to int) string {
	var b []byte
	for i := from; i < to; i++ {
		b = fmt.Appendf(b, "%02X", r.at(i))
	}
	return string(b)
}

func (r rom) rhex(from, to int) string {
	var b []byte
	for i := to - 1; i >= from; i-- {
		b = fmt.Appendf(b, "%02X", r.at(i))
	}
	return string(b)
}
