// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owbus

import (
	"time"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/physic"
)

// Thermometer function commands, datasheet p.11.
const (
	cmdConvert         = 0x44
	cmdReadScratchpad  = 0xbe
	cmdWriteScratchpad = 0x4e
	cmdCopyScratchpad  = 0x48
	cmdSkipROM         = 0xcc
)

// thermometer drives a DS18x20 style device.
type thermometer struct {
	dev    onewire.Dev
	family byte
}

func newThermometer(b onewire.Bus, r rom) *thermometer {
	return &thermometer{dev: onewire.Dev{Bus: b, Addr: onewire.Address(r)}, family: r.family()}
}

// convertAll starts a conversion on every thermometer on the bus and waits
// for the slowest one, given the highest resolution in use.
func convertAll(b onewire.Bus, maxResolutionBits int) error {
	if err := b.Tx([]byte{cmdSkipROM, cmdConvert}, nil, onewire.StrongPullup); err != nil {
		return err
	}
	conversionSleep(maxResolutionBits)
	return nil
}

// convert performs a conversion at the requested resolution and returns the
// result.
//
// The resolution is changed in the configuration register only, leaving the
// alarm thresholds untouched and the EEPROM unmodified. The DS18S20 has a
// fixed 9 bit resolution extended in software, bits is ignored for it.
func (t *thermometer) convert(bits int) (physic.Temperature, error) {
	spad, err := t.readScratchpad()
	if err != nil {
		return 0, err
	}
	if t.family == familyDS18S20 {
		bits = 12
	} else if int(spad[4]>>5)&3 != bits-9 {
		w := []byte{cmdWriteScratchpad, spad[2], spad[3], byte((bits-9)<<5) | 0x1f}
		if err := t.dev.Tx(w, nil); err != nil {
			return 0, err
		}
	}
	if err := t.dev.TxPower([]byte{cmdConvert}, nil); err != nil {
		return 0, err
	}
	conversionSleep(bits)
	return t.lastTemp()
}

// lastTemp reads the temperature resulting from the last conversion.
func (t *thermometer) lastTemp() (physic.Temperature, error) {
	spad, err := t.readScratchpad()
	if err != nil {
		return 0, err
	}
	c := parseTemperature(t.family, spad)

	// The device powers up with a value of 85°C, so if we read that odds are
	// very high that either no conversion was performed or that the conversion
	// failed due to lack of power.
	if c == 85*physic.Celsius+physic.ZeroCelsius {
		return 0, busError("owbus: thermometer has not performed a temperature conversion (insufficient pull-up?)")
	}
	return c, nil
}

// alarms returns the TH and TL thresholds in °C.
func (t *thermometer) alarms() (high, low int8, err error) {
	spad, err := t.readScratchpad()
	if err != nil {
		return 0, 0, err
	}
	return int8(spad[2]), int8(spad[3]), nil
}

// setAlarm changes one alarm threshold and copies the scratchpad to EEPROM.
func (t *thermometer) setAlarm(high bool, v int8) error {
	spad, err := t.readScratchpad()
	if err != nil {
		return err
	}
	th, tl := spad[2], spad[3]
	if high {
		th = byte(v)
	} else {
		tl = byte(v)
	}
	w := []byte{cmdWriteScratchpad, th, tl}
	if t.family != familyDS18S20 {
		// The DS18S20 has no configuration register.
		w = append(w, spad[4])
	}
	if err := t.dev.Tx(w, nil); err != nil {
		return err
	}
	if err := t.dev.TxPower([]byte{cmdCopyScratchpad}, nil); err != nil {
		return err
	}
	// Wait for the EEPROM write to complete.
	sleep(10 * time.Millisecond)
	return nil
}

// readScratchpad reads the 9 bytes of scratchpad and checks the CRC.
// It returns the 8 bytes of scratchpad data (excluding the CRC byte).
func (t *thermometer) readScratchpad() ([]byte, error) {
	var spad [9]byte
	if err := t.dev.Tx([]byte{cmdReadScratchpad}, spad[:]); err != nil {
		return nil, err
	}
	if !onewire.CheckCRC(spad[:]) {
		for _, s := range spad {
			if s != 0xff {
				return nil, busError("owbus: incorrect scratchpad CRC")
			}
		}
		return nil, busError("owbus: device did not respond")
	}
	return spad[:8], nil
}

// parseTemperature decodes the scratchpad temperature, using the extended
// resolution formula of the DS18S20.
func parseTemperature(family byte, spad []byte) physic.Temperature {
	// spad[1] is MSB and spad[0] is LSB of the raw temperature value.
	raw := int16(spad[1])<<8 | int16(spad[0])
	if family == familyDS18S20 && spad[7] != 0 {
		// TEMPERATURE = TEMP_READ - 0.25 + (COUNT_PER_C - COUNT_REMAIN) / COUNT_PER_C
		// with COUNT_PER_C = spad[7] = 16 and COUNT_REMAIN = spad[6], computed
		// in 1/16 °C after dropping the 0.5°C bit.
		raw = ((raw & int16(-2)) << 3) + 12 - int16(spad[6])
	}
	// raw has 4 fractional bits. Datasheet p.4.
	v := physic.Temperature(raw)
	return v*physic.Kelvin/16 + physic.ZeroCelsius
}

// conversionSleep sleeps for the time a conversion takes, which depends
// on the resolution:
// 9bits:94ms, 10bits:188ms, 11bits:376ms, 12bits:752ms, datasheet p.6.
func conversionSleep(bits int) {
	sleep((94 << uint(bits-9)) * time.Millisecond)
}

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }

var sleep = time.Sleep

var _ onewire.BusError = busError("")
