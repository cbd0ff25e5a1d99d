// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package owbus serves the owfs namespace from a 1-Wire bus driven by periph,
// without an owserver daemon.
//
// Any onewire.Bus works, typically a DS2482 or DS2483 I²C bridge from
// periph.io/x/devices/v3/ds248x. Importing this package registers the "i2c"
// scheme in owreg:
//
//	i2c://<bus name>?addr=0x18
//
// The bus name is passed to i2creg.Open, so host.Init must have been called.
//
// The namespace contains:
//
//   - one directory per device, named "FF.IIIIIIIIIIII" after its family code
//     and serial number
//   - alarm/, the devices answering an alarm search
//   - simultaneous/temperature, writing 1 starts a conversion on every
//     thermometer at once
//   - statistics/, request counters
//   - uncached/, the same namespace but searching the bus again
//
// Thermometers (DS18S20, DS1822, DS18B20, DS1825, DS28EA00) expose
// temperature, temperature9 to temperature12, latesttemp, temphigh and
// templow.
package owbus
