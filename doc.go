// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package owfs gives access to the devices of a 1-Wire bus exposed as a
// filesystem-like namespace, the one served by OWFS.
//
// Every device is a directory named after its ROM address, e.g.
// "10.67C6697351FF", and every attribute of the device (temperature, type,
// family, ...) is a leaf underneath it. Directory reads return a comma
// separated listing in which sub-directories carry a trailing slash.
//
// The namespace itself is served by an Accessor. This package only models
// devices on top of it:
//
//   - Conn is the open connection, created with New or owreg.Open and
//     released with Close.
//   - Device is one bus device. Its attribute names are loaded explicitly with
//     Load and tested with Has.
//   - ScanOptions filters devices by type and by attribute presence.
//   - Conn.Scan enumerates the bus and returns the matching devices.
//
// Accessors live in sub-packages: owserver talks to an owserver daemon over
// TCP and owbus renders a periph onewire.Bus locally.
package owfs
