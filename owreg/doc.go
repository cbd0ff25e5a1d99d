// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package owreg defines a registry of bus accessors keyed by the scheme of a
// connection string.
//
// Accessor packages register themselves on import:
//
//	import _ "github.com/GermanBionicSystems/owfs/owserver"
//
//	c, err := owreg.Open("localhost:4304")
//
// A connection string is "scheme://target". Without a scheme the target is an
// owserver address.
package owreg
