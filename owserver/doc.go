// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package owserver implements owfs.Accessor over the owserver network
// protocol.
//
// owserver is the OWFS daemon that owns the physical bus masters and serves
// the bus namespace on TCP port 4304. Every request carries a path; reads
// return either the value of an attribute or the listing of a directory.
//
// Importing this package registers the "owserver" scheme in owreg, which is
// also used for connection strings without a scheme such as
// "localhost:4304".
//
// Browse finds owserver instances announced over mDNS.
//
// **Protocol:** https://owfs.org/index_php_page_owserver-protocol.html
package owserver
