// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package owfstest is meant to be used to test drivers and programs built on
// package owfs without a bus.
//
// Playback replays a recorded sequence of reads and writes, Record records
// the traffic of another Accessor and Tree serves a static namespace.
package owfstest
