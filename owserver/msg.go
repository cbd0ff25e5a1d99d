// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owserver

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Message types.
const (
	msgNop      int32 = 1
	msgWrite    int32 = 3
	msgPresence int32 = 6
	msgGetSlash int32 = 10
)

// Control flags.
const (
	flagPersist uint32 = 0x00000004 // keep the connection open
	flagOwnet   uint32 = 0x00000100 // always set by clients
)

// headerLen is the size of a request or response header: six big endian
// int32.
const headerLen = 24

// pingPayload marks a keep-alive response sent while the server is busy.
const pingPayload = -1

// header is the fixed part of every message.
//
// For requests the third field is the message type, for responses it is the
// return value.
type header struct {
	Version int32
	Payload int32
	Ret     int32 // message type in requests
	Flags   uint32
	Size    int32
	Offset  int32
}

func (h *header) marshal() []byte {
	var b [headerLen]byte
	binary.BigEndian.PutUint32(b[0:], uint32(h.Version))
	binary.BigEndian.PutUint32(b[4:], uint32(h.Payload))
	binary.BigEndian.PutUint32(b[8:], uint32(h.Ret))
	binary.BigEndian.PutUint32(b[12:], h.Flags)
	binary.BigEndian.PutUint32(b[16:], uint32(h.Size))
	binary.BigEndian.PutUint32(b[20:], uint32(h.Offset))
	return b[:]
}

func (h *header) unmarshal(b []byte) {
	h.Version = int32(binary.BigEndian.Uint32(b[0:]))
	h.Payload = int32(binary.BigEndian.Uint32(b[4:]))
	h.Ret = int32(binary.BigEndian.Uint32(b[8:]))
	h.Flags = binary.BigEndian.Uint32(b[12:])
	h.Size = int32(binary.BigEndian.Uint32(b[16:]))
	h.Offset = int32(binary.BigEndian.Uint32(b[20:]))
}

// request builds the bytes of a request for path, followed by data.
func request(typ int32, flags uint32, path string, data []byte, size int) ([]byte, error) {
	n := len(path) + 1 + len(data)
	if n > math.MaxInt32 || size > math.MaxInt32 {
		return nil, fmt.Errorf("owserver: request for %q too large", path)
	}
	h := header{Payload: int32(n), Ret: typ, Flags: flags, Size: int32(size)}
	b := make([]byte, 0, headerLen+n)
	b = append(b, h.marshal()...)
	b = append(b, path...)
	b = append(b, 0)
	b = append(b, data...)
	return b, nil
}

// readResponse reads the next non-ping response and its payload.
func readResponse(r io.Reader, maxPayload int) (header, []byte, error) {
	var buf [headerLen]byte
	for {
		var h header
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return h, nil, err
		}
		h.unmarshal(buf[:])
		if h.Payload == pingPayload {
			continue
		}
		if h.Payload < 0 || int(h.Payload) > maxPayload {
			return h, nil, fmt.Errorf("owserver: invalid payload length %d", h.Payload)
		}
		p := make([]byte, h.Payload)
		if _, err := io.ReadFull(r, p); err != nil {
			return h, nil, err
		}
		return h, p, nil
	}
}
