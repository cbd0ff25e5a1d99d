// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/owfs"
)

// DefaultPort is the TCP port owserver listens on.
const DefaultPort = "4304"

// Opts contains options to pass to the constructor.
type Opts struct {
	// Timeout bounds dialing and every request round trip.
	Timeout time.Duration `yaml:"timeout"`
	// Persist asks the server to keep the TCP connection open between
	// requests. The server may refuse, in which case a connection is opened
	// per request.
	Persist bool `yaml:"persist"`
	// MaxSize is the largest payload accepted from the server.
	MaxSize int `yaml:"max_size"`
	// Logger receives connection events. A nil Logger discards them.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Timeout: 5 * time.Second,
	Persist: true,
	MaxSize: 65536,
}

// New returns a client for the owserver at addr and checks that it answers.
//
// addr is "host" or "host:port"; the port defaults to 4304.
func New(addr string, opts *Opts) (*Client, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	c := &Client{addr: withPort(addr), opts: *opts}
	if c.opts.MaxSize <= 0 {
		c.opts.MaxSize = DefaultOpts.MaxSize
	}
	c.log = c.opts.Logger
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := c.Ping(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Client is a connection to an owserver. It implements owfs.Accessor.
//
// Client is safe for concurrent use; requests are serialized.
type Client struct {
	addr string
	opts Opts
	log  *slog.Logger

	mu     sync.Mutex
	conn   net.Conn // open persistent connection, if any
	closed bool
}

func (c *Client) String() string {
	return "owserver(" + c.addr + ")"
}

// Read implements owfs.Accessor.
//
// Directory listings are returned with names relative to path, directories
// ending with a slash, e.g. "10.67C6697351FF/,statistics/".
func (c *Client) Read(path string) ([]byte, error) {
	p := absolute(path)
	h, data, err := c.do(msgGetSlash, p, nil, c.opts.MaxSize)
	if err != nil {
		return nil, err
	}
	if h.Ret < 0 {
		return nil, owfs.NewAccessError("read", path, int(h.Ret))
	}
	if h.Size >= 0 && int(h.Size) <= len(data) {
		data = data[:h.Size]
	} else if n := len(data); n != 0 && data[n-1] == 0 {
		// No usable size, drop the terminator only.
		data = data[:n-1]
	}
	if l, ok := relativeListing(p, data); ok {
		return l, nil
	}
	return data, nil
}

// Write implements owfs.Accessor.
//
// owserver only reports success or failure, so on success the whole of data
// is reported as written.
func (c *Client) Write(path string, data []byte) (int, error) {
	h, _, err := c.do(msgWrite, absolute(path), data, len(data))
	if err != nil {
		return 0, err
	}
	if h.Ret < 0 {
		return 0, owfs.NewAccessError("write", path, int(h.Ret))
	}
	return len(data), nil
}

// Present reports whether path exists on the bus.
func (c *Client) Present(path string) (bool, error) {
	h, _, err := c.do(msgPresence, absolute(path), nil, 0)
	if err != nil {
		return false, err
	}
	switch {
	case h.Ret >= 0:
		return true, nil
	case h.Ret == owfs.CodeNotFound:
		return false, nil
	default:
		return false, owfs.NewAccessError("presence", path, int(h.Ret))
	}
}

// Ping sends a no-op request.
func (c *Client) Ping() error {
	h, _, err := c.do(msgNop, "/", nil, 0)
	if err != nil {
		return err
	}
	if h.Ret < 0 {
		return owfs.NewAccessError("nop", "/", int(h.Ret))
	}
	return nil
}

// Close implements owfs.Accessor.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.dropLocked()
}

// do sends one request and returns the response. The connection is kept only
// when persistence was both requested and granted.
func (c *Client) do(typ int32, path string, data []byte, size int) (header, []byte, error) {
	flags := flagOwnet
	if c.opts.Persist {
		flags |= flagPersist
	}
	req, err := request(typ, flags, path, data, size)
	if err != nil {
		return header{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return header{}, nil, owfs.ErrClosed
	}
	conn, err := c.connLocked()
	if err != nil {
		return header{}, nil, err
	}
	if c.opts.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.opts.Timeout)); err != nil {
			c.dropLocked()
			return header{}, nil, err
		}
	}
	if _, err := conn.Write(req); err != nil {
		c.dropLocked()
		return header{}, nil, fmt.Errorf("owserver: %s: %w", c.addr, err)
	}
	h, p, err := readResponse(conn, c.opts.MaxSize)
	if err != nil {
		c.dropLocked()
		return header{}, nil, fmt.Errorf("owserver: %s: %w", c.addr, err)
	}
	if h.Flags&flagPersist == 0 {
		c.dropLocked()
	}
	return h, p, nil
}

func (c *Client) connLocked() (net.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	d := net.Dialer{Timeout: c.opts.Timeout}
	conn, err := d.Dial("tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("owserver: %w", err)
	}
	c.log.Debug("owserver: connected", "addr", c.addr)
	c.conn = conn
	return conn, nil
}

func (c *Client) dropLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// relativeListing rewrites a listing of the directory dir, made of absolute
// paths, into base names, keeping the trailing slash of directories. It
// returns false when some entry is not a child of dir, i.e. data is a value.
func relativeListing(dir string, data []byte) ([]byte, bool) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	if len(data) == 0 {
		return nil, false
	}
	entries := strings.Split(string(data), ",")
	for i, e := range entries {
		rest, ok := strings.CutPrefix(e, prefix)
		if !ok {
			return nil, false
		}
		name, isDir := strings.CutSuffix(rest, "/")
		if name == "" || strings.Contains(name, "/") {
			return nil, false
		}
		if isDir {
			name += "/"
		}
		entries[i] = name
	}
	return []byte(strings.Join(entries, ",")), true
}

func absolute(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

func withPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), DefaultPort)
}

var _ owfs.Accessor = &Client{}
