// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owreg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/owfs"
	"github.com/GermanBionicSystems/owfs/owfstest"
)

func TestOpen(t *testing.T) {
	var gotTarget string
	var gotCfg Config
	tree := &owfstest.Tree{Files: map[string]string{"10.67C6697351FF/type": "DS18S20"}}
	require.NoError(t, Register("fake", func(target string, cfg *Config) (owfs.Accessor, error) {
		gotTarget = target
		gotCfg = *cfg
		return tree, nil
	}))
	defer Unregister("fake")

	c, err := Open("fake://bus.0")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "bus.0", gotTarget)
	assert.Equal(t, DefaultConfig.Timeout, gotCfg.Timeout)

	devs, err := c.Scan(nil)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "10.67C6697351FF", devs[0].Path())
}

func TestOpen_errors(t *testing.T) {
	_, err := Open("nope://x")
	assert.Error(t, err)

	boom := errors.New("boom")
	require.NoError(t, Register("broken", func(string, *Config) (owfs.Accessor, error) {
		return nil, boom
	}))
	defer Unregister("broken")
	_, err = Open("broken://x")
	assert.ErrorIs(t, err, boom)
}

func TestRegister(t *testing.T) {
	o := func(string, *Config) (owfs.Accessor, error) { return &owfstest.Tree{}, nil }
	assert.Error(t, Register("", o))
	assert.Error(t, Register("a://b", o))
	assert.Error(t, Register("nilopener", nil))
	require.NoError(t, Register("twice", o))
	assert.Error(t, Register("twice", o))
	assert.Contains(t, Schemes(), "twice")
	require.NoError(t, Unregister("twice"))
	assert.Error(t, Unregister("twice"))
	assert.NotContains(t, Schemes(), "twice")
}

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		in, scheme, target string
	}{
		{"localhost:4304", "owserver", "localhost:4304"},
		{"owserver://pi:4304", "owserver", "pi:4304"},
		{"i2c://1?addr=0x18", "i2c", "1?addr=0x18"},
	} {
		s, tg := split(tc.in)
		assert.Equal(t, tc.scheme, s, tc.in)
		assert.Equal(t, tc.target, tg, tc.in)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
connection: "i2c://1?addr=0x18"
timeout: 250ms
resolution: 10
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "i2c://1?addr=0x18", cfg.Connection)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 10, cfg.Resolution)
	assert.True(t, cfg.Persist, "unset fields keep their default")
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLoadConfig_empty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, *cfg)
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestLoadConfig_invalid(t *testing.T) {
	for _, in := range []string{
		"resolution: 13",
		"timeout: -1s",
		"connection: ''",
		"log_level: loud",
		"timeout: [",
	} {
		_, err := LoadConfig(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestLoadConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "owfs.yaml")
	require.NoError(t, os.WriteFile(p, []byte("connection: pi.local\npersist: false\n"), 0o600))
	cfg, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, "pi.local", cfg.Connection)
	assert.False(t, cfg.Persist)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
