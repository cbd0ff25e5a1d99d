// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfstest_test

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/owfs"
	"github.com/GermanBionicSystems/owfs/owfstest"
	"github.com/google/go-cmp/cmp"
)

func TestRecord_replay(t *testing.T) {
	tree := &owfstest.Tree{Files: map[string]string{
		"28.AC410E070000/type":     "DS18B20",
		"28.AC410E070000/temphigh": "85",
	}}
	r := &owfstest.Record{Accessor: tree}
	c := owfs.New(r, nil)
	devs, err := c.Scan(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 1 {
		t.Fatalf("unexpected devices %v", devs)
	}
	if err := devs[0].Set("temphigh", "30"); err != nil {
		t.Fatal(err)
	}
	if _, err := devs[0].Get("temperature"); err == nil {
		t.Fatal("expected missing attribute")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	want := []owfstest.IO{
		{Path: "/uncached/", Data: []byte("28.AC410E070000/")},
		{Path: "28.AC410E070000", Data: []byte("temphigh,type")},
		{Path: "28.AC410E070000/temphigh", Write: true, Data: []byte("30")},
		{Path: "28.AC410E070000/temperature", Code: owfs.CodeNotFound},
	}
	if diff := cmp.Diff(want, r.Ops); diff != "" {
		t.Fatalf("recorded ops (-want +got):\n%s", diff)
	}

	// The recording drives the same flow without the tree.
	p := &owfstest.Playback{Ops: r.Ops}
	c = owfs.New(p, nil)
	devs, err = c.Scan(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(devs) != 1 || devs[0].Path() != "28.AC410E070000" {
		t.Fatalf("unexpected devices %v", devs)
	}
	if diff := cmp.Diff([]string{"temphigh", "type"}, devs[0].Attrs()); diff != "" {
		t.Fatalf("Attrs() (-want +got):\n%s", diff)
	}
	if err := devs[0].Set("temphigh", "30"); err != nil {
		t.Fatal(err)
	}
	_, err = devs[0].Get("temperature")
	var ae *owfs.AccessError
	if !errors.As(err, &ae) || ae.Code != owfs.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
