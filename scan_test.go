// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owfs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/owfs"
	"github.com/GermanBionicSystems/owfs/owfstest"
)

func paths(devs []*owfs.Device) []string {
	out := make([]string, 0, len(devs))
	for _, d := range devs {
		out = append(out, d.Path())
	}
	return out
}

func loaded(t *testing.T, listing string) *owfs.Device {
	p := &owfstest.Playback{Ops: []owfstest.IO{{Path: "dev", Data: []byte(listing)}}}
	d := owfs.New(p, nil).Device("dev")
	if err := d.Load(); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestScanOptions_Matches_attrs(t *testing.T) {
	for _, tc := range []struct {
		name    string
		opts    owfs.ScanOptions
		listing string
		want    bool
	}{
		{"no predicate", owfs.ScanOptions{}, "a", true},
		{"all present", owfs.ScanOptions{AttrsAll: []string{"a", "b"}}, "a,b,c", true},
		{"all missing one", owfs.ScanOptions{AttrsAll: []string{"a", "b"}}, "a,c", false},
		{"all empty list", owfs.ScanOptions{AttrsAll: []string{}}, "", true},
		{"any one present", owfs.ScanOptions{AttrsAny: []string{"x", "y"}}, "y", true},
		{"any none present", owfs.ScanOptions{AttrsAny: []string{"x", "y"}}, "", false},
		{"any empty list", owfs.ScanOptions{AttrsAny: []string{}}, "a", false},
		{"all and any", owfs.ScanOptions{AttrsAll: []string{"a"}, AttrsAny: []string{"x", "b"}}, "a,b", true},
		{"all and any fails any", owfs.ScanOptions{AttrsAll: []string{"a"}, AttrsAny: []string{"x"}}, "a,b", false},
		{"directory is not an attribute", owfs.ScanOptions{AttrsAny: []string{"pages"}}, "pages/,type", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.opts.Matches(loaded(t, tc.listing)); got != tc.want {
				t.Fatalf("Matches() = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestScanOptions_Matches_unloaded(t *testing.T) {
	d := owfs.New(&owfstest.Playback{}, nil).Device("10.67C6697351FF")
	if (&owfs.ScanOptions{AttrsAll: []string{"type"}}).Matches(d) {
		t.Fatal("AttrsAll must reject an unloaded device")
	}
	if (&owfs.ScanOptions{AttrsAny: []string{"type"}}).Matches(d) {
		t.Fatal("AttrsAny must reject an unloaded device")
	}
	if !(&owfs.ScanOptions{}).Matches(d) {
		t.Fatal("empty options must accept an unloaded device")
	}
}

func TestScanOptions_Matches_types(t *testing.T) {
	p := &owfstest.Playback{Ops: []owfstest.IO{
		{Path: "10.67C6697351FF/type", Data: []byte("DS18S20")},
		{Path: "10.67C6697351FF/type", Data: []byte("DS18S20")},
		{Path: "10.67C6697351FF/type", Code: owfs.CodeIO},
	}}
	d := owfs.New(p, nil).Device("10.67C6697351FF")
	if !(&owfs.ScanOptions{Types: []string{"DS18B20", "DS18S20"}}).Matches(d) {
		t.Fatal("expected type match")
	}
	if (&owfs.ScanOptions{Types: []string{"DS18B20"}}).Matches(d) {
		t.Fatal("unexpected type match")
	}
	if (&owfs.ScanOptions{Types: []string{"DS18S20"}}).Matches(d) {
		t.Fatal("failed type read must reject")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestScan_candidates(t *testing.T) {
	p := &owfstest.Playback{Ops: []owfstest.IO{
		{Path: "/uncached/", Data: []byte("10.AAAA/,statistics/,1F.BBBB/,settings,d1.CCCC/,bus.0/")},
		{Path: "10.AAAA", Data: []byte("type,family")},
		{Path: "1F.BBBB", Data: []byte("type,main/,aux/")},
	}}
	c := owfs.New(p, nil)
	devs, err := c.Scan(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paths(devs), []string{"10.AAAA", "1F.BBBB"}); diff != "" {
		t.Fatalf("Scan() mismatch (-got +want):\n%s", diff)
	}
	for _, d := range devs {
		if !d.Loaded() {
			t.Fatalf("%s returned unloaded", d)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestScan_dropsFailedLoad(t *testing.T) {
	p := &owfstest.Playback{Ops: []owfstest.IO{
		{Path: "/uncached/", Data: []byte("10.AAAA/,28.BBBB/,28.CCCC/")},
		{Path: "10.AAAA", Data: []byte("type")},
		{Path: "28.BBBB", Code: owfs.CodeNotFound},
		{Path: "28.CCCC", Data: []byte("type,temperature")},
	}}
	devs, err := owfs.New(p, nil).Scan(&owfs.ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paths(devs), []string{"10.AAAA", "28.CCCC"}); diff != "" {
		t.Fatalf("Scan() mismatch (-got +want):\n%s", diff)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestScan_rootFailure(t *testing.T) {
	p := &owfstest.Playback{Ops: []owfstest.IO{
		{Path: "/uncached/", Code: owfs.CodeIO},
	}}
	devs, err := owfs.New(p, nil).Scan(nil)
	var ae *owfs.AccessError
	if !errors.As(err, &ae) || ae.Code != owfs.CodeIO {
		t.Fatalf("expected AccessError, got %v", err)
	}
	if devs != nil {
		t.Fatalf("expected no devices, got %v", devs)
	}
}

func TestScan_filter(t *testing.T) {
	p := &owfstest.Playback{Ops: []owfstest.IO{
		{Path: "/uncached/", Data: []byte("10.AAAA/,28.BBBB/,29.CCCC/")},
		{Path: "10.AAAA", Data: []byte("type,temperature")},
		{Path: "10.AAAA/type", Data: []byte("DS18S20")},
		{Path: "28.BBBB", Data: []byte("type,temperature,latesttemp")},
		{Path: "28.BBBB/type", Data: []byte("DS18B20")},
		{Path: "29.CCCC", Data: []byte("type,PIO.ALL")},
		{Path: "29.CCCC/type", Data: []byte("DS2408")},
	}}
	devs, err := owfs.New(p, nil).Scan(&owfs.ScanOptions{
		Types:    []string{"DS18S20", "DS18B20"},
		AttrsAll: []string{"temperature"},
		AttrsAny: []string{"latesttemp", "power"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paths(devs), []string{"28.BBBB"}); diff != "" {
		t.Fatalf("Scan() mismatch (-got +want):\n%s", diff)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestScan_workers(t *testing.T) {
	files := map[string]string{}
	var want []string
	for i := 0; i < 32; i++ {
		dev := fmt.Sprintf("28.%012X", i)
		files[dev+"/type"] = "DS18B20"
		if i%3 == 0 {
			files[dev+"/temperature"] = "21.5"
			want = append(want, dev)
		}
	}
	files["statistics/reads"] = "0"
	tree := &owfstest.Tree{Files: files, Fail: map[string]int{"28.000000000006": owfs.CodeIO}}
	want = append(want[:2], want[3:]...)

	c := owfs.New(tree, nil)
	seq, err := c.Scan(&owfs.ScanOptions{AttrsAll: []string{"temperature"}})
	if err != nil {
		t.Fatal(err)
	}
	par, err := c.Scan(&owfs.ScanOptions{AttrsAll: []string{"temperature"}, Workers: 8})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paths(seq), want); diff != "" {
		t.Fatalf("sequential Scan() mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(paths(par), want); diff != "" {
		t.Fatalf("parallel Scan() mismatch (-got +want):\n%s", diff)
	}
}

func TestAlarms(t *testing.T) {
	tree := &owfstest.Tree{Files: map[string]string{
		"10.AAAA/type":             "DS18S20",
		"28.BBBB/type":             "DS18B20",
		"alarm/28.BBBB/type":       "DS18B20",
		"statistics/searches":      "1",
		"simultaneous/temperature": "0",
	}}
	devs, err := owfs.New(tree, nil).Alarms(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paths(devs), []string{"28.BBBB"}); diff != "" {
		t.Fatalf("Alarms() mismatch (-got +want):\n%s", diff)
	}
}
