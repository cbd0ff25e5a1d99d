// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owserver

import (
	"github.com/GermanBionicSystems/owfs"
	"github.com/GermanBionicSystems/owfs/owreg"
)

func open(target string, cfg *owreg.Config) (owfs.Accessor, error) {
	opts := DefaultOpts
	opts.Timeout = cfg.Timeout
	opts.Persist = cfg.Persist
	l, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	opts.Logger = l
	return New(target, &opts)
}

func init() {
	if err := owreg.Register("owserver", open); err != nil {
		panic(err)
	}
}
