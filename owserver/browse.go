// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owserver

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service announced by owserver.
const (
	ServiceType = "_owserver._tcp"
	Domain      = "local."
)

// Service is an owserver instance found by Browse.
type Service struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string
}

// Addr returns an address that can be passed to New, preferring the first
// resolved IP address over the host name.
func (s *Service) Addr() string {
	host := s.Host
	if len(s.Addresses) != 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

func (s *Service) String() string {
	return fmt.Sprintf("%s{%s}", s.Instance, s.Addr())
}

// Browse looks for owserver instances until ctx is done.
//
// Each instance is sent once, with the addresses known at that time. iface
// restricts the query to one network interface when not empty.
func Browse(ctx context.Context, iface string) (<-chan *Service, error) {
	var opts []zeroconf.ClientOption
	if iface != "" {
		i, err := net.InterfaceByName(iface)
		if err != nil {
			return nil, fmt.Errorf("owserver: %w", err)
		}
		opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*i}))
	}

	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		seen := map[string]bool{}
		gone := removed
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if seen[e.Instance] {
					continue
				}
				seen[e.Instance] = true
				s := newService(e.Instance, e.HostName, e.Port, e.AddrIPv4, e.AddrIPv6)
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			case e, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				delete(seen, e.Instance)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

func newService(instance, host string, port int, v4, v6 []net.IP) *Service {
	s := &Service{Instance: instance, Host: host, Port: uint16(port)}
	for _, ip := range v4 {
		s.Addresses = append(s.Addresses, ip.String())
	}
	for _, ip := range v6 {
		s.Addresses = append(s.Addresses, ip.String())
	}
	return s
}
