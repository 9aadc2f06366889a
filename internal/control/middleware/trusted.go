// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseCIDRs parses a comma separated CIDR list. Bare IPs are accepted as /32 or /128.
func ParseCIDRs(raw string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, fmt.Errorf("invalid proxy address %q", part)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			part = fmt.Sprintf("%s/%d", part, bits)
		}
		_, n, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy CIDR %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// IsIPAllowed reports whether ip lies in one of nets.
func IsIPAllowed(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

// ClientIP returns the caller address. X-Forwarded-For is only honoured when
// the direct peer is a trusted proxy.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer := remoteIP(r)
	if peer != nil && IsIPAllowed(peer, trusted) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
	}
	if peer != nil {
		return peer.String()
	}
	return r.RemoteAddr
}

// ClientKey adapts ClientIP to a rate limit key func.
func ClientKey(trusted []*net.IPNet) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		return ClientIP(r, trusted), nil
	}
}
