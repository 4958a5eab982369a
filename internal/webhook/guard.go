// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"syscall"
)

// ErrBlockedTarget is returned for webhook URLs that resolve to internal addresses.
var ErrBlockedTarget = errors.New("webhook: target address is not allowed")

// Resolver is the subset of [net.Resolver] used by [TargetGuard].
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// TargetGuard rejects webhook targets on loopback, private, link-local and
// unspecified networks unless AllowPrivate is set.
type TargetGuard struct {
	AllowPrivate bool
	Resolver     Resolver
}

// Check validates rawURL. Hostnames are resolved and every address must be public.
func (guard TargetGuard) Check(ctx context.Context, rawURL string) error {
	if guard.AllowPrivate {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("webhook: invalid url: %w", err)
	}
	host := parsed.Hostname()

	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(addr)
	}

	resolver := guard.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("webhook: cannot resolve %q: %w", host, err)
	}
	for _, addr := range addrs {
		if err := checkAddr(addr); err != nil {
			return err
		}
	}
	return nil
}

// dialControl enforces the same rule on the address actually dialled.
func (guard TargetGuard) dialControl(_, address string, _ syscall.RawConn) error {
	if guard.AllowPrivate {
		return nil
	}
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return ErrBlockedTarget
	}
	return checkAddr(addrPort.Addr())
}

func checkAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified() || addr.IsMulticast() {
		return ErrBlockedTarget
	}
	return nil
}
