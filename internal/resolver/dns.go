// oreon/defense · watchthelight <wtl>

package resolver

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultTimeout bounds a single reverse lookup.
const DefaultTimeout = 2 * time.Second

// DNS performs PTR lookups against the system resolver or a fixed server.
type DNS struct {
	server   string
	timeout  time.Duration
	resolver *net.Resolver
}

// NewDNS creates a reverse-DNS client. An empty server uses the system
// configuration; otherwise queries go to server ("host:port").
// A non-positive timeout falls back to DefaultTimeout.
func NewDNS(server string, timeout time.Duration) *DNS {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &DNS{
		server:   server,
		timeout:  timeout,
		resolver: net.DefaultResolver,
	}
	if server != "" {
		d.resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				dialer := net.Dialer{Timeout: timeout}
				return dialer.DialContext(ctx, network, server)
			},
		}
	}
	return d
}

// Server returns the configured nameserver, or "" for the system resolver.
func (d *DNS) Server() string {
	return d.server
}

// LookupAddr returns the PTR names for ip within the configured timeout.
func (d *DNS) LookupAddr(ctx context.Context, ip string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	names, err := d.resolver.LookupAddr(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("reverse lookup %s: %w", ip, err)
	}
	return names, nil
}
