// oreon/defense · watchthelight <wtl>

package rules

import (
	"net/netip"
	"strings"
)

// nonPublic lists the IANA special-purpose ranges treated as private or
// reserved. Loopback and multicast are checked through netip.
var nonPublic = mustPrefixes(
	// IPv4
	"0.0.0.0/8",
	"10.0.0.0/8",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.0.0.0/29",
	"192.0.0.170/31",
	"192.0.2.0/24",
	"192.168.0.0/16",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"240.0.0.0/4",
	"255.255.255.255/32",

	// IPv6 private
	"::1/128",
	"::/128",
	"100::/64",
	"2001::/23",
	"2001:db8::/32",
	"2001:10::/28",
	"fc00::/7",
	"fe80::/10",

	// IPv6 reserved: everything outside global unicast, ULA, link-local,
	// site-local and multicast.
	"::/8",
	"100::/8",
	"200::/7",
	"400::/6",
	"800::/5",
	"1000::/4",
	"4000::/3",
	"6000::/3",
	"8000::/3",
	"a000::/3",
	"c000::/3",
	"e000::/4",
	"f000::/5",
	"f800::/6",
	"fe00::/9",
)

// IsPublic reports whether ip parses and lies outside private, loopback,
// reserved and multicast space. Malformed input is not public.
func IsPublic(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.WithZone("").Unmap()

	if addr.IsLoopback() || addr.IsMulticast() || addr.IsPrivate() || addr.IsUnspecified() {
		return false
	}
	for _, p := range nonPublic {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		out[i] = netip.MustParsePrefix(c)
	}
	return out
}
