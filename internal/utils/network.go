package utils

import (
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strings"
)

// NetmaskToCIDR converts a netmask to CIDR notation.
// Example: "255.255.255.0" -> 24
func NetmaskToCIDR(netmask string) (int, error) {
	ip := net.ParseIP(netmask)
	if ip == nil {
		return 0, fmt.Errorf("invalid netmask: %s", netmask)
	}

	mask := net.IPMask(ip.To4())
	if mask == nil {
		return 0, fmt.Errorf("invalid IPv4 netmask: %s", netmask)
	}

	ones, _ := mask.Size()
	return ones, nil
}

// CIDRToNetmask converts CIDR notation to netmask.
// Example: 24 -> "255.255.255.0"
func CIDRToNetmask(cidr int) (string, error) {
	if cidr < 0 || cidr > 32 {
		return "", fmt.Errorf("invalid CIDR: %d (must be 0-32)", cidr)
	}

	mask := net.CIDRMask(cidr, 32)
	return net.IP(mask).String(), nil
}

// ValidateIPv4 validates an IPv4 address.
func ValidateIPv4(ip string) error {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return fmt.Errorf("invalid IP address: %s", ip)
	}

	if parsed.To4() == nil {
		return fmt.Errorf("not an IPv4 address: %s", ip)
	}

	return nil
}

var hostnameRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateHost accepts an IPv4 address or an RFC 1123 hostname.
func ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("host is empty")
	}
	if ValidateIPv4(host) == nil {
		return nil
	}
	if len(host) > 253 || !hostnameRE.MatchString(host) || isAllNumericDots(host) {
		return fmt.Errorf("invalid host: %s", host)
	}
	return nil
}

func isAllNumericDots(s string) bool {
	for _, c := range s {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// ValidateCIDR checks an IPv4 prefix such as "192.168.1.0/24". A dotted
// netmask ("192.168.1.0/255.255.255.0") is accepted too.
func ValidateCIDR(cidr string) (netip.Prefix, error) {
	cidr = strings.TrimSpace(cidr)
	if addr, mask, ok := strings.Cut(cidr, "/"); ok && strings.Contains(mask, ".") {
		bits, err := NetmaskToCIDR(mask)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		cidr = fmt.Sprintf("%s/%d", addr, bits)
	}
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("not an IPv4 CIDR: %s", cidr)
	}
	return p.Masked(), nil
}

// HostsInCIDR returns the number of usable host addresses in an IPv4 prefix.
func HostsInCIDR(p netip.Prefix) int {
	bits := 32 - p.Bits()
	switch bits {
	case 0:
		return 1
	case 1:
		return 2
	}
	return (1 << bits) - 2
}

// DescribeCIDR renders p with its netmask and host count, e.g.
// "192.168.1.0/24 (255.255.255.0, 254 hosts)".
func DescribeCIDR(p netip.Prefix) string {
	mask, err := CIDRToNetmask(p.Bits())
	if err != nil {
		return p.String()
	}
	return fmt.Sprintf("%s (%s, %d hosts)", p, mask, HostsInCIDR(p))
}

// PrefixContains reports whether ip lies inside p.
func PrefixContains(p netip.Prefix, ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return p.Contains(a)
}
