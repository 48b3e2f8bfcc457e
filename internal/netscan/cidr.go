package netscan

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// ExpandCIDR expands IPv4 CIDR notation into the list of usable host
// addresses. Network and broadcast addresses are excluded, so a /24
// yields 254 hosts and a /30 yields 2. A /31 yields both addresses and
// a /32 yields the single address.
func ExpandCIDR(cidr string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidCIDR, cidr)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %q is not IPv4", errs.ErrInvalidCIDR, cidr)
	}

	ones, bits := ipnet.Mask.Size()
	switch {
	case ones == bits: // /32
		return []string{ip4.String()}, nil
	case ones == bits-1: // /31, point-to-point: no network/broadcast
		base := ipnet.IP.To4()
		second := cloneIP(base)
		incIP(second)
		return []string{base.String(), second.String()}, nil
	}

	hosts := make([]string, 0, 1<<(bits-ones))
	for addr := cloneIP(ipnet.IP.To4()); ipnet.Contains(addr); incIP(addr) {
		hosts = append(hosts, addr.String())
	}
	if len(hosts) <= 2 {
		return nil, nil
	}
	// drop network and broadcast
	return hosts[1 : len(hosts)-1], nil
}

// ExpandTarget resolves a scan target into concrete addresses. CIDR blocks
// are expanded; bare IPs and hostnames pass through as a single entry.
func ExpandTarget(target string) ([]string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errs.ErrEmptyTarget
	}
	if strings.Contains(target, "/") {
		return ExpandCIDR(target)
	}
	if ip := net.ParseIP(target); ip != nil {
		return []string{ip.String()}, nil
	}
	// hostname: minimal syntax check, resolution happens at probe time
	if strings.ContainsAny(target, " \t") {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidTarget, target)
	}
	return []string{target}, nil
}

// ParsePortSpec parses a port specification of comma-separated ports and
// ranges, e.g. "22,80,1000-2000", into a sorted list of unique ports.
func ParsePortSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty specification", errs.ErrInvalidPortSpec)
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty element in %q", errs.ErrInvalidPortSpec, spec)
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parsePort(lo)
			if err != nil {
				return nil, err
			}
			end, err := parsePort(hi)
			if err != nil {
				return nil, err
			}
			if start > end {
				return nil, fmt.Errorf("%w: range %q is inverted", errs.ErrInvalidPortSpec, part)
			}
			for p := start; p <= end; p++ {
				seen[p] = struct{}{}
			}
			continue
		}
		p, err := parsePort(part)
		if err != nil {
			return nil, err
		}
		seen[p] = struct{}{}
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidPortSpec, s)
	}
	return p, nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}
