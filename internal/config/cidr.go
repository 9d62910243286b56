package config

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// ParseIPv4Prefix parses an IPv4 CIDR block and rejects host bits being set.
func ParseIPv4Prefix(cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("only IPv4 CIDRs are supported, got %s", cidr)
	}
	if p.Masked() != p {
		return netip.Prefix{}, fmt.Errorf("CIDR %s has host bits set, expected %s", cidr, p.Masked())
	}
	return p, nil
}

// CIDRSubnet calculates a subnet address given a network address, a netmask size increase, and a subnet number.
// This mimics the behavior of Terraform's cidrsubnet function.
//
// Parameters:
//   - prefix: The network prefix (e.g., "10.0.0.0/16")
//   - newbits: The number of additional bits to add to the prefix length (e.g., 8 for /24 inside /16)
//   - netnum: The zero-based index of the subnet to calculate
func CIDRSubnet(prefix string, newbits int, netnum int) (string, error) {
	network, err := ParseIPv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	if newbits < 0 {
		return "", fmt.Errorf("prefix extension must not be negative, got %d", newbits)
	}

	newMaskSize := network.Bits() + newbits
	if newMaskSize > 32 {
		return "", fmt.Errorf("prefix extension of %d bits is too large for %s", newbits, prefix)
	}

	maxSubnets := uint64(1) << newbits
	if netnum < 0 || uint64(netnum) >= maxSubnets {
		return "", fmt.Errorf("subnet number %d exceeds max subnets %d", netnum, maxSubnets)
	}

	base := addrToUint(network.Addr())
	subnetSize := uint64(1) << (32 - newMaskSize)
	addr := uintToAddr(base + uint64(netnum)*subnetSize)

	return netip.PrefixFrom(addr, newMaskSize).String(), nil
}

func addrToUint(a netip.Addr) uint64 {
	b := a.As4()
	return uint64(binary.BigEndian.Uint32(b[:]))
}

func uintToAddr(v uint64) netip.Addr {
	var b [4]byte
	// #nosec G115
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return netip.AddrFrom4(b)
}
