// Package ipset provides immutable address sets parsed from CIDR list text.
// A Set never changes after Parse, so concurrent reads need no locking.
package ipset

import (
	"fmt"
	"net/netip"
	"strings"
)

// Set is an immutable collection of address prefixes.
type Set struct {
	prefixes []netip.Prefix
}

// Parse builds a Set from comma-separated CIDR text. Brackets around the
// whole list are accepted ("[232.0.0.0/8,233.0.0.0/8]") and bare addresses
// parse as single-address prefixes.
func Parse(text string) (*Set, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if strings.TrimSpace(trimmed) == "" {
		return nil, fmt.Errorf("ipset: empty set literal %q", text)
	}

	parts := strings.Split(trimmed, ",")
	prefixes := make([]netip.Prefix, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("ipset: empty entry in %q", text)
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("ipset: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("ipset: %w", err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	return &Set{prefixes: prefixes}, nil
}

// MustParse is Parse that panics on error, for fixed literals.
func MustParse(text string) *Set {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Contains reports whether addr falls inside any prefix of the set. Prefixes
// only match addresses of their own family.
func (s *Set) Contains(addr netip.Addr) bool {
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Len returns the number of prefixes in the set.
func (s *Set) Len() int {
	return len(s.prefixes)
}

// String renders the set back to its bracketed literal form.
func (s *Set) String() string {
	parts := make([]string, len(s.prefixes))
	for i, p := range s.prefixes {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}
