package extract

import "github.com/avana/avana/internal/email"

// Groups holds addresses bucketed by domain.
type Groups struct {
	// Order lists domains in the order they were first seen.
	Order []string
	// ByDomain maps a domain to its addresses in input order.
	ByDomain map[string][]string
}

// Group buckets addresses by the domain after their first '@'.
// Entries that cannot be split are ignored.
func Group(addresses []string) *Groups {
	g := &Groups{
		Order:    make([]string, 0),
		ByDomain: make(map[string][]string),
	}

	for _, addr := range addresses {
		_, domain, ok := email.SplitAddress(addr)
		if !ok {
			continue
		}
		if _, exists := g.ByDomain[domain]; !exists {
			g.Order = append(g.Order, domain)
		}
		g.ByDomain[domain] = append(g.ByDomain[domain], addr)
	}

	return g
}
