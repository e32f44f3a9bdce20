package extract

import (
	"sort"
	"strings"

	"github.com/avana/avana/internal/email"
)

// MatchType tags a selected address.
type MatchType string

const (
	// TypePriority marks an address whose local part contains a keyword.
	TypePriority MatchType = "priority"
	// TypeGeneral marks any other selected address.
	TypeGeneral MatchType = "general"
)

// Entry is a selected address.
type Entry struct {
	Domain string    `json:"domain"`
	Email  string    `json:"email"`
	Type   MatchType `json:"type"`
}

// DomainReport summarizes selection for one domain.
type DomainReport struct {
	Domain   string `json:"domain"`
	Total    int    `json:"total"`
	Priority int    `json:"priority"`
	Selected int    `json:"selected"`
	Skipped  int    `json:"skipped"`
}

// Selection is the outcome of Select.
type Selection struct {
	Selected []Entry        `json:"selected"`
	Skipped  []string       `json:"skipped"`
	Domains  []DomainReport `json:"domains"`
}

// Select picks at most opts.MaxPerDomain addresses per domain, walking
// domains in first-seen order. Keyword matches come first, shortest first;
// the rest follow in lexicographic order. Skipped addresses keep the
// domain's input order.
func Select(g *Groups, opts Options) *Selection {
	opts = opts.Normalize()

	sel := &Selection{
		Selected: make([]Entry, 0),
		Skipped:  make([]string, 0),
		Domains:  make([]DomainReport, 0, len(g.Order)),
	}

	for _, domain := range g.Order {
		addrs := g.ByDomain[domain]
		priority, others := partition(addrs, opts.Keywords)

		sort.SliceStable(priority, func(i, j int) bool {
			return len(priority[i]) < len(priority[j])
		})
		sort.Strings(others)

		isPriority := make(map[string]bool, len(priority))
		for _, p := range priority {
			isPriority[p] = true
		}

		ranked := make([]string, 0, len(addrs))
		ranked = append(ranked, priority...)
		ranked = append(ranked, others...)
		if len(ranked) > opts.MaxPerDomain {
			ranked = ranked[:opts.MaxPerDomain]
		}

		chosen := make(map[string]struct{}, len(ranked))
		for _, addr := range ranked {
			chosen[addr] = struct{}{}
			typ := TypeGeneral
			if isPriority[addr] {
				typ = TypePriority
			}
			sel.Selected = append(sel.Selected, Entry{Domain: domain, Email: addr, Type: typ})
		}

		skipped := 0
		for _, addr := range addrs {
			if _, ok := chosen[addr]; !ok {
				sel.Skipped = append(sel.Skipped, addr)
				skipped++
			}
		}

		sel.Domains = append(sel.Domains, DomainReport{
			Domain:   domain,
			Total:    len(addrs),
			Priority: len(priority),
			Selected: len(ranked),
			Skipped:  skipped,
		})
	}

	return sel
}

// partition splits addrs into keyword matches and the rest. Both results are
// fresh slices so sorting never touches the group.
func partition(addrs, keywords []string) (priority, others []string) {
	priority = make([]string, 0)
	others = make([]string, 0, len(addrs))

	for _, addr := range addrs {
		if matchesKeyword(email.LocalPart(addr), keywords) {
			priority = append(priority, addr)
		} else {
			others = append(others, addr)
		}
	}
	return priority, others
}

// matchesKeyword reports whether local contains any keyword as a substring.
func matchesKeyword(local string, keywords []string) bool {
	local = strings.ToLower(local)
	for _, k := range keywords {
		if strings.Contains(local, k) {
			return true
		}
	}
	return false
}
