package extract

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinMaxPerDomain is the smallest accepted per-domain cap.
	MinMaxPerDomain = 1
	// MaxMaxPerDomain is the largest accepted per-domain cap.
	MaxMaxPerDomain = 200
	// DefaultMaxPerDomain is used when no cap is configured.
	DefaultMaxPerDomain = 5
)

// DefaultKeywords are the role keywords used when none are configured.
var DefaultKeywords = []string{"ceo", "founder", "cto", "cfo", "president", "director", "lead", "manager", "vp"}

// ErrInvalidMaxPerDomain is returned when the per-domain cap is out of range.
var ErrInvalidMaxPerDomain = errors.New("max per domain out of range")

// Options configures a selection run.
type Options struct {
	MaxPerDomain int
	Keywords     []string
}

// DefaultOptions returns options with the default cap and keywords.
func DefaultOptions() Options {
	return Options{
		MaxPerDomain: DefaultMaxPerDomain,
		Keywords:     append([]string(nil), DefaultKeywords...),
	}
}

// Validate checks that MaxPerDomain is within [MinMaxPerDomain, MaxMaxPerDomain].
func (o Options) Validate() error {
	if o.MaxPerDomain < MinMaxPerDomain || o.MaxPerDomain > MaxMaxPerDomain {
		return fmt.Errorf("%w: %d (must be between %d and %d)",
			ErrInvalidMaxPerDomain, o.MaxPerDomain, MinMaxPerDomain, MaxMaxPerDomain)
	}
	return nil
}

// Normalize returns a copy with the cap clamped into range and keywords
// trimmed, lower-cased and deduplicated. Empty keywords are dropped.
func (o Options) Normalize() Options {
	n := Options{MaxPerDomain: o.MaxPerDomain}

	switch {
	case n.MaxPerDomain < MinMaxPerDomain:
		n.MaxPerDomain = MinMaxPerDomain
	case n.MaxPerDomain > MaxMaxPerDomain:
		n.MaxPerDomain = MaxMaxPerDomain
	}

	n.Keywords = normalizeKeywords(o.Keywords)
	return n
}

// ParseKeywords splits a comma separated keyword list.
// "CEO, founder,,cto" yields [ceo founder cto].
func ParseKeywords(raw string) []string {
	return normalizeKeywords(strings.Split(raw, ","))
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
