// Package ipfilter restricts HTTP endpoints to an allow-list of client networks
package ipfilter

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// Filter holds the allowed client networks and the proxies whose
// forwarding headers are honored
type Filter struct {
	prefixes []netip.Prefix
	trusted  []netip.Prefix
	logger   *slog.Logger
}

// New builds a filter from IPs and CIDRs. Invalid entries are logged and
// ignored. An empty allowed list allows every client. X-Forwarded-For and
// X-Real-IP are read only when the connecting peer is in trustedProxies.
func New(allowed, trustedProxies []string, logger *slog.Logger) *Filter {
	return &Filter{
		prefixes: parsePrefixes(allowed, "allowed_ips", logger),
		trusted:  parsePrefixes(trustedProxies, "trusted_proxies", logger),
		logger:   logger,
	}
}

func parsePrefixes(entries []string, field string, logger *slog.Logger) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn("invalid CIDR in "+field, "cidr", entry, "error", err)
				continue
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("invalid IP in "+field, "ip", entry, "error", err)
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Enabled reports whether any network is configured
func (f *Filter) Enabled() bool {
	return len(f.prefixes) > 0
}

// Count returns the number of allowed networks
func (f *Filter) Count() int {
	return len(f.prefixes)
}

// IsAllowed reports whether addr may connect
func (f *Filter) IsAllowed(addr netip.Addr) bool {
	if !f.Enabled() {
		return true
	}
	return containsAddr(f.prefixes, addr)
}

// IsTrustedProxy reports whether addr is a configured trusted proxy
func (f *Filter) IsTrustedProxy(addr netip.Addr) bool {
	return containsAddr(f.trusted, addr)
}

// ClientAddr returns the client address of r. The TCP peer is used unless it
// is a trusted proxy, in which case X-Forwarded-For is walked from the right
// to the first untrusted hop, falling back to X-Real-IP.
func (f *Filter) ClientAddr(r *http.Request) (netip.Addr, bool) {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok || !f.IsTrustedProxy(peer) {
		return peer, ok
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !f.IsTrustedProxy(addr) || i == 0 {
				return addr, true
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr, true
		}
	}

	return peer, true
}

func peerAddr(remote string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr(), true
	}
	addr, err := netip.ParseAddr(remote)
	return addr, err == nil
}

// Middleware rejects requests from clients outside the allow-list
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		addr, ok := f.ClientAddr(r)
		if !ok {
			f.logger.Warn("could not parse client IP", "remote_addr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if !f.IsAllowed(addr) {
			f.logger.Warn("access denied by IP filter", "ip", addr.String(), "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
