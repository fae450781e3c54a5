// Package blocklist decides whether outgoing browser requests may reach the network.
//
// A Policy holds an immutable set of domain entries. A plain entry blocks its exact
// host and every proper subdomain of it, so "ads.example.com" blocks
// "cdn.ads.example.com" but never "notads.example.com". Entries that contain glob
// metacharacters are matched label-wise with gobwas/glob ("*.tracker.net").
//
// Hosts are compared in their lowercased ASCII (punycode) form so that Unicode and
// encoded spellings of the same domain are treated alike.
package blocklist

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/idna"
)

// Decision is the outcome of checking a single request URL.
type Decision int

const (
	// Allow lets the request continue unmodified.
	Allow Decision = iota
	// Abort stops the request before it reaches the network.
	Abort
)

func (d Decision) String() string {
	if d == Abort {
		return "abort"
	}
	return "continue"
}

const globMeta = "*?[{"

// hostProfile is the lookup profile without the STD3 hostname restriction, so
// hosts such as "my_box.internal" are compared instead of being rejected.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

// Policy is a compiled, read-only blocklist. A nil *Policy allows everything.
type Policy struct {
	domains    map[string]struct{}
	patterns   []glob.Glob
	entries    []string
	failClosed bool
}

// Option configures a Policy.
type Option func(*Policy)

// WithFailClosed makes URLs that cannot be parsed count as blocked.
// By default they are allowed.
func WithFailClosed() Option {
	return func(p *Policy) {
		p.failClosed = true
	}
}

// New compiles the given entries into a Policy.
func New(entries []string, opts ...Option) (*Policy, error) {
	p := &Policy{
		domains: make(map[string]struct{}, len(entries)),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, raw := range entries {
		entry := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), ".")
		if entry == "" {
			return nil, fmt.Errorf("blocklist entry at index %d is empty", i)
		}

		if strings.ContainsAny(entry, globMeta) {
			g, err := glob.Compile(entry, '.')
			if err != nil {
				return nil, fmt.Errorf("invalid blocklist pattern '%s': %w", raw, err)
			}
			p.patterns = append(p.patterns, g)
			p.entries = append(p.entries, entry)
			continue
		}

		host, err := hostProfile.ToASCII(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid blocklist domain '%s': %w", raw, err)
		}
		p.domains[host] = struct{}{}
		p.entries = append(p.entries, host)
	}

	return p, nil
}

// MustNew is like New but panics on an invalid entry.
func MustNew(entries []string, opts ...Option) *Policy {
	p, err := New(entries, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Entries returns the normalized entries in configuration order.
func (p *Policy) Entries() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.entries))
	copy(out, p.entries)
	return out
}

// FailClosed reports whether malformed URLs are treated as blocked.
func (p *Policy) FailClosed() bool {
	return p != nil && p.failClosed
}

// IsBlocked reports whether a request to rawURL must be aborted.
func (p *Policy) IsBlocked(rawURL string) bool {
	return p.Decide(rawURL) == Abort
}

// Decide classifies rawURL. It never panics, whatever the input.
func (p *Policy) Decide(rawURL string) Decision {
	if p == nil {
		return Allow
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return p.malformed()
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		// about:blank, data: and friends never leave the browser
		return Allow
	}

	ascii := host
	if net.ParseIP(host) == nil {
		ascii, err = hostProfile.ToASCII(host)
		if err != nil {
			return p.malformed()
		}
	}

	if p.matchHost(ascii) {
		return Abort
	}
	return Allow
}

func (p *Policy) malformed() Decision {
	if p.failClosed {
		return Abort
	}
	return Allow
}

// matchHost walks host and each of its parent domains against the exact entries,
// then tries the glob patterns against the full host.
func (p *Policy) matchHost(host string) bool {
	for candidate := host; candidate != ""; {
		if _, ok := p.domains[candidate]; ok {
			return true
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}

	for _, g := range p.patterns {
		if g.Match(host) {
			return true
		}
	}
	return false
}
