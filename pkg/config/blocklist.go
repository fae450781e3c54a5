package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/pilot/pkg/security/blocklist"
)

// SectionIDBlocklist is the identifier for the request blocklist section
const SectionIDBlocklist = "blocklist"

// DefaultBlockedDomains are blocked when nothing else is configured.
var DefaultBlockedDomains = []string{
	"maliciousbook.com",
	"evilvideos.com",
	"darkwebforum.com",
	"shadytrades.com",
	"suspiciouslinks.net",
	"skamsite.com",
}

// BlocklistSection lists the domains whose requests the browser must never make.
type BlocklistSection struct {
	domains    []string
	failClosed bool
	mu         sync.RWMutex
}

// NewBlocklistSection creates the section with the default domains.
func NewBlocklistSection() *BlocklistSection {
	s := &BlocklistSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BlocklistSection) ID() string {
	return SectionIDBlocklist
}

// Title returns the section title.
func (s *BlocklistSection) Title() string {
	return "Request Blocklist"
}

// Description returns the section description.
func (s *BlocklistSection) Description() string {
	return "Requests to these domains and their subdomains are aborted. Entries may use * wildcards per label."
}

// Data returns the current configuration data.
func (s *BlocklistSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make([]interface{}, len(s.domains))
	for i, d := range s.domains {
		domains[i] = d
	}
	return map[string]interface{}{
		"domains":     domains,
		"fail_closed": s.failClosed,
	}
}

// SetData updates the configuration from the provided data.
func (s *BlocklistSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := data["domains"]; ok {
		domains, err := stringsValue("domains", value)
		if err != nil {
			return err
		}
		s.domains = domains
	}
	if value, ok := data["fail_closed"]; ok {
		failClosed, err := boolValue("fail_closed", value)
		if err != nil {
			return err
		}
		s.failClosed = failClosed
	}
	return nil
}

// Validate compiles the entries so bad patterns are caught before saving.
func (s *BlocklistSection) Validate() error {
	_, err := s.Policy()
	return err
}

// Reset resets the section to default configuration.
func (s *BlocklistSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains = append([]string(nil), DefaultBlockedDomains...)
	s.failClosed = false
}

// Policy compiles the configured entries.
func (s *BlocklistSection) Policy() (*blocklist.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var opts []blocklist.Option
	if s.failClosed {
		opts = append(opts, blocklist.WithFailClosed())
	}
	return blocklist.New(s.domains, opts...)
}

// GetDomains returns a copy of the configured entries.
func (s *BlocklistSection) GetDomains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.domains...)
}

// FailClosed reports whether unparseable URLs are blocked.
func (s *BlocklistSection) FailClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failClosed
}

// SetFailClosed sets whether unparseable URLs are blocked.
func (s *BlocklistSection) SetFailClosed(failClosed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failClosed = failClosed
}

// AddDomain appends an entry unless it is already present.
func (s *BlocklistSection) AddDomain(domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if _, err := blocklist.New([]string{domain}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.domains {
		if strings.EqualFold(d, domain) {
			return fmt.Errorf("domain '%s' already exists", domain)
		}
	}
	s.domains = append(s.domains, domain)
	return nil
}

// RemoveDomain deletes an entry.
func (s *BlocklistSection) RemoveDomain(domain string) error {
	domain = strings.TrimSpace(domain)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.domains {
		if strings.EqualFold(d, domain) {
			s.domains = append(s.domains[:i], s.domains[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("domain '%s' not found", domain)
}
