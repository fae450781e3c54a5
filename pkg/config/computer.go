package config

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

const (
	// SectionIDComputer is the identifier for the browser session section
	SectionIDComputer = "computer"

	defaultDebugPort   = 9222
	defaultInitialURL  = "https://www.google.com"
	defaultShowCursor  = true
	defaultAttach      = true
	defaultSettleDelay = 3 * time.Second
)

// ComputerSection holds the settings a browser session is opened with.
type ComputerSection struct {
	DebugPort   int           `json:"debug_port"`
	InitialURL  string        `json:"initial_url"`
	ShowCursor  bool          `json:"show_cursor"`
	Attach      bool          `json:"attach"`
	SettleDelay time.Duration `json:"settle_delay"`
	mu          sync.RWMutex
}

// NewComputerSection creates the section with default settings.
func NewComputerSection() *ComputerSection {
	s := &ComputerSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *ComputerSection) ID() string {
	return SectionIDComputer
}

// Title returns the section title.
func (s *ComputerSection) Title() string {
	return "Browser Session"
}

// Description returns the section description.
func (s *ComputerSection) Description() string {
	return "How pilot finds or starts the browser it controls and what it loads first."
}

// Data returns the current configuration data.
func (s *ComputerSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"debug_port":   s.DebugPort,
		"initial_url":  s.InitialURL,
		"show_cursor":  s.ShowCursor,
		"attach":       s.Attach,
		"settle_delay": s.SettleDelay.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *ComputerSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "debug_port":
			s.DebugPort, err = intValue(key, value)
		case "initial_url":
			s.InitialURL, err = stringValue(key, value)
		case "show_cursor":
			s.ShowCursor, err = boolValue(key, value)
		case "attach":
			s.Attach, err = boolValue(key, value)
		case "settle_delay":
			s.SettleDelay, err = durationValue(key, value)
		default:
			// Ignore unknown keys for forward compatibility
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *ComputerSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.DebugPort < 1 || s.DebugPort > 65535 {
		return fmt.Errorf("debug_port must be between 1 and 65535, got %d", s.DebugPort)
	}
	if s.InitialURL != "" {
		u, err := url.Parse(s.InitialURL)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("initial_url must be an absolute URL, got %q", s.InitialURL)
		}
	}
	if s.SettleDelay < 0 || s.SettleDelay > time.Minute {
		return fmt.Errorf("settle_delay must be between 0 and 1m, got %v", s.SettleDelay)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ComputerSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DebugPort = defaultDebugPort
	s.InitialURL = defaultInitialURL
	s.ShowCursor = defaultShowCursor
	s.Attach = defaultAttach
	s.SettleDelay = defaultSettleDelay
}

// ComputerSettings is a point-in-time copy of the section.
type ComputerSettings struct {
	DebugPort   int
	InitialURL  string
	ShowCursor  bool
	Attach      bool
	SettleDelay time.Duration
}

// Settings returns a consistent copy of the current values.
func (s *ComputerSection) Settings() ComputerSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ComputerSettings{
		DebugPort:   s.DebugPort,
		InitialURL:  s.InitialURL,
		ShowCursor:  s.ShowCursor,
		Attach:      s.Attach,
		SettleDelay: s.SettleDelay,
	}
}
