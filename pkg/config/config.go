package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	manager, err := Load(configPath)
	if err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Load builds a manager with pilot's sections and fills them from configPath.
func Load(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewComputerSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewBlocklistSection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetComputer returns the browser session section from global config.
// Returns nil if config is not initialized.
func GetComputer() *ComputerSection {
	if !IsInitialized() {
		return nil
	}
	return ComputerOf(Global())
}

// GetBlocklist returns the blocklist section from global config.
// Returns nil if config is not initialized.
func GetBlocklist() *BlocklistSection {
	if !IsInitialized() {
		return nil
	}
	return BlocklistOf(Global())
}

// ComputerOf returns m's browser session section, or nil if it has none.
func ComputerOf(m *Manager) *ComputerSection {
	section, ok := m.GetSection(SectionIDComputer)
	if !ok {
		return nil
	}
	computer, _ := section.(*ComputerSection)
	return computer
}

// BlocklistOf returns m's blocklist section, or nil if it has none.
func BlocklistOf(m *Manager) *BlocklistSection {
	section, ok := m.GetSection(SectionIDBlocklist)
	if !ok {
		return nil
	}
	bl, _ := section.(*BlocklistSection)
	return bl
}

// IsURLBlocked checks a URL against the configured blocklist.
// Returns false if config is not initialized or the blocklist is invalid.
func IsURLBlocked(rawURL string) bool {
	bl := GetBlocklist()
	if bl == nil {
		return false
	}
	policy, err := bl.Policy()
	if err != nil {
		return false
	}
	return policy.IsBlocked(rawURL)
}
