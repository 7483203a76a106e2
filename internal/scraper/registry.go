// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scraper

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a plugin instance from the shared runtime deps.
type Factory func(deps Deps) Plugin

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a plugin factory under its source_type name. Called from
// plugin package init functions; registering the same name twice panics
// because it is always a programming error.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("scraper: plugin %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the plugin registered under name.
func New(name string, deps Deps) (Plugin, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("scraper: unknown plugin %q", name)
	}
	return factory(deps), nil
}

// Registered returns the sorted names of all registered plugins.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
