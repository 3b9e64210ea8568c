// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

/*
Package ticksource defines the capability a free-running counter must provide to be
measured by the frequency test, and a registry that binds a configured selector to a
concrete counter.
*/
package ticksource

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// TickSource is a free-running counter clocked by the CPU clock through a prescaler.
type TickSource interface {
	// Start begins counting at cpu/prescaler. The counter wraps to 0 after period and
	// calls onOverflow once per wrap. onOverflow must not block.
	Start(prescaler uint32, period uint16, onOverflow func()) error
	// Count returns the current raw counter value.
	Count() uint16
}

// OverflowMasker is implemented by tick sources that can hold off overflow
// notifications. Wraps that happen while masked are delivered on unmask.
type OverflowMasker interface {
	MaskOverflow()
	UnmaskOverflow()
}

// CountResetter is implemented by tick sources whose count can be cleared while
// they run. ReadAndResetCount returns the count and clears it in one step. The
// wraps raised while overflow notifications were masked are returned with it and
// withdrawn, so they are never delivered into the window that starts at 0.
type CountResetter interface {
	ReadAndResetCount() (count uint16, wraps uint64)
}

// Factory creates a tick source instance.
type Factory func() (TickSource, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register binds name to factory. Registering the same name twice replaces the
// earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		slog.Warn("replacing tick source", slog.String("name", name))
	}
	registry[name] = factory
}

// Registered reports whether a tick source named name exists.
func Registered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Names returns the registered selectors, sorted.
func Names() []string {
	registryMu.RLock()
	names := mapset.NewSetFromMapKeys(registry).ToSlice()
	registryMu.RUnlock()
	slices.Sort(names)
	return names
}

// Open creates the tick source registered as name.
func Open(name string) (TickSource, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no tick source named %q, available: %v", name, Names())
	}
	return factory()
}
