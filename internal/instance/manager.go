// SPDX-License-Identifier: MPL-2.0

package instance

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/saveloc/saveloc/pkg/savepattern"
)

// Manager tracks the active instance and keeps a savepattern.Registry in
// step with it.
type Manager struct {
	registry *savepattern.Registry
	logger   *log.Logger

	mu     sync.Mutex
	active *Layout
}

// NewManager creates a Manager that publishes root maps to registry. A nil
// registry gets a fresh one; a nil logger discards output.
func NewManager(registry *savepattern.Registry, logger *log.Logger) *Manager {
	if registry == nil {
		registry = &savepattern.Registry{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{registry: registry, logger: logger}
}

// Registry returns the registry the manager publishes to.
func (m *Manager) Registry() *savepattern.Registry { return m.registry }

// Activate validates l and makes it the active instance. On error the
// previously active instance stays in effect.
func (m *Manager) Activate(l Layout) error {
	roots, err := l.RootMap()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = &l
	m.registry.Activate(roots)
	m.logger.Debug("instance activated", "instance", l.Name(), "drive_c", l.DriveC())
	return nil
}

// Deactivate clears the active instance. Resolution fails with
// savepattern.ErrNoActiveInstance until the next Activate.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.logger.Debug("instance deactivated", "instance", m.active.Name())
	}
	m.active = nil
	m.registry.Deactivate()
}

// Active returns the active layout.
func (m *Manager) Active() (Layout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Layout{}, false
	}
	return *m.active, true
}
