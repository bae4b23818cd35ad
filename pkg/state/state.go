// Package state holds the update cadence: how often a run should look for a
// newly published menu.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/korjavin/mealwatch/pkg/logger"
	"github.com/korjavin/mealwatch/pkg/storage"
)

// Mode is the polling cadence
type Mode string

const (
	// ModeWeekly only attempts an update on the trigger day
	ModeWeekly Mode = "weekly"
	// ModeDaily attempts an update on every run
	ModeDaily Mode = "daily"
)

// CadenceKey is the storage record holding the cadence
const CadenceKey = "cadence"

// Cadence is the persisted cadence record
type Cadence struct {
	Mode Mode `json:"mode"`
}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeWeekly || m == ModeDaily
}

// ShouldAttempt reports whether a run in this mode tries to fetch a new menu
func ShouldAttempt(mode Mode, isTriggerDay bool) bool {
	return mode == ModeDaily || isTriggerDay
}

// Step is the cadence transition. It returns the next mode and whether an
// update was attempted; changed is ignored when no attempt is made.
//
// A weekly trigger day with no new menu switches to daily polling until the
// menu shows up; a change seen in daily mode returns to weekly.
func Step(mode Mode, changed, isTriggerDay bool) (Mode, bool) {
	if !mode.Valid() {
		mode = ModeWeekly
	}
	if !ShouldAttempt(mode, isTriggerDay) {
		return mode, false
	}
	switch mode {
	case ModeWeekly:
		if !changed {
			return ModeDaily, true
		}
	case ModeDaily:
		if changed {
			return ModeWeekly, true
		}
	}
	return mode, true
}

// Manager loads and saves the cadence record
type Manager struct {
	store  *storage.Store
	logger *logger.Logger
	mu     sync.Mutex
}

// New creates a new cadence manager
func New(store *storage.Store) *Manager {
	return &Manager{
		store:  store,
		logger: logger.New("cadence"),
	}
}

// Load returns the stored mode. A missing or unreadable record falls back
// to weekly.
func (m *Manager) Load() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	var c Cadence
	err := m.store.Get(CadenceKey, &c)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.logger.Info("No cadence record yet, starting %s", ModeWeekly)
		return ModeWeekly
	case err != nil:
		m.logger.Warn("Failed to read cadence, defaulting to %s: %v", ModeWeekly, err)
		return ModeWeekly
	case !c.Mode.Valid():
		m.logger.Warn("Unknown cadence mode %q, defaulting to %s", c.Mode, ModeWeekly)
		return ModeWeekly
	}
	return c.Mode
}

// Save writes the mode
func (m *Manager) Save(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid cadence mode %q", mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(CadenceKey, Cadence{Mode: mode}); err != nil {
		return fmt.Errorf("failed to save cadence: %w", err)
	}
	m.logger.Info("Cadence set to %s", mode)
	return nil
}
