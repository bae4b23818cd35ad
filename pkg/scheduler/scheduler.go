package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/korjavin/mealwatch/pkg/extract"
	"github.com/korjavin/mealwatch/pkg/logger"
	"github.com/korjavin/mealwatch/pkg/menu"
	"github.com/korjavin/mealwatch/pkg/models"
	"github.com/korjavin/mealwatch/pkg/state"
	"github.com/korjavin/mealwatch/pkg/storage"
)

const (
	// ScheduleKey is the storage record holding the last committed snapshot
	ScheduleKey = "schedule"
	// HistoryPrefix prefixes one record per committed week
	HistoryPrefix = "history:"
)

// Fetcher retrieves the raw menu document
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Notifier is told about every committed update
type Notifier interface {
	NotifyUpdate(snap models.Snapshot) error
}

// Outcome is what a run did
type Outcome string

const (
	OutcomeSkip      Outcome = "skip"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeUpdated   Outcome = "updated"
)

// Result describes one run
type Result struct {
	Outcome  Outcome
	From     state.Mode
	To       state.Mode
	Snapshot *models.Snapshot
}

// Transitioned reports whether the run changed the cadence mode
func (r Result) Transitioned() bool {
	return r.From != r.To
}

// String is the one-line status printed for the run
func (r Result) String() string {
	if r.Transitioned() {
		return fmt.Sprintf("%s (mode %s->%s)", r.Outcome, r.From, r.To)
	}
	return string(r.Outcome)
}

// Options configures the run driver
type Options struct {
	TriggerDay time.Weekday
	Location   *time.Location
	// ParserOptions are applied after the clock option of each run
	ParserOptions []menu.Option
}

// Service runs one fetch-parse-compare-persist cycle per invocation
type Service struct {
	store     *storage.Store
	cadence   *state.Manager
	fetcher   Fetcher
	extractor extract.Extractor
	notifier  Notifier
	opts      Options
	logger    *logger.Logger
}

// New creates a new scheduler service. notifier may be nil.
func New(
	store *storage.Store,
	fetcher Fetcher,
	extractor extract.Extractor,
	notifier Notifier,
	opts Options,
) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		store:     store,
		cadence:   state.New(store),
		fetcher:   fetcher,
		extractor: extractor,
		notifier:  notifier,
		opts:      opts,
		logger:    logger.New("scheduler"),
	}
}

// IsTriggerDay reports whether now falls on the weekly trigger day
func (s *Service) IsTriggerDay(now time.Time) bool {
	return now.In(s.opts.Location).Weekday() == s.opts.TriggerDay
}

// RunOnce performs one run. Fetch, extract and parse failures return before
// anything is written; a failed write returns an error and the cadence is not
// advanced past it. force attempts an update regardless of the cadence.
func (s *Service) RunOnce(ctx context.Context, now time.Time, force bool) (Result, error) {
	mode := s.cadence.Load()
	triggerDay := s.IsTriggerDay(now)
	result := Result{Outcome: OutcomeSkip, From: mode, To: mode}

	if !state.ShouldAttempt(mode, triggerDay) && !force {
		s.logger.Info("Mode %s and %s is not %s, skipping", mode, now.In(s.opts.Location).Weekday(), s.opts.TriggerDay)
		return result, nil
	}

	cur, err := s.fetchSnapshot(ctx, now)
	if err != nil {
		return result, err
	}
	result.Snapshot = &cur

	prev := s.LoadSnapshot()
	changed := menu.Changed(prev, cur)
	next, _ := state.Step(mode, changed, triggerDay)

	if changed {
		if prev != nil {
			s.logger.Debug("Menu diff (-old +new):\n%s", menu.Diff(prev, cur))
		}
		if err := s.commit(cur, mode, next); err != nil {
			return result, err
		}
		result.Outcome = OutcomeUpdated
	} else {
		result.Outcome = OutcomeUnchanged
		if next != mode {
			if err := s.cadence.Save(next); err != nil {
				return result, err
			}
		}
	}
	result.To = next

	if err := s.store.RunGC(); err != nil {
		s.logger.Warn("%v", err)
	}

	if changed && s.notifier != nil {
		if err := s.notifier.NotifyUpdate(cur); err != nil {
			s.logger.Error("Failed to send update notification: %v", err)
		}
	}

	s.logger.Info("Run finished: %s", result)
	return result, nil
}

// fetchSnapshot downloads, extracts and parses the current document
func (s *Service) fetchSnapshot(ctx context.Context, now time.Time) (models.Snapshot, error) {
	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to fetch menu: %w", err)
	}

	lines, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read menu document: %w", err)
	}

	local := now.In(s.opts.Location)
	opts := append([]menu.Option{menu.WithClock(func() time.Time { return local })}, s.opts.ParserOptions...)
	snap, err := menu.NewParser(opts...).Parse(lines)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to parse menu: %w", err)
	}
	s.logger.Info("Parsed %d days starting %s", len(snap.Menus), snap.FirstDate())
	return snap, nil
}

// LoadSnapshot returns the last committed snapshot, or nil when there is none
// or it cannot be read
func (s *Service) LoadSnapshot() *models.Snapshot {
	var snap models.Snapshot
	err := s.store.Get(ScheduleKey, &snap)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info("No stored menu yet")
		return nil
	case err != nil:
		s.logger.Warn("Ignoring unreadable stored menu: %v", err)
		return nil
	}
	return &snap
}

// commit writes the snapshot, its history entry and, when the mode moves,
// the cadence record in one transaction
func (s *Service) commit(snap models.Snapshot, from, to state.Mode) error {
	records := map[string]interface{}{ScheduleKey: snap}
	if first := snap.FirstDate(); first != "" {
		records[HistoryPrefix+first] = snap
	}
	if to != from {
		records[state.CadenceKey] = state.Cadence{Mode: to}
	}
	if err := s.store.SetMany(records); err != nil {
		return fmt.Errorf("failed to save menu: %w", err)
	}
	s.logger.Info("Saved menu starting %s", snap.FirstDate())
	if to != from {
		s.logger.Info("Cadence set to %s", to)
	}
	return nil
}

// History returns the keys of every committed week, oldest first
func (s *Service) History() ([]string, error) {
	return s.store.List(HistoryPrefix)
}

// Mode returns the stored cadence mode
func (s *Service) Mode() state.Mode {
	return s.cadence.Load()
}
