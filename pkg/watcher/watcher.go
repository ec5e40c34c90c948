// Package watcher polls Home Assistant for entity state changes and runs
// scheduled system analyses.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
)

// EntitySource fetches the current entity states.
type EntitySource interface {
	States(ctx context.Context) ([]models.Entity, error)
}

// AnalysisRunner performs a system analysis and stores the result.
type AnalysisRunner interface {
	Run(ctx context.Context, trigger models.AnalysisTrigger) (*models.Analysis, error)
}

// Watcher diffs entity states on a fixed interval and publishes a
// entity.state_changed event for every transition it observes. A cron
// schedule additionally triggers full system analyses.
type Watcher struct {
	id           string
	source       EntitySource
	publisher    eventbus.EventPublisher
	analysis     AnalysisRunner
	pollInterval time.Duration
	schedule     string
	logger       *slog.Logger

	ticker  *time.Ticker
	cron    *cron.Cron
	done    chan bool
	started bool
	mu      sync.Mutex

	// last seen state per entity ID
	previous map[string]string
}

func NewWatcher(
	id string,
	source EntitySource,
	publisher eventbus.EventPublisher,
	analysis AnalysisRunner,
	pollInterval time.Duration,
	schedule string,
	logger *slog.Logger,
) *Watcher {
	return &Watcher{
		id:           id,
		source:       source,
		publisher:    publisher,
		analysis:     analysis,
		pollInterval: pollInterval,
		schedule:     schedule,
		logger:       logger.With("module", "watcher"),
	}
}

// Start begins the poll loop and the analysis schedule.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	w.logger.Info("Starting entity watcher",
		"poll_interval", w.pollInterval,
		"analysis_schedule", w.schedule)

	// Seed the baseline so the first poll does not report every entity.
	if err := w.seed(ctx); err != nil {
		w.logger.Warn("Failed to seed entity states, first poll will seed instead", "error", err)
	}

	w.ticker = time.NewTicker(w.pollInterval)
	w.done = make(chan bool)
	w.started = true

	go w.poll(ctx)

	if w.schedule != "" && w.analysis != nil {
		w.cron = cron.New()

		_, err := w.cron.AddFunc(w.schedule, func() {
			w.runScheduledAnalysis(ctx)
		})
		if err != nil {
			return err
		}

		w.cron.Start()
	}

	return nil
}

// Stop shuts down the poller and the cron schedule.
func (w *Watcher) Stop(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	w.logger.Info("Stopping entity watcher")

	w.ticker.Stop()

	if w.cron != nil {
		<-w.cron.Stop().Done()
	}

	// Closing reaches the poll goroutine even when it is mid-poll; a
	// non-blocking send would be dropped.
	close(w.done)

	w.started = false
}

func (w *Watcher) seed(ctx context.Context) error {
	entities, err := w.source.States(ctx)
	if err != nil {
		return err
	}

	w.previous = make(map[string]string, len(entities))
	for _, entity := range entities {
		w.previous[entity.EntityID] = entity.State
	}

	return nil
}

func (w *Watcher) poll(ctx context.Context) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-w.ticker.C:
			w.pollOnce(ctx)
		}
	}
}

// pollOnce fetches the current states and publishes one event per changed entity.
func (w *Watcher) pollOnce(ctx context.Context) {
	entities, err := w.source.States(ctx)
	if err != nil {
		w.logger.Error("Failed to fetch entity states", "error", err)

		return
	}

	if w.previous == nil {
		w.previous = make(map[string]string, len(entities))
	}

	current := make(map[string]string, len(entities))

	for _, entity := range entities {
		current[entity.EntityID] = entity.State

		oldState, seen := w.previous[entity.EntityID]
		if !seen || oldState == entity.State {
			continue
		}

		w.publishStateChanged(ctx, entity.EntityID, oldState, entity.State)
	}

	w.previous = current
}

func (w *Watcher) publishStateChanged(ctx context.Context, entityID, oldState, newState string) {
	event := events.EntityStateChanged{
		BaseEvent: events.NewBaseEvent(events.EntityStateChangedEvent, w.id),
		EntityID:  entityID,
		OldState:  oldState,
		NewState:  newState,
	}

	if err := w.publisher.Publish(ctx, entityID, event); err != nil {
		w.logger.Error("Failed to publish state change",
			"entity_id", entityID,
			"error", err)

		return
	}

	w.logger.Debug("Entity state changed",
		"entity_id", entityID,
		"old_state", oldState,
		"new_state", newState)
}

func (w *Watcher) runScheduledAnalysis(ctx context.Context) {
	w.logger.Info("Running scheduled analysis")

	analysis, err := w.analysis.Run(ctx, models.AnalysisTriggerScheduled)
	if err != nil {
		w.logger.Error("Scheduled analysis failed", "error", err)

		return
	}

	w.logger.Info("Scheduled analysis completed",
		"analysis_id", analysis.ID,
		"unavailable_count", analysis.UnavailableCount)
}
