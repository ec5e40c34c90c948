package watcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
)

type fakeSource struct {
	mu       sync.Mutex
	entities []models.Entity
	err      error
}

func (f *fakeSource) States(_ context.Context) ([]models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return f.entities, nil
}

func (f *fakeSource) set(entities []models.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entities = entities
}

type fakePublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)

	return nil
}

func (f *fakePublisher) published() []eventbus.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]eventbus.Event(nil), f.events...)
}

type fakeAnalysisRunner struct {
	mu   sync.Mutex
	runs []models.AnalysisTrigger
}

func (f *fakeAnalysisRunner) Run(_ context.Context, trigger models.AnalysisTrigger) (*models.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runs = append(f.runs, trigger)

	return &models.Analysis{ID: "analysis-1", Trigger: trigger}, nil
}

func newTestWatcher(source EntitySource, publisher eventbus.EventPublisher) *Watcher {
	return NewWatcher("watcher-test", source, publisher, &fakeAnalysisRunner{}, 10*time.Millisecond, "", slog.Default())
}

func TestWatcher_PollOncePublishesChanges(t *testing.T) {
	source := &fakeSource{entities: []models.Entity{
		{EntityID: "light.living_room", State: "off"},
		{EntityID: "switch.coffee_maker", State: "off"},
	}}
	publisher := &fakePublisher{}
	w := newTestWatcher(source, publisher)

	require.NoError(t, w.seed(t.Context()))

	source.set([]models.Entity{
		{EntityID: "light.living_room", State: "on"},
		{EntityID: "switch.coffee_maker", State: "off"},
	})

	w.pollOnce(t.Context())

	published := publisher.published()
	require.Len(t, published, 1)

	change, ok := published[0].(events.EntityStateChanged)
	require.True(t, ok)
	assert.Equal(t, "light.living_room", change.EntityID)
	assert.Equal(t, "off", change.OldState)
	assert.Equal(t, "on", change.NewState)
	assert.Equal(t, "watcher-test", change.AgentID)
}

func TestWatcher_PollOnceIgnoresNewEntities(t *testing.T) {
	source := &fakeSource{entities: []models.Entity{
		{EntityID: "light.living_room", State: "off"},
	}}
	publisher := &fakePublisher{}
	w := newTestWatcher(source, publisher)

	require.NoError(t, w.seed(t.Context()))

	// A newly appeared entity has no previous state to diff against.
	source.set([]models.Entity{
		{EntityID: "light.living_room", State: "off"},
		{EntityID: "sensor.new_device", State: "42"},
	})

	w.pollOnce(t.Context())
	assert.Empty(t, publisher.published())

	// But a subsequent change to it is reported.
	source.set([]models.Entity{
		{EntityID: "light.living_room", State: "off"},
		{EntityID: "sensor.new_device", State: "43"},
	})

	w.pollOnce(t.Context())
	require.Len(t, publisher.published(), 1)
}

func TestWatcher_PollOnceSourceErrorKeepsBaseline(t *testing.T) {
	source := &fakeSource{entities: []models.Entity{
		{EntityID: "light.living_room", State: "off"},
	}}
	publisher := &fakePublisher{}
	w := newTestWatcher(source, publisher)

	require.NoError(t, w.seed(t.Context()))

	source.mu.Lock()
	source.err = errors.New("connection refused")
	source.mu.Unlock()

	w.pollOnce(t.Context())
	assert.Empty(t, publisher.published())

	source.mu.Lock()
	source.err = nil
	source.entities = []models.Entity{{EntityID: "light.living_room", State: "on"}}
	source.mu.Unlock()

	w.pollOnce(t.Context())
	require.Len(t, publisher.published(), 1)
}

func TestWatcher_StartPollsOnInterval(t *testing.T) {
	source := &fakeSource{entities: []models.Entity{
		{EntityID: "light.living_room", State: "off"},
	}}
	publisher := &fakePublisher{}
	w := newTestWatcher(source, publisher)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	source.set([]models.Entity{
		{EntityID: "light.living_room", State: "on"},
	})

	assert.Eventually(t, func() bool {
		return len(publisher.published()) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

// stallingSource answers the seed call immediately, then parks every poll
// until release is closed.
type stallingSource struct {
	mu      sync.Mutex
	seeded  bool
	entered chan struct{}
	release chan struct{}
}

func (s *stallingSource) States(_ context.Context) ([]models.Entity, error) {
	s.mu.Lock()
	first := !s.seeded
	s.seeded = true
	s.mu.Unlock()

	if first {
		return nil, nil
	}

	s.entered <- struct{}{}
	<-s.release

	return nil, nil
}

func TestWatcher_StopReachesPollerMidPoll(t *testing.T) {
	source := &stallingSource{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	w := newTestWatcher(source, &fakePublisher{})

	require.NoError(t, w.Start(t.Context()))

	// Stop while the poll goroutine is inside States. The shutdown signal
	// must still be observable once the poll returns.
	<-source.entered
	w.Stop(t.Context())

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("shutdown signal did not reach the poller")
	}

	close(source.release)
}

func TestWatcher_StartIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	w := newTestWatcher(source, &fakePublisher{})

	ctx := t.Context()

	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))

	w.Stop(ctx)
	w.Stop(ctx)
}

func TestWatcher_InvalidScheduleRejected(t *testing.T) {
	source := &fakeSource{}
	w := NewWatcher("watcher-test", source, &fakePublisher{}, &fakeAnalysisRunner{}, time.Second, "not a cron expr", slog.Default())

	err := w.Start(t.Context())
	assert.Error(t, err)
}

func TestWatcher_RunScheduledAnalysis(t *testing.T) {
	runner := &fakeAnalysisRunner{}
	w := NewWatcher("watcher-test", &fakeSource{}, &fakePublisher{}, runner, time.Second, "", slog.Default())

	w.runScheduledAnalysis(t.Context())

	runner.mu.Lock()
	defer runner.mu.Unlock()

	require.Len(t, runner.runs, 1)
	assert.Equal(t, models.AnalysisTriggerScheduled, runner.runs[0])
}
