package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/services"
)

// Worker consumes action.requested events and executes them through the agent.
type Worker struct {
	id            string
	eventBus      eventbus.EventBus
	actionService *services.Action
	logger        *slog.Logger
	restartCount  int
}

func NewWorker(
	id string,
	eventBus eventbus.EventBus,
	actionService *services.Action,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		id:            id,
		eventBus:      eventBus,
		actionService: actionService,
		logger:        logger.With("module", "worker"),
	}
}

// Start begins the worker service.
func (w *Worker) Start(ctx context.Context) {
	wCtx, cancel := context.WithCancel(ctx)

	w.logger.Info("Starting agent worker")

	w.handleSignals(wCtx, cancel)
	w.run(wCtx)
}

// handleSignals sets up signal handling for graceful shutdown and restart.
func (w *Worker) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		w.logger.Info("Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			w.logger.Info("Reloading configuration...")
			w.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			w.logger.Info("Shutting down gracefully...")
			w.stop(cancel)
			os.Exit(0)
		default:
			w.logger.Warn("Unhandled signal received", "signal", sig)
		}
	}()
}

// restart handles service restart with exponential backoff.
func (w *Worker) restart(ctx context.Context, cancel context.CancelFunc) {
	w.restartCount++
	newCtx := context.WithoutCancel(ctx)

	w.stop(cancel)

	if w.restartCount > 5 {
		w.logger.Error("Restart limit reached, exiting...")
		os.Exit(1)
	}

	backoff := time.Duration(w.restartCount) * time.Second
	w.logger.Info("Restarting worker...", "backoff", backoff)
	time.Sleep(backoff)

	w.Start(newCtx)
}

// run subscribes to action events and blocks until the context is cancelled.
func (w *Worker) run(ctx context.Context) {
	err := w.eventBus.Handle(events.ActionRequestedEvent, w.handleActionRequested)
	if err != nil {
		w.logger.Error("Failed to register action handler", "error", err)

		return
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.Error("Failed to subscribe to events", "error", err)

		return
	}

	w.logger.Info("Waiting for action requests...")

	<-ctx.Done()
	w.logger.Info("Worker context cancelled, stopping...")
}

// handleActionRequested executes a single natural language action request.
func (w *Worker) handleActionRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.ActionRequested)
	if !ok {
		w.logger.Error("Unexpected event payload for action request")

		return nil
	}

	logger := w.logger.With("request_id", request.RequestID)
	logger.Info("Processing action request", "action", request.Action)

	outcome, err := w.actionService.Execute(ctx, request.Action)
	if err != nil {
		logger.Error("Failed to execute action", "error", err)

		if services.IsValidationError(err) {
			// Malformed requests are dropped rather than redelivered.
			return nil
		}

		return err
	}

	logger.Info("Action request completed",
		"success", outcome.Success,
		"actions", len(outcome.Actions))

	return nil
}

// stop gracefully shuts down the worker.
func (w *Worker) stop(cancel context.CancelFunc) {
	w.logger.Info("Stopping worker")

	if cancel != nil {
		cancel()
	}
}
