package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/pkg/store"
)

// Rehydrate restores state, history, sessions and the fallback cache from the
// store. Missing keys are not errors; a fresh store leaves the orchestrator
// Passive with an empty history.
func (o *Orchestrator) Rehydrate(ctx context.Context) error {
	var errs []error

	var st entity.SystemState
	switch err := store.GetJSON(ctx, o.Store, store.KeyState, &st); {
	case err == nil:
		o.state.reset(st)
	case errors.Is(err, store.ErrNotFound):
		o.state.reset(entity.StatePassive)
	default:
		errs = append(errs, fmt.Errorf("restore state: %w", err))
	}

	var samples []entity.TelemetrySample
	switch err := store.GetJSON(ctx, o.Store, store.KeyHistory, &samples); {
	case err == nil:
		o.History.Restore(samples)
	case errors.Is(err, store.ErrNotFound):
	default:
		errs = append(errs, fmt.Errorf("restore history: %w", err))
	}

	sessions, err := o.Sessions.Rehydrate(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("restore sessions: %w", err))
	}
	artifacts, err := o.Fallback.Rehydrate(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("restore fallback cache: %w", err))
	}

	o.Metrics.ObserveHistoryLength(o.History.Len())
	o.Logger.Info("Orchestrator", "Rehydrated", map[string]interface{}{
		"state":     o.state.Current().String(),
		"history":   o.History.Len(),
		"sessions":  sessions,
		"artifacts": artifacts,
	})
	return errors.Join(errs...)
}

func (o *Orchestrator) FlushHistory(ctx context.Context) error {
	if err := store.SetJSON(ctx, o.Store, store.KeyHistory, o.History.Snapshot()); err != nil {
		return fmt.Errorf("flush history: %w", err)
	}
	return nil
}

// RunHistoryFlusher flushes on every interval until ctx is done.
func (o *Orchestrator) RunHistoryFlusher(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.HistoryFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.FlushHistory(ctx); err != nil {
				o.Logger.Warn("Orchestrator", "History flush failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// Close cancels pending pre-generation, waits for it to return and writes
// the history one last time.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.cancelBg()
	o.WaitPregeneration()
	return o.FlushHistory(ctx)
}
