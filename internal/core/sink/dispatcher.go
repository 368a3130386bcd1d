// Package sink fans saved profiles out to independent integration targets.
//
// Every listener runs in its own error and panic containment: a failing sink
// never blocks another sink or changes the outcome of the save that triggered
// it. Failures are logged, counted and pushed onto the profile's per-sink
// error ring buffer.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/metrics"
)

// ErrSkipped marks a listener that chose not to sync (not connected,
// debounced, nothing to send). Skips are not failures.
var ErrSkipped = errors.New("sink skipped")

// Dispatcher owns the ordered listener list notified after every save.
type Dispatcher struct {
	listeners []ports.ProfileListener
	statuses  ports.SyncStatusRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewDispatcher builds a Dispatcher notifying listeners in the given order.
func NewDispatcher(statuses ports.SyncStatusRepository, log zerolog.Logger, listeners ...ports.ProfileListener) *Dispatcher {
	return &Dispatcher{
		listeners: listeners,
		statuses:  statuses,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register appends a listener.
func (d *Dispatcher) Register(l ports.ProfileListener) {
	d.listeners = append(d.listeners, l)
}

// Dispatch notifies every listener synchronously. The parent context's
// cancellation is not propagated: an aborted request does not cut an outbound
// call short, each sink is bounded by its own client timeout instead.
func (d *Dispatcher) Dispatch(ctx context.Context, p *domain.Profile) []ports.SinkResult {
	ctx = context.WithoutCancel(ctx)

	results := make([]ports.SinkResult, 0, len(d.listeners))
	for _, l := range d.listeners {
		results = append(results, d.notify(ctx, l, p))
	}
	return results
}

// DispatchDelete tells listeners holding per-profile state that the profile is
// gone, then drops the profile's sync statuses. Listeners without such state
// are not called.
func (d *Dispatcher) DispatchDelete(ctx context.Context, profileID string) []ports.SinkResult {
	ctx = context.WithoutCancel(ctx)

	var results []ports.SinkResult
	for _, l := range d.listeners {
		remover, ok := l.(ports.ProfileRemover)
		if !ok {
			continue
		}
		results = append(results, d.run(ctx, l.Name(), profileID, func() error {
			return remover.OnProfileDeleted(ctx, profileID)
		}))
	}

	// Last, so errors recorded by the removers above go too.
	if d.statuses != nil {
		if err := d.statuses.DeleteForProfile(ctx, profileID); err != nil {
			d.log.Warn().Err(err).Str("profile_id", profileID).Msg("failed to delete sync statuses")
		}
	}
	return results
}

func (d *Dispatcher) notify(ctx context.Context, l ports.ProfileListener, p *domain.Profile) ports.SinkResult {
	return d.run(ctx, l.Name(), p.ID, func() error {
		return l.OnProfileSaved(ctx, p)
	})
}

// run calls fn inside panic containment and records the outcome.
func (d *Dispatcher) run(ctx context.Context, sink, profileID string, fn func() error) (res ports.SinkResult) {
	res.Sink = sink
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Skipped = false
			res.Err = fmt.Errorf("sink %s panicked: %v", res.Sink, r)
		}
		d.record(ctx, profileID, res, time.Since(start))
	}()

	err := fn()
	if errors.Is(err, ErrSkipped) {
		res.Skipped = true
		return res
	}
	res.Err = err
	return res
}

func (d *Dispatcher) record(ctx context.Context, profileID string, res ports.SinkResult, elapsed time.Duration) {
	metrics.SinkDuration.WithLabelValues(res.Sink).Observe(elapsed.Seconds())

	switch {
	case res.Skipped:
		metrics.SinkResultsTotal.WithLabelValues(res.Sink, "skipped").Inc()
		d.log.Debug().Str("profile_id", profileID).Str("sink", res.Sink).Msg("sink skipped")
		return
	case res.Err == nil:
		metrics.SinkResultsTotal.WithLabelValues(res.Sink, "ok").Inc()
		return
	}

	metrics.SinkResultsTotal.WithLabelValues(res.Sink, "error").Inc()
	d.log.Error().Err(res.Err).
		Str("profile_id", profileID).
		Str("sink", res.Sink).
		Dur("elapsed", elapsed).
		Msg("sink sync failed")

	if d.statuses == nil {
		return
	}
	entry := domain.SyncError{At: d.now(), Message: res.Err.Error()}
	if err := d.statuses.AppendError(ctx, profileID, res.Sink, entry); err != nil {
		d.log.Warn().Err(err).Str("profile_id", profileID).Str("sink", res.Sink).Msg("failed to record sink error")
	}
}
