package view

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"iiot-monitor/internal/datasource"
	"iiot-monitor/internal/observability/metrics"
	telemetry "iiot-monitor/internal/telemetry/domain"
)

const defaultPollInterval = 30 * time.Second

// Poller refreshes the fleet snapshot on a fixed interval. The latest
// successful fetch wins; an overlapping or failed poll never clobbers
// a newer snapshot with stale data because writes happen only after a
// fetch completes under the lock.
type Poller struct {
	source   datasource.DataSource
	interval time.Duration
	logger   *log.Logger

	mu        sync.RWMutex
	records   []telemetry.Record
	fetchedAt time.Time
}

// PollerOption configures the poller.
type PollerOption func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// NewPoller constructs a poller.
func NewPoller(source datasource.DataSource, logger *log.Logger, opts ...PollerOption) (*Poller, error) {
	if source == nil {
		return nil, errors.New("view poller: nil source")
	}
	poller := &Poller{
		source:   source,
		interval: defaultPollInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(poller)
	}
	return poller, nil
}

// Run polls until the context is cancelled. The first poll happens
// immediately.
func (p *Poller) Run(ctx context.Context) {
	if err := p.RunOnce(ctx); err != nil {
		p.logf("fleet poll: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logf("fleet poll: %v", err)
			}
		}
	}
}

// RunOnce performs a single poll cycle.
func (p *Poller) RunOnce(ctx context.Context) error {
	records, err := p.source.FleetLatest(ctx)
	if err != nil {
		metrics.IncPollCycle(metrics.ResultError)
		return err
	}
	metrics.IncPollCycle(metrics.ResultSuccess)

	p.mu.Lock()
	p.records = records
	p.fetchedAt = time.Now().UTC()
	p.mu.Unlock()
	return nil
}

// Snapshot returns the last successful fleet fetch. ok is false until
// the first poll completes.
func (p *Poller) Snapshot() (records []telemetry.Record, fetchedAt time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.fetchedAt.IsZero() {
		return nil, time.Time{}, false
	}
	return p.records, p.fetchedAt, true
}

func (p *Poller) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
