package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	kpi "iiot-monitor/internal/kpi/domain"
)

// Source keeps line KPI windows in memory for sample mode and tests.
type Source struct {
	mu   sync.RWMutex
	kpis []kpi.LineKPI
	now  func() time.Time
}

// Option configures the source.
type Option func(*Source)

// WithClock overrides the clock used for lookback windows.
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource constructs an empty source.
func NewSource(opts ...Option) *Source {
	source := &Source{now: time.Now}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// Put stores KPI windows.
func (s *Source) Put(kpis ...kpi.LineKPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kpis = append(s.kpis, kpis...)
}

// LineKPIs returns matching windows newest first with OEE computed.
func (s *Source) LineKPIs(_ context.Context, lineID string, lookback time.Duration) ([]kpi.LineKPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := s.now().UTC().Add(-lookback)
	var result []kpi.LineKPI
	for _, record := range s.kpis {
		if record.WindowEnd.Before(since) {
			continue
		}
		if lineID != "" && record.LineID != lineID {
			continue
		}
		result = append(result, record.WithOEE())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].WindowEnd.After(result[j].WindowEnd)
	})
	return result, nil
}

// SampleKPIs returns six daily windows for two demo lines.
func SampleKPIs(now time.Time) []kpi.LineKPI {
	now = now.UTC()
	var kpis []kpi.LineKPI
	lines := []struct {
		id, name          string
		avail, perf, qual float64
	}{
		{"line-1", "Assembly Line 1", 86, 80, 91},
		{"line-2", "Stamping Line 2", 82, 75, 90},
	}
	for _, line := range lines {
		for day := 0; day < 3; day++ {
			kpis = append(kpis, kpi.LineKPI{
				LineID:       line.id,
				LineName:     line.name,
				WindowEnd:    now.Add(-time.Duration(day) * 24 * time.Hour),
				Availability: line.avail - float64(day),
				Performance:  line.perf + float64(day),
				Quality:      line.qual,
			})
		}
	}
	return kpis
}
