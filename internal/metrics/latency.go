package metrics

import (
	"slices"
	"sync"
	"time"
)

// LatencySnapshot summarizes the render latencies currently in the window.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

type observation struct {
	at time.Time
	ms int64
}

// LatencyStats keeps document render latencies observed within the last
// window. The zero value is not usable; call NewLatencyStats.
type LatencyStats struct {
	window time.Duration

	mu  sync.Mutex
	obs []observation
}

// NewLatencyStats returns an empty window. A non-positive window means one
// hour.
func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{window: window}
}

// Observe records d, rounded down to whole milliseconds.
func (s *LatencyStats) Observe(d time.Duration) {
	s.Record(d.Milliseconds())
}

// Record adds one latency in milliseconds; negatives count as zero.
func (s *LatencyStats) Record(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.expire(now)
	s.obs = append(s.obs, observation{at: now, ms: max(ms, 0)})
}

func (s *LatencyStats) Snapshot() LatencySnapshot {
	s.mu.Lock()
	s.expire(time.Now())
	ms := make([]int64, len(s.obs))
	for i, o := range s.obs {
		ms[i] = o.ms
	}
	s.mu.Unlock()

	if len(ms) == 0 {
		return LatencySnapshot{}
	}
	slices.Sort(ms)

	var total int64
	for _, v := range ms {
		total += v
	}
	return LatencySnapshot{
		Count: len(ms),
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: float64(total) / float64(len(ms)),
		P50Ms: quantile(ms, 0.50),
		P95Ms: quantile(ms, 0.95),
		P99Ms: quantile(ms, 0.99),
	}
}

// expire drops observations older than the window. Observations are
// appended in time order, so the expired ones form a prefix.
func (s *LatencyStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i, _ := slices.BinarySearchFunc(s.obs, cutoff, func(o observation, t time.Time) int {
		return o.at.Compare(t)
	})
	if i > 0 {
		s.obs = slices.Delete(s.obs, 0, i)
	}
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []int64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[len(sorted)-1])
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	a, b := float64(sorted[lo]), float64(sorted[lo+1])
	return a + (b-a)*frac
}
