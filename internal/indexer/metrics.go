package indexer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainsync_stage_duration_seconds",
		Help:    "Duration of each block sync stage.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"})

	blocksSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainsync_blocks_synced_total",
		Help: "Blocks synced end to end.",
	})

	candidateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainsync_candidate_events_total",
		Help: "Candidate events produced by classification.",
	})

	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainsync_decode_errors_total",
		Help: "Logs that failed classification.",
	}, []string{"stage"})
)

// stageTimer records stage durations for one block.
type stageTimer struct {
	mu      sync.Mutex
	timings map[string]time.Duration
}

func newStageTimer() *stageTimer {
	return &stageTimer{timings: make(map[string]time.Duration)}
}

func (t *stageTimer) track(stage string, start time.Time) {
	d := time.Since(start)
	t.mu.Lock()
	t.timings[stage] = d
	t.mu.Unlock()
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (t *stageTimer) ms(stage string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timings[stage].Milliseconds()
}
