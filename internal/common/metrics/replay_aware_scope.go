package metrics

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/uber-go/tally"
)

type (
	replayAwareScope struct {
		isReplay *bool
		scope    tally.Scope
		clock    clock.Clock
	}

	replayAwareCounter struct {
		isReplay *bool
		counter  tally.Counter
	}

	replayAwareGauge struct {
		isReplay *bool
		gauge    tally.Gauge
	}

	replayAwareTimer struct {
		isReplay *bool
		timer    tally.Timer
		clock    clock.Clock
	}

	replayAwareHistogram struct {
		isReplay  *bool
		histogram tally.Histogram
		clock     clock.Clock
	}

	replayAwareStopwatchRecorder struct {
		isReplay *bool
		recorder tally.StopwatchRecorder
	}
)

// Inc increments the counter by a delta, unless it is replaying.
func (c *replayAwareCounter) Inc(delta int64) {
	if *c.isReplay {
		return
	}
	c.counter.Inc(delta)
}

// Update sets the gauges absolute value, unless it is replaying.
func (g *replayAwareGauge) Update(value float64) {
	if *g.isReplay {
		return
	}
	g.gauge.Update(value)
}

// Record a specific duration directly, unless it is replaying.
func (t *replayAwareTimer) Record(value time.Duration) {
	if *t.isReplay {
		return
	}
	t.timer.Record(value)
}

// Start gives you back a specific point in time to report via Stop.
func (t *replayAwareTimer) Start() tally.Stopwatch {
	return tally.NewStopwatch(t.clock.Now(), &replayAwareStopwatchRecorder{t.isReplay, t.timer.(tally.StopwatchRecorder)})
}

// RecordValue adds a value to the histogram bucket, unless it is replaying.
func (h *replayAwareHistogram) RecordValue(value float64) {
	if *h.isReplay {
		return
	}
	h.histogram.RecordValue(value)
}

// RecordDuration adds a duration to the histogram bucket, unless it is replaying.
func (h *replayAwareHistogram) RecordDuration(value time.Duration) {
	if *h.isReplay {
		return
	}
	h.histogram.RecordDuration(value)
}

// Start gives you a specific point in time to then record a duration.
func (h *replayAwareHistogram) Start() tally.Stopwatch {
	return tally.NewStopwatch(h.clock.Now(), &replayAwareStopwatchRecorder{h.isReplay, h.histogram.(tally.StopwatchRecorder)})
}

// RecordStopwatch records the stopwatch reading, unless it is replaying.
func (r *replayAwareStopwatchRecorder) RecordStopwatch(stopwatchStart time.Time) {
	if *r.isReplay {
		return
	}
	r.recorder.RecordStopwatch(stopwatchStart)
}

// Counter returns the replay-aware version of the counter.
func (s *replayAwareScope) Counter(name string) tally.Counter {
	return &replayAwareCounter{s.isReplay, s.scope.Counter(name)}
}

// Gauge returns the replay-aware version of the gauge.
func (s *replayAwareScope) Gauge(name string) tally.Gauge {
	return &replayAwareGauge{s.isReplay, s.scope.Gauge(name)}
}

// Timer returns the replay-aware version of the timer.
func (s *replayAwareScope) Timer(name string) tally.Timer {
	return &replayAwareTimer{s.isReplay, s.scope.Timer(name), s.clock}
}

// Histogram returns the replay-aware version of the histogram.
func (s *replayAwareScope) Histogram(name string, buckets tally.Buckets) tally.Histogram {
	return &replayAwareHistogram{s.isReplay, s.scope.Histogram(name, buckets), s.clock}
}

// Tagged returns a replay-aware sub-scope with the given tags.
func (s *replayAwareScope) Tagged(tags map[string]string) tally.Scope {
	return &replayAwareScope{s.isReplay, s.scope.Tagged(tags), s.clock}
}

// SubScope returns a replay-aware sub-scope under the given name.
func (s *replayAwareScope) SubScope(name string) tally.Scope {
	return &replayAwareScope{s.isReplay, s.scope.SubScope(name), s.clock}
}

// Capabilities returns the capabilities of the underlying scope.
func (s *replayAwareScope) Capabilities() tally.Capabilities {
	return s.scope.Capabilities()
}
