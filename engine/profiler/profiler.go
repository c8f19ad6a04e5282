// Package profiler reports frame timing through the shared engine logger.
package profiler

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// Stats is one reporting window's summary.
type Stats struct {
	Frames      int
	FrameTimeMs float64
	FPS         float64
	HeapMB      float64
	NumGC       uint32
}

// Profiler counts frames and logs the average frame time once per interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	readMem        bool
	now            func() time.Time
	last           Stats
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(p *Profiler)

// WithInterval sets how much time must elapse between reports.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithClock replaces time.Now as the profiler's time source.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - ProfilerOption: option function to apply
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemStats adds heap size and GC count to each report.
//
// Returns:
//   - ProfilerOption: option function to apply
func WithMemStats() ProfilerOption {
	return func(p *Profiler) {
		p.readMem = true
	}
}

// NewProfiler creates a Profiler that reports once per second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. Once more than the interval has elapsed since the
// last report it logs "frame time X ms (Y FPS)" and starts a new window.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed <= p.updateInterval {
		return false
	}

	frameMs := float64(elapsed.Microseconds()) / 1000 / float64(p.frameCount)
	stats := Stats{
		Frames:      p.frameCount,
		FrameTimeMs: frameMs,
		FPS:         1000 / frameMs,
	}

	attrs := []any{slog.Int("frames", stats.Frames)}
	if p.readMem {
		runtime.ReadMemStats(&p.memStats)
		stats.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
		stats.NumGC = p.memStats.NumGC
		attrs = append(attrs, slog.Float64("heap_mb", stats.HeapMB), slog.Uint64("gc", uint64(stats.NumGC)))
	}

	common.Logger().Info(fmt.Sprintf("frame time %.2f ms (%.1f FPS)", stats.FrameTimeMs, stats.FPS), attrs...)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	return true
}

// Last returns the stats from the most recent report.
//
// Returns:
//   - Stats: the last reported window, zero before the first report
func (p *Profiler) Last() Stats {
	return p.last
}
