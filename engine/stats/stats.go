// Package stats keeps lock-free counters for the render and pick paths.
// Producers and consumers run on different goroutines, so every field is
// atomic and Snapshot gives a consistent-enough view for logging.
package stats

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// Counters is safe for concurrent use. The zero value is ready.
type Counters struct {
	framesSubmitted atomic.Uint64
	framesCompleted atomic.Uint64
	staleDropped    atomic.Uint64
	pickHits        atomic.Uint64
	pickMisses      atomic.Uint64
	lastReadbackNS  atomic.Int64
}

func (c *Counters) FrameSubmitted() {
	if c != nil {
		c.framesSubmitted.Add(1)
	}
}

// FrameCompleted records a finished readback and how long it took from
// submission to publication.
func (c *Counters) FrameCompleted(latency time.Duration) {
	if c != nil {
		c.framesCompleted.Add(1)
		c.lastReadbackNS.Store(int64(latency))
	}
}

// StaleDropped counts a snapshot that lost the race against a newer frame.
func (c *Counters) StaleDropped() {
	if c != nil {
		c.staleDropped.Add(1)
	}
}

func (c *Counters) Pick(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.pickHits.Add(1)
	} else {
		c.pickMisses.Add(1)
	}
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	FramesSubmitted uint64
	FramesCompleted uint64
	StaleDropped    uint64
	PickHits        uint64
	PickMisses      uint64
	LastReadback    time.Duration
	HeapAlloc       uint64
	Goroutines      int
}

// InFlight reports frames submitted but not yet published.
func (s Snapshot) InFlight() uint64 {
	done := s.FramesCompleted + s.StaleDropped
	if done > s.FramesSubmitted {
		return 0
	}
	return s.FramesSubmitted - done
}

func (c *Counters) Snapshot() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		FramesSubmitted: c.framesSubmitted.Load(),
		FramesCompleted: c.framesCompleted.Load(),
		StaleDropped:    c.staleDropped.Load(),
		PickHits:        c.pickHits.Load(),
		PickMisses:      c.pickMisses.Load(),
		LastReadback:    time.Duration(c.lastReadbackNS.Load()),
		HeapAlloc:       m.HeapAlloc,
		Goroutines:      runtime.NumGoroutine(),
	}
}

// LogValue lets a Snapshot be passed straight to slog.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("submitted", s.FramesSubmitted),
		slog.Uint64("completed", s.FramesCompleted),
		slog.Uint64("in_flight", s.InFlight()),
		slog.Uint64("stale", s.StaleDropped),
		slog.Uint64("pick_hits", s.PickHits),
		slog.Uint64("pick_misses", s.PickMisses),
		slog.Duration("readback", s.LastReadback),
		slog.Float64("heap_mb", float64(s.HeapAlloc)/(1<<20)),
		slog.Int("goroutines", s.Goroutines),
	)
}
