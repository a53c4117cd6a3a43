package stats

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersConcurrent(t *testing.T) {
	var c Counters
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.FrameSubmitted()
				c.FrameCompleted(time.Millisecond)
				c.Pick(j%2 == 0)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, uint64(800), s.FramesSubmitted)
	assert.Equal(t, uint64(800), s.FramesCompleted)
	assert.Equal(t, uint64(400), s.PickHits)
	assert.Equal(t, uint64(400), s.PickMisses)
	assert.Equal(t, uint64(0), s.InFlight())
	assert.Equal(t, time.Millisecond, s.LastReadback)
}

func TestInFlight(t *testing.T) {
	var c Counters
	c.FrameSubmitted()
	c.FrameSubmitted()
	c.FrameSubmitted()
	c.FrameCompleted(0)
	c.StaleDropped()
	assert.Equal(t, uint64(1), c.Snapshot().InFlight())
}

func TestNilCountersAreIgnored(t *testing.T) {
	var c *Counters
	assert.NotPanics(t, func() {
		c.FrameSubmitted()
		c.FrameCompleted(time.Second)
		c.StaleDropped()
		c.Pick(true)
	})
}

func TestSnapshotLogValue(t *testing.T) {
	var c Counters
	c.Pick(true)

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("stats", "frame", c.Snapshot())
	assert.Contains(t, buf.String(), "frame.pick_hits=1")
}
