package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dagfinn/faktura/internal/service"
)

// blockingCycler counts cycle starts and holds each cycle open until
// released, so tests can force overlap.
type blockingCycler struct {
	mu      sync.Mutex
	started int
	release chan struct{}
}

func (c *blockingCycler) ProcessDueInvoices(ctx context.Context) (service.CycleReport, error) {
	c.mu.Lock()
	c.started++
	c.mu.Unlock()

	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
		}
	}
	return service.CycleReport{}, nil
}

func (c *blockingCycler) startedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func TestWorker_RunsImmediatelyThenOnTicks(t *testing.T) {
	cycler := &blockingCycler{}
	w := New(cycler, 20*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// One immediate run plus several ticks.
	assert.GreaterOrEqual(t, cycler.startedCount(), 3)
}

func TestWorker_SkipsTickWhileCycleInFlight(t *testing.T) {
	cycler := &blockingCycler{release: make(chan struct{})}
	w := New(cycler, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()

	// The immediate cycle blocks while ticks keep firing; every tick must
	// hit the in-flight guard and be skipped.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, cycler.startedCount())

	// Once the stuck cycle is released, subsequent ticks run again.
	close(cycler.release)
	assert.Eventually(t, func() bool { return cycler.startedCount() >= 2 },
		200*time.Millisecond, 10*time.Millisecond)

	cancel()
	<-done
}
