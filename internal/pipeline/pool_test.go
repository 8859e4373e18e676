package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resumatch/internal/errors"
)

func TestPoolBound(t *testing.T) {
	const size = 3
	p := NewPool(size)

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func() error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Do() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > size {
		t.Errorf("peak concurrency = %d, want <= %d", got, size)
	}
	stats := p.Stats()
	if stats.Completed != 20 || stats.InFlight != 0 {
		t.Errorf("Stats() = %+v, want 20 completed and none in flight", stats)
	}
}

func TestPoolAbandonedWorkKeepsSlot(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- p.Do(ctx, func() error {
			<-release
			return nil
		})
	}()
	waitFor(t, func() bool { return p.Stats().InFlight == 1 })

	cancel()
	if err := <-errc; !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if got := p.Stats(); got.InFlight != 1 || got.Abandoned != 1 {
		t.Fatalf("Stats() = %+v, want abandoned work still in flight", got)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	if err := p.Do(short, func() error { return nil }); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() on a full pool error = %v, want deadline exceeded", err)
	}

	close(release)
	waitFor(t, func() bool { return p.Stats().InFlight == 0 })
	if err := p.Do(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("Do() after release error = %v", err)
	}
}

func TestPoolPanic(t *testing.T) {
	p := NewPool(1)
	err := p.Do(context.Background(), func() error { panic("boom") })
	if !errors.IsType(err, errors.ErrorTypeInternal) {
		t.Fatalf("Do() error = %v, want internal", err)
	}
	if p.Stats().InFlight != 0 {
		t.Error("slot not released after panic")
	}
}

func TestRun(t *testing.T) {
	p := NewPool(2)

	got, err := Run(context.Background(), p, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("Run() = %q, %v", got, err)
	}

	want := stderrors.New("stage failed")
	got, err = Run(context.Background(), p, func() (string, error) { return "partial", want })
	if !stderrors.Is(err, want) || got != "" {
		t.Errorf("Run() = %q, %v; want zero value and %v", got, err, want)
	}
}

func TestNewPoolDefaultSize(t *testing.T) {
	if got := NewPool(0).Stats().Size; got < 1 {
		t.Errorf("Size = %d, want at least 1", got)
	}
}
