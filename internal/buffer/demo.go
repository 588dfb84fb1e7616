package buffer

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
)

// ItemFunc is called after each produced or consumed item.
type ItemFunc func(item, slot int)

// Producer puts every item into b in order, pausing delay after each one.
func Producer(ctx context.Context, b *Buffer, items []int, delay time.Duration, onItem ItemFunc) error {
	for _, item := range items {
		slot, err := b.Put(ctx, item)
		if err != nil {
			return err
		}
		if onItem != nil {
			onItem(item, slot)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Consumer takes n items from b, pausing delay after each one, and returns
// them in the order taken.
func Consumer(ctx context.Context, b *Buffer, n int, delay time.Duration, onItem ItemFunc) ([]int, error) {
	got := make([]int, 0, n)
	for range n {
		item, slot, err := b.Take(ctx)
		if err != nil {
			return got, err
		}
		got = append(got, item)
		if onItem != nil {
			onItem(item, slot)
		}
		if err := sleep(ctx, delay); err != nil {
			return got, err
		}
	}
	return got, nil
}

// Observe calls fn with a snapshot of b every interval until ctx is done.
// It never touches the permits.
func Observe(ctx context.Context, b *Buffer, interval time.Duration, fn func(Occupancy)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(b.Snapshot())
		}
	}
}

// DemoOptions configure RunDemo.
type DemoOptions struct {
	Capacity        int
	Items           int
	Delay           time.Duration // Pause after each produce and each consume.
	ObserveInterval time.Duration // Zero disables the observer.
	Rand            *rand.Rand    // Item generator; nil uses a random seed.

	OnProduce ItemFunc
	OnConsume ItemFunc
	OnObserve func(Occupancy)
}

// DemoReport summarizes a finished demo.
type DemoReport struct {
	Produced     []int
	Consumed     []int
	Final        Occupancy
	Observations int
}

// RunDemo runs one producer and one consumer over a fresh buffer until both
// have handled opts.Items items. Items are drawn from [0, 100).
func RunDemo(ctx context.Context, opts DemoOptions) (DemoReport, error) {
	b, err := New(opts.Capacity)
	if err != nil {
		return DemoReport{}, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	report := DemoReport{Produced: make([]int, opts.Items)}
	for i := range report.Produced {
		report.Produced[i] = rng.IntN(100)
	}

	obsCtx, stopObserver := context.WithCancel(ctx)
	observerDone := make(chan struct{})
	if opts.ObserveInterval > 0 {
		go func() {
			defer close(observerDone)
			Observe(obsCtx, b, opts.ObserveInterval, func(o Occupancy) {
				report.Observations++
				if opts.OnObserve != nil {
					opts.OnObserve(o)
				}
			})
		}()
	} else {
		close(observerDone)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return Producer(gctx, b, report.Produced, opts.Delay, opts.OnProduce)
	})
	g.Go(func() error {
		consumed, err := Consumer(gctx, b, opts.Items, opts.Delay, opts.OnConsume)
		report.Consumed = consumed
		return err
	})
	err = g.Wait()

	stopObserver()
	<-observerDone
	report.Final = b.Snapshot()
	return report, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
