// Package buffer implements a fixed-capacity circular buffer shared by one
// producer and one consumer, synchronized with three counting permits:
//
//	emptySlots  (starts at capacity)  bounds the producer
//	filledSlots (starts at 0)         bounds the consumer
//	exclusive   (binary)              serializes index mutation
//
// Put acquires emptySlots then exclusive and releases exclusive then
// filledSlots. Take mirrors it with filledSlots and emptySlots. The order
// is fixed; swapping the acquires can deadlock.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrCapacity is returned by New for a capacity below one.
var ErrCapacity = errors.New("buffer capacity must be at least 1")

// Buffer is the shared ring. Only the owner of each role may call Put or
// Take; Snapshot may be called from anywhere.
type Buffer struct {
	slots    []int
	occupied []bool
	capacity int

	// Guarded by exclusive.
	writeIndex int
	readIndex  int
	filled     int

	emptySlots  *semaphore.Weighted
	filledSlots *semaphore.Weighted
	exclusive   *semaphore.Weighted

	snap atomic.Pointer[Occupancy]
}

// Occupancy is a point-in-time copy of the buffer state.
type Occupancy struct {
	Capacity   int
	Filled     int
	WriteIndex int
	ReadIndex  int
	Slots      []int
	Occupied   []bool
}

// New returns an empty buffer with the given capacity.
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrCapacity, capacity)
	}
	b := &Buffer{
		slots:       make([]int, capacity),
		occupied:    make([]bool, capacity),
		capacity:    capacity,
		emptySlots:  semaphore.NewWeighted(int64(capacity)),
		filledSlots: semaphore.NewWeighted(int64(capacity)),
		exclusive:   semaphore.NewWeighted(1),
	}
	// filledSlots starts with no permits available.
	if !b.filledSlots.TryAcquire(int64(capacity)) {
		return nil, errors.New("buffer: cannot initialise filled-slot permits")
	}
	b.publish()
	return b, nil
}

// Capacity returns the slot count.
func (b *Buffer) Capacity() int { return b.capacity }

// Put stores item in the next free slot, blocking while the buffer is
// full. It returns the slot written. On cancellation no state changes and
// no permit is leaked.
func (b *Buffer) Put(ctx context.Context, item int) (int, error) {
	if err := b.emptySlots.Acquire(ctx, 1); err != nil {
		return -1, err
	}
	if err := b.exclusive.Acquire(ctx, 1); err != nil {
		b.emptySlots.Release(1)
		return -1, err
	}

	slot := b.writeIndex
	b.slots[slot] = item
	b.occupied[slot] = true
	b.writeIndex = (b.writeIndex + 1) % b.capacity
	b.filled++
	b.publish()

	b.exclusive.Release(1)
	b.filledSlots.Release(1)
	return slot, nil
}

// Take removes the oldest item, blocking while the buffer is empty. It
// returns the item and the slot it came from.
func (b *Buffer) Take(ctx context.Context) (item, slot int, err error) {
	if err := b.filledSlots.Acquire(ctx, 1); err != nil {
		return 0, -1, err
	}
	if err := b.exclusive.Acquire(ctx, 1); err != nil {
		b.filledSlots.Release(1)
		return 0, -1, err
	}

	slot = b.readIndex
	item = b.slots[slot]
	b.occupied[slot] = false
	b.readIndex = (b.readIndex + 1) % b.capacity
	b.filled--
	b.publish()

	b.exclusive.Release(1)
	b.emptySlots.Release(1)
	return item, slot, nil
}

// Snapshot returns the last published state without taking any permit. It
// may lag behind an in-flight Put or Take.
func (b *Buffer) Snapshot() Occupancy {
	return *b.snap.Load()
}

// publish copies the state for observers. Caller holds exclusive.
func (b *Buffer) publish() {
	o := &Occupancy{
		Capacity:   b.capacity,
		Filled:     b.filled,
		WriteIndex: b.writeIndex,
		ReadIndex:  b.readIndex,
		Slots:      append([]int(nil), b.slots...),
		Occupied:   append([]bool(nil), b.occupied...),
	}
	b.snap.Store(o)
}

// String renders the slots as "[12 87 .. .. ..] 2/5".
func (o Occupancy) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range o.Slots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if o.Occupied[i] {
			s := strconv.Itoa(o.Slots[i])
			if len(s) < 2 {
				sb.WriteByte(' ')
			}
			sb.WriteString(s)
		} else {
			sb.WriteString("..")
		}
	}
	sb.WriteString("] ")
	sb.WriteString(strconv.Itoa(o.Filled))
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(o.Capacity))
	return sb.String()
}
