package strategy

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/resultchan"
)

// Sink receives the events of running streams. Each Emit is one whole
// message; implementations never split it.
type Sink interface {
	Emit(Event) error
}

// ConsoleSink prints events through the logger, one line per event.
type ConsoleSink struct {
	Log *logging.Logger
}

func (s ConsoleSink) Emit(e Event) error {
	switch e.Kind {
	case EventStart:
		s.Log.Info("%s", e.Text)
	case EventMotion:
		s.Log.Motion("%s", e.Text)
	case EventError:
		s.Log.Error("%s", e.Text)
	}
	return nil
}

// GuardedSink forwards to Next while holding a binary permit, so exactly
// one message is in flight at a time.
type GuardedSink struct {
	ctx    context.Context
	permit *semaphore.Weighted
	Next   Sink
}

// NewGuardedSink returns a sink guarded by a fresh binary permit.
func NewGuardedSink(ctx context.Context, next Sink) *GuardedSink {
	return &GuardedSink{ctx: ctx, permit: semaphore.NewWeighted(1), Next: next}
}

func (s *GuardedSink) Emit(e Event) error {
	if err := s.permit.Acquire(s.ctx, 1); err != nil {
		return err
	}
	defer s.permit.Release(1)
	return s.Next.Emit(e)
}

// ChannelSink encodes events onto a result channel.
type ChannelSink struct {
	W *resultchan.Writer
}

func (s ChannelSink) Emit(e Event) error {
	return s.W.WriteLine(e.Encode())
}
