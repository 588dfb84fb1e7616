package strategy

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/backmassage/motionbench/internal/motion"
)

// collector is the single reader side of a result channel. It tallies done
// events into a Report and, for PipeAggregated, holds console events until
// the channel has drained, adding a summary line after each stream that
// saw motion.
type collector struct {
	report  *Report
	keep    bool
	pending []Event
	done    map[string]bool
	errText map[string]string
}

func newCollector(r *Report, keep bool) *collector {
	return &collector{
		report:  r,
		keep:    keep,
		done:    make(map[string]bool),
		errText: make(map[string]string),
	}
}

func (c *collector) handle(msg string) {
	e, err := DecodeEvent(msg)
	if err != nil {
		c.report.Err = multierr.Append(c.report.Err, err)
		return
	}
	switch e.Kind {
	case EventDone:
		if c.done[e.StreamID] {
			return
		}
		c.done[e.StreamID] = true
		o := outcome{StreamID: e.StreamID, Summary: e.Summary}
		if e.Failed {
			if text, ok := c.errText[e.StreamID]; ok {
				o.Err = errors.New(text)
			} else {
				o.Err = &motion.StreamError{StreamID: e.StreamID, Err: errors.New("failed in worker")}
			}
		}
		c.report.add(o)
		if c.keep && e.Summary.MotionFrames > 0 {
			c.pending = append(c.pending, motionEvent(e.StreamID, motion.SummaryMessage(e.StreamID)))
		}
	case EventError:
		c.errText[e.StreamID] = e.Text
		fallthrough
	default:
		if c.keep {
			c.pending = append(c.pending, e)
		}
	}
}

// flush prints the held console events in arrival order.
func (c *collector) flush(sink Sink) {
	for _, e := range c.pending {
		_ = sink.Emit(e)
	}
	c.pending = nil
}

// finish counts every stream that never reported as failed.
func (c *collector) finish(streams []motion.Stream) {
	for _, s := range streams {
		if !c.done[s.ID] {
			c.report.add(outcome{
				StreamID: s.ID,
				Err:      &motion.StreamError{StreamID: s.ID, Err: fmt.Errorf("no result from worker")},
			})
		}
	}
}
