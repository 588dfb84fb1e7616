package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/backmassage/motionbench/internal/buffer"
	"github.com/backmassage/motionbench/internal/config"
	"github.com/backmassage/motionbench/internal/logging"
	"github.com/backmassage/motionbench/internal/term"
)

// RunBufferDemo runs the producer/consumer demonstration over a bounded
// buffer and logs every transfer. The observer logs the buffer contents
// whenever they change between two samples.
func RunBufferDemo(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("Bounded buffer: capacity %d, %d item(s)", cfg.BufferCapacity, cfg.BufferItems)

	var last string
	report, err := buffer.RunDemo(ctx, buffer.DemoOptions{
		Capacity:        cfg.BufferCapacity,
		Items:           cfg.BufferItems,
		Delay:           cfg.BufferDelay,
		ObserveInterval: cfg.ObserveInterval,
		OnProduce: func(item, slot int) {
			log.Info("Producer produced %d at slot %d", item, slot)
		},
		OnConsume: func(item, slot int) {
			log.Info("Consumer consumed %d from slot %d", item, slot)
		},
		OnObserve: func(o buffer.Occupancy) {
			s := o.String()
			if s == last {
				return
			}
			last = s
			log.Info("Buffer %s", formatOccupancy(o))
		},
	})
	if err != nil {
		return err
	}

	if report.Final.Filled != 0 || report.Final.WriteIndex != report.Final.ReadIndex {
		return fmt.Errorf("buffer not drained: %s", report.Final)
	}
	for i := range report.Produced {
		if report.Consumed[i] != report.Produced[i] {
			return fmt.Errorf("item %d consumed out of order: got %d, want %d", i, report.Consumed[i], report.Produced[i])
		}
	}
	log.Success("Production and consumption finished.")
	return nil
}

// formatOccupancy renders each slot green when filled and red when empty.
func formatOccupancy(o buffer.Occupancy) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range o.Slots {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if o.Occupied[i] {
			sb.WriteString(term.Green + fmt.Sprintf("%2d", o.Slots[i]) + term.NC)
		} else {
			sb.WriteString(term.Red + ".." + term.NC)
		}
	}
	fmt.Fprintf(&sb, "] %d/%d", o.Filled, o.Capacity)
	return sb.String()
}
