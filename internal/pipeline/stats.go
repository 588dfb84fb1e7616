package pipeline

import (
	"time"

	"github.com/backmassage/motionbench/internal/strategy"
)

// RunStats summarizes one strategy run.
type RunStats struct {
	Strategy     string
	Streams      int
	Failed       int
	Frames       int
	Results      int
	MotionFrames int
	Bytes        int64
	Elapsed      time.Duration
}

// Succeeded returns how many streams ran to completion.
func (s *RunStats) Succeeded() int {
	return s.Streams - s.Failed
}

func statsFromReport(r strategy.Report, elapsed time.Duration) RunStats {
	return RunStats{
		Strategy:     r.Strategy,
		Streams:      r.Streams,
		Failed:       r.Failed,
		Frames:       r.Frames,
		Results:      r.Results,
		MotionFrames: r.MotionFrames,
		Bytes:        r.Bytes,
		Elapsed:      elapsed,
	}
}
