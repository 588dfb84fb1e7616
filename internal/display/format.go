// Package display holds console formatting helpers shared by the
// orchestrator and the diagnostics: sizes, durations, ratios, and the banner.
package display

import (
	"fmt"
	"time"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatSeconds renders d as seconds with two decimals (e.g. "3.27 s").
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// FormatSpeedup returns base/d as a multiplier label (e.g. "2.4x"), or
// "n/a" when either duration is zero.
func FormatSpeedup(base, d time.Duration) string {
	if base <= 0 || d <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1fx", float64(base)/float64(d))
}
