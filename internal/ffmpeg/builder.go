// Package ffmpeg decodes video files into 8-bit grayscale frames by running
// ffmpeg with a rawvideo output on a pipe.
package ffmpeg

import (
	"github.com/backmassage/motionbench/internal/config"
)

// BuildDecode constructs the ffmpeg argument slice that decodes path into
// raw gray frames on stdout. Audio, subtitle and data streams are dropped
// and only the first video stream is mapped.
func BuildDecode(cfg *config.Config, path string) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin")

	// Loglevel: warning when verbose, otherwise error.
	if cfg.Verbose {
		args = append(args, "-loglevel", "warning")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// Probe constants.
	args = append(args,
		"-probesize", cfg.FFmpegProbesize,
		"-analyzeduration", cfg.FFmpegAnalyzeDuration,
	)

	// --- Input ---
	args = append(args, "-i", path)

	// --- Output: first video stream, gray rawvideo on pipe:1 ---
	args = append(args,
		"-map", "0:v:0",
		"-an", "-sn", "-dn",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"pipe:1",
	)
	return args
}

// BuildSelfTest constructs a decode of a short lavfi test pattern, used by
// --check to confirm the gray rawvideo path works on this machine.
func BuildSelfTest(width, height, frames int) []string {
	return []string{
		"ffmpeg", "-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi",
		"-i", "testsrc=size=" + itoa(width) + "x" + itoa(height) + ":rate=25",
		"-frames:v", itoa(frames),
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"pipe:1",
	}
}
