// Package probe reads stream geometry with a single ffprobe JSON call.
package probe

import (
	"errors"
	"strconv"
)

// ErrNoVideo is returned when a file has no decodable video stream.
var ErrNoVideo = errors.New("no video stream")

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
}

// VideoStream holds the geometry of the primary video stream.
type VideoStream struct {
	Index         int
	Codec         string
	PixFmt        string
	Width         int
	Height        int
	AvgFrameRate  string  // Raw "num/den" string.
	FrameRate     float64 // Parsed AvgFrameRate; 0 when unknown.
	NbFrames      int64   // 0 when the container does not record it.
	IsAttachedPic bool
}

// Result is the parsed output of a single ffprobe JSON call.
// Video is the first non-attached-pic video stream (nil if none).
type Result struct {
	Format FormatInfo
	Video  *VideoStream
}

// FrameSize returns the byte size of one 8-bit gray frame, or 0 when the
// geometry is unknown.
func (r *Result) FrameSize() int {
	if r.Video == nil || r.Video.Width <= 0 || r.Video.Height <= 0 {
		return 0
	}
	return r.Video.Width * r.Video.Height
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.FrameSize() == 0 {
		return "unknown"
	}
	return strconv.Itoa(r.Video.Width) + "x" + strconv.Itoa(r.Video.Height)
}
