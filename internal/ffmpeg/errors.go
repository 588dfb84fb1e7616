package ffmpeg

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel errors for classified ffmpeg failures.
var (
	ErrInvalidInput = errors.New("invalid or unreadable input")
	ErrNoDecoder    = errors.New("no decoder for video stream")
	ErrDecode       = errors.New("decode failed")
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var (
	reInvalidInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`No such file or directory|` +
			`Permission denied|` +
			`moov atom not found|` +
			`Output file does not contain any stream|` +
			`Stream map '0:v:0' matches no streams`)

	reNoDecoder = regexp.MustCompile(
		`(?i)Decoder \(codec .*\) not found|` +
			`Failed to open codec|` +
			`Could not find codec parameters`)
)

// Classify maps ffmpeg stderr output to one of the sentinel errors. Output
// that matches no known pattern yields ErrDecode.
func Classify(stderr string) error {
	switch {
	case reInvalidInput.MatchString(stderr):
		return ErrInvalidInput
	case reNoDecoder.MatchString(stderr):
		return ErrNoDecoder
	}
	return ErrDecode
}

// lastLine returns the final non-empty line of s, which is where ffmpeg
// puts the fatal message.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }
