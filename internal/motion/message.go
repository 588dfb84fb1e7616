package motion

import "fmt"

// StartMessage announces that a worker began processing streamID.
func StartMessage(streamID string) string {
	return "Traitement de la vidéo : " + streamID
}

// PixelCountMessage reports the changed-pixel total for one frame.
func PixelCountMessage(streamID string, n int) string {
	return fmt.Sprintf("Motion detected in %s, affected pixel count: %d", streamID, n)
}

// PositionMessage reports the centroid of one region.
func PositionMessage(streamID string, x, y int) string {
	return fmt.Sprintf("Motion detected in %s at position: (%d, %d)", streamID, x, y)
}

// SummaryMessage closes the output of a stream that had at least one
// motion frame.
func SummaryMessage(streamID string) string {
	return "Mouvement détecté dans " + streamID
}

// Lines renders a Result as console messages: the pixel count followed by one
// position per region. A result without motion renders nothing.
func Lines(r Result) []string {
	if !r.HasMotion() {
		return nil
	}
	lines := make([]string, 0, 1+len(r.Regions))
	lines = append(lines, PixelCountMessage(r.StreamID, r.ChangedPixels))
	for _, reg := range r.Regions {
		lines = append(lines, PositionMessage(r.StreamID, reg.X, reg.Y))
	}
	return lines
}
