package segmenter

// BoundaryDue reports whether accumulated (seconds) has reached target,
// closing the current buffer. Shared by Segmenter's non-keyframe-aligned
// path and webvtt.Writer, which follows the same "close on target_duration,
// never split a unit" rule spec.md §4.6 describes for AudioSegmenter.
func BoundaryDue(accumulated, target float64) bool {
	return accumulated >= target
}
