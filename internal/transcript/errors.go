package transcript

import "errors"

var (
	// ErrUnknownUtterance is returned when an edit names an utterance id that
	// is not part of the transcript.
	ErrUnknownUtterance = errors.New("unknown utterance id")

	// ErrInvalidRange is returned when a reattribution range is empty or falls
	// outside the utterance's current text.
	ErrInvalidRange = errors.New("invalid character range")

	// ErrSegmentIndex is returned when a segment index is out of range.
	ErrSegmentIndex = errors.New("segment index out of range")
)
