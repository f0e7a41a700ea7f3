package transcript

import (
	"fmt"
	"strings"
)

// TextSegment is a sub-span of an utterance's text attributed to one speaker.
// Offsets index into the utterance's current text: a segment list is sorted,
// contiguous from 0, and its concatenated text equals the text it partitions.
// Edits reassign speakers; they never rewrite wording.
type TextSegment struct {
	SpeakerID    string `json:"speakerId"`
	SpeakerLabel string `json:"speakerLabel,omitempty"`
	Text         string `json:"text"`
	StartChar    int    `json:"startCharIndex"`
	EndChar      int    `json:"endCharIndex"`
}

// DisplayLabel returns the label shown for the segment's speaker, falling
// back to the raw speaker id.
func (s TextSegment) DisplayLabel() string {
	if s.SpeakerLabel != "" {
		return s.SpeakerLabel
	}
	return s.SpeakerID
}

// DefaultSegments returns the trivial single-speaker partition of an
// unedited utterance.
func DefaultSegments(u Utterance) []TextSegment {
	return []TextSegment{{
		SpeakerID:    u.SpeakerID,
		SpeakerLabel: u.SpeakerLabel,
		Text:         u.Text,
		StartChar:    0,
		EndChar:      len(u.Text),
	}}
}

// JoinedText returns the concatenation of all segment text, i.e. the text the
// segment offsets index into.
func JoinedText(segs []TextSegment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// SplitAndReassign reattributes the character range [start, end) to a new
// speaker. Segments overlapping the range are truncated at its boundaries,
// the covered sub-range becomes a single new segment, and the non-overlapping
// remainders keep their original speaker. The input is never modified; an
// empty or out-of-bounds range returns the input unchanged (callers validate
// ranges up front, see EditStore).
func SplitAndReassign(segs []TextSegment, start, end int, speakerID, speakerLabel string) []TextSegment {
	if len(segs) == 0 || start < 0 || start >= end || end > segs[len(segs)-1].EndChar {
		return segs
	}

	out := make([]TextSegment, 0, len(segs)+2)
	var covered strings.Builder
	inserted := -1

	for _, s := range segs {
		if s.EndChar <= start || s.StartChar >= end {
			out = append(out, s)
			continue
		}

		if s.StartChar < start {
			out = append(out, TextSegment{
				SpeakerID:    s.SpeakerID,
				SpeakerLabel: s.SpeakerLabel,
				Text:         s.Text[:start-s.StartChar],
				StartChar:    s.StartChar,
				EndChar:      start,
			})
		}

		if inserted < 0 {
			inserted = len(out)
			out = append(out, TextSegment{})
		}

		lo := s.StartChar
		if start > lo {
			lo = start
		}
		hi := s.EndChar
		if end < hi {
			hi = end
		}
		covered.WriteString(s.Text[lo-s.StartChar : hi-s.StartChar])

		if s.EndChar > end {
			out = append(out, TextSegment{
				SpeakerID:    s.SpeakerID,
				SpeakerLabel: s.SpeakerLabel,
				Text:         s.Text[end-s.StartChar:],
				StartChar:    end,
				EndChar:      s.EndChar,
			})
		}
	}

	out[inserted] = TextSegment{
		SpeakerID:    speakerID,
		SpeakerLabel: speakerLabel,
		Text:         covered.String(),
		StartChar:    start,
		EndChar:      end,
	}

	return MergeAdjacent(out)
}

// DeleteSegment removes the segment at index and re-indexes the remainder so
// offsets stay contiguous from 0. Deleting the last remaining segment yields
// the empty list, the sentinel for a fully deleted utterance.
func DeleteSegment(segs []TextSegment, index int) ([]TextSegment, error) {
	if index < 0 || index >= len(segs) {
		return nil, fmt.Errorf("delete segment %d of %d: %w", index, len(segs), ErrSegmentIndex)
	}

	out := make([]TextSegment, 0, len(segs)-1)
	out = append(out, segs[:index]...)
	out = append(out, segs[index+1:]...)
	return Reindex(MergeAdjacent(out)), nil
}

// MergeAdjacent collapses runs of consecutive segments that share a speaker
// id into single segments. It is applied after every structural mutation so a
// speaker turn is never fragmented into back-to-back segments; merging an
// already-merged list is a no-op.
func MergeAdjacent(segs []TextSegment) []TextSegment {
	if len(segs) < 2 {
		return segs
	}

	out := make([]TextSegment, 0, len(segs))
	out = append(out, segs[0])
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if s.SpeakerID == last.SpeakerID {
			last.Text += s.Text
			last.EndChar = s.EndChar
		} else {
			out = append(out, s)
		}
	}
	return out
}

// Reindex recomputes StartChar/EndChar so the list is contiguous from 0.
// It is the normalization pass run after deletions, which shift all
// offsets to the right of the removed span.
func Reindex(segs []TextSegment) []TextSegment {
	out := make([]TextSegment, len(segs))
	offset := 0
	for i, s := range segs {
		s.StartChar = offset
		offset += len(s.Text)
		s.EndChar = offset
		out[i] = s
	}
	return out
}

// ValidateSegments checks the structural invariant of a segment list: sorted,
// contiguous from 0, offsets consistent with text lengths, no empty segments.
// A violation can only come from an internal bug, so callers treat a non-nil
// error as fatal.
func ValidateSegments(segs []TextSegment) error {
	offset := 0
	for i, s := range segs {
		if s.Text == "" {
			return fmt.Errorf("segment %d: empty text", i)
		}
		if s.StartChar != offset {
			return fmt.Errorf("segment %d: starts at %d, want %d", i, s.StartChar, offset)
		}
		if s.EndChar != s.StartChar+len(s.Text) {
			return fmt.Errorf("segment %d: ends at %d, want %d", i, s.EndChar, s.StartChar+len(s.Text))
		}
		offset = s.EndChar
	}
	return nil
}
