package transcript

// RenderedSegment is a flattened, cross-utterance-merged unit of
// speaker-attributed text: the shape consumed by playback highlighting and
// by every export renderer.
type RenderedSegment struct {
	SpeakerID    string `json:"speakerId"`
	SpeakerLabel string `json:"speakerLabel,omitempty"`
	Text         string `json:"text"`
	StartMs      int64  `json:"startMs"`
	EndMs        int64  `json:"endMs"`
}

// DisplayLabel returns the label shown for the segment's speaker, falling
// back to the raw speaker id.
func (r RenderedSegment) DisplayLabel() string {
	if r.SpeakerLabel != "" {
		return r.SpeakerLabel
	}
	return r.SpeakerID
}

// Flatten walks the transcript in sequence order, resolves each utterance to
// its current segment list, and emits one rendered segment per text segment.
// Segments inherit their utterance's time bounds (sub-utterance segments have
// no independent timing). Deleted utterances emit nothing.
//
// Consecutive rendered segments sharing a speaker are merged, including
// across utterance boundaries, joining text with a single space and extending
// the end time. A merged segment's StartMs belongs to its first contributing
// utterance only, so playback timing is approximate after a merge.
func Flatten(store *EditStore) []RenderedSegment {
	var out []RenderedSegment

	for _, u := range store.Utterances() {
		segs, err := store.Resolve(u.ID)
		if err != nil {
			continue
		}
		for _, seg := range segs {
			rs := RenderedSegment{
				SpeakerID:    seg.SpeakerID,
				SpeakerLabel: seg.SpeakerLabel,
				Text:         seg.Text,
				StartMs:      u.StartMs,
				EndMs:        u.EndMs,
			}
			if n := len(out); n > 0 && out[n-1].SpeakerID == rs.SpeakerID {
				last := &out[n-1]
				last.Text += " " + rs.Text
				if rs.EndMs > last.EndMs {
					last.EndMs = rs.EndMs
				}
				continue
			}
			out = append(out, rs)
		}
	}

	return out
}
