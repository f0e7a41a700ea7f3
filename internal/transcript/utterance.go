package transcript

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Utterance is one externally-diarized speech turn. Utterances are produced by
// the transcription collaborator at ingest time and never mutated afterwards;
// all speaker corrections live in the EditStore as segment lists.
type Utterance struct {
	ID            string `json:"id"`
	SpeakerID     string `json:"speakerId"`
	SpeakerLabel  string `json:"speakerLabel,omitempty"`
	Text          string `json:"text"`
	StartMs       int64  `json:"startMs"`
	EndMs         int64  `json:"endMs"`
	SequenceIndex int    `json:"sequenceIndex"`
}

// DisplayLabel returns the label shown for the utterance's original speaker,
// falling back to the raw speaker id when no label was provided.
func (u Utterance) DisplayLabel() string {
	if u.SpeakerLabel != "" {
		return u.SpeakerLabel
	}
	return u.SpeakerID
}

// Validate checks the fields an ingestion collaborator must provide.
func (u Utterance) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("utterance id is required")
	}
	if strings.TrimSpace(u.SpeakerID) == "" {
		return fmt.Errorf("utterance %s: speaker id is required", u.ID)
	}
	if u.Text == "" {
		return fmt.Errorf("utterance %s: text is empty", u.ID)
	}
	if u.StartMs < 0 || u.EndMs <= u.StartMs {
		return fmt.Errorf("utterance %s: invalid time range [%d, %d)", u.ID, u.StartMs, u.EndMs)
	}
	return nil
}

// SortBySequence returns a copy of utterances ordered by SequenceIndex.
func SortBySequence(utterances []Utterance) []Utterance {
	ordered := make([]Utterance, len(utterances))
	copy(ordered, utterances)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SequenceIndex < ordered[j].SequenceIndex
	})
	return ordered
}
