package transcript

import "fmt"

// EditStore holds the per-utterance speaker corrections for one editing
// session. Only utterances that deviate from their original single-speaker
// partition have an entry; an empty (non-nil) segment list is the sentinel
// for a deleted utterance. The store is not safe for concurrent use — each
// request works on its own store (or a Snapshot) and swaps results in whole.
type EditStore struct {
	order      []Utterance
	utterances map[string]Utterance
	edits      map[string][]TextSegment
}

// NewEditStore builds a store over the transcript's baseline utterances.
// The edit map starts empty: the originals are always the baseline.
func NewEditStore(utterances []Utterance) *EditStore {
	ordered := SortBySequence(utterances)
	byID := make(map[string]Utterance, len(ordered))
	for _, u := range ordered {
		byID[u.ID] = u
	}
	return &EditStore{
		order:      ordered,
		utterances: byID,
		edits:      make(map[string][]TextSegment),
	}
}

// Utterances returns the baseline utterances in sequence order.
func (s *EditStore) Utterances() []Utterance {
	return s.order
}

// Resolve returns the current segment list for an utterance: its stored edit
// if present, otherwise the trivial single-segment default. The empty slice
// means the utterance is deleted from output.
func (s *EditStore) Resolve(utteranceID string) ([]TextSegment, error) {
	u, ok := s.utterances[utteranceID]
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", utteranceID, ErrUnknownUtterance)
	}
	if segs, ok := s.edits[utteranceID]; ok {
		return segs, nil
	}
	return DefaultSegments(u), nil
}

// SplitAndReassign reattributes [start, end) of the utterance's current text
// to a new speaker and stores the result, collapsing back to baseline if the
// outcome is the original attribution.
func (s *EditStore) SplitAndReassign(utteranceID string, start, end int, speakerID, speakerLabel string) ([]TextSegment, error) {
	segs, err := s.Resolve(utteranceID)
	if err != nil {
		return nil, err
	}
	if start < 0 || start >= end || end > len(JoinedText(segs)) {
		return nil, fmt.Errorf("split %s [%d, %d): %w", utteranceID, start, end, ErrInvalidRange)
	}

	return s.commit(utteranceID, SplitAndReassign(segs, start, end, speakerID, speakerLabel)), nil
}

// ReassignUtterance attributes the utterance's entire current text to one
// speaker. Reassigning to the original speaker reverts the edit.
func (s *EditStore) ReassignUtterance(utteranceID, speakerID, speakerLabel string) ([]TextSegment, error) {
	segs, err := s.Resolve(utteranceID)
	if err != nil {
		return nil, err
	}
	text := JoinedText(segs)
	if text == "" {
		// Deleted utterance: reassigning restores it with the new speaker.
		text = s.utterances[utteranceID].Text
	}

	return s.commit(utteranceID, []TextSegment{{
		SpeakerID:    speakerID,
		SpeakerLabel: speakerLabel,
		Text:         text,
		StartChar:    0,
		EndChar:      len(text),
	}}), nil
}

// DeleteSegmentAt removes one segment from the utterance's current list and
// re-indexes the remainder. Removing the last segment marks the utterance
// deleted (empty-list sentinel), which is distinct from having no edit.
func (s *EditStore) DeleteSegmentAt(utteranceID string, index int) ([]TextSegment, error) {
	segs, err := s.Resolve(utteranceID)
	if err != nil {
		return nil, err
	}

	remaining, err := DeleteSegment(segs, index)
	if err != nil {
		return nil, err
	}
	return s.commit(utteranceID, remaining), nil
}

// DeleteUtterance marks the utterance as removed from all output.
func (s *EditStore) DeleteUtterance(utteranceID string) error {
	if _, ok := s.utterances[utteranceID]; !ok {
		return fmt.Errorf("delete %s: %w", utteranceID, ErrUnknownUtterance)
	}
	s.edits[utteranceID] = []TextSegment{}
	return nil
}

// RestoreUtterance clears the deletion sentinel (or any other edit),
// returning the utterance to its original attribution.
func (s *EditStore) RestoreUtterance(utteranceID string) error {
	if _, ok := s.utterances[utteranceID]; !ok {
		return fmt.Errorf("restore %s: %w", utteranceID, ErrUnknownUtterance)
	}
	delete(s.edits, utteranceID)
	return nil
}

// Revert drops the edit for one utterance, restoring the baseline.
func (s *EditStore) Revert(utteranceID string) {
	delete(s.edits, utteranceID)
}

// RevertAll drops every edit.
func (s *EditStore) RevertAll() {
	s.edits = make(map[string][]TextSegment)
}

// EditedCount reports how many utterances currently deviate from baseline.
// No-op edits are collapsed on commit, so this counts real deviations only.
func (s *EditStore) EditedCount() int {
	return len(s.edits)
}

// Edits returns the stored deviations keyed by utterance id. The returned
// map is a copy; segment slices are shared but never mutated in place.
func (s *EditStore) Edits() map[string][]TextSegment {
	out := make(map[string][]TextSegment, len(s.edits))
	for id, segs := range s.edits {
		out[id] = segs
	}
	return out
}

// SetEdit installs a previously persisted segment list, applying the same
// no-op collapse as live edits. Used when rehydrating a store from storage.
func (s *EditStore) SetEdit(utteranceID string, segs []TextSegment) error {
	if _, ok := s.utterances[utteranceID]; !ok {
		return fmt.Errorf("set edit %s: %w", utteranceID, ErrUnknownUtterance)
	}
	s.commit(utteranceID, MergeAdjacent(segs))
	return nil
}

// Snapshot returns an independent copy of the store. Edits applied to the
// copy do not affect the original, so a caller can compute a proposed change
// and discard it without committing.
func (s *EditStore) Snapshot() *EditStore {
	edits := make(map[string][]TextSegment, len(s.edits))
	for id, segs := range s.edits {
		copied := make([]TextSegment, len(segs))
		copy(copied, segs)
		edits[id] = copied
	}
	return &EditStore{
		order:      s.order,
		utterances: s.utterances,
		edits:      edits,
	}
}

// commit stores the segment list for an utterance, removing the entry
// entirely when it is semantically identical to the unedited default so
// EditedCount reflects only real deviations.
func (s *EditStore) commit(utteranceID string, segs []TextSegment) []TextSegment {
	u := s.utterances[utteranceID]
	if len(segs) == 1 && segs[0].SpeakerID == u.SpeakerID && segs[0].Text == u.Text {
		delete(s.edits, utteranceID)
		return DefaultSegments(u)
	}
	s.edits[utteranceID] = segs
	return segs
}
