package transcript

import "testing"

func TestFlattenUnedited(t *testing.T) {
	store := NewEditStore(testUtterances())
	rendered := Flatten(store)

	if len(rendered) != 3 {
		t.Fatalf("expected 3 rendered segments, got %d", len(rendered))
	}
	first := rendered[0]
	if first.SpeakerID != "A" || first.Text != "Objection your honor" || first.StartMs != 1000 || first.EndMs != 3000 {
		t.Fatalf("unexpected first rendered segment: %#v", first)
	}
}

func TestFlattenMergesAcrossUtterances(t *testing.T) {
	utterances := []Utterance{
		{ID: "u1", SpeakerID: "A", Text: "First part", StartMs: 0, EndMs: 1000, SequenceIndex: 0},
		{ID: "u2", SpeakerID: "A", Text: "second part", StartMs: 1200, EndMs: 2400, SequenceIndex: 1},
		{ID: "u3", SpeakerID: "B", Text: "Reply", StartMs: 2600, EndMs: 3000, SequenceIndex: 2},
	}
	store := NewEditStore(utterances)
	rendered := Flatten(store)

	if len(rendered) != 2 {
		t.Fatalf("expected 2 rendered segments, got %d", len(rendered))
	}
	if rendered[0].Text != "First part second part" {
		t.Fatalf("expected space-joined merge, got %q", rendered[0].Text)
	}
	if rendered[0].StartMs != 0 || rendered[0].EndMs != 2400 {
		t.Fatalf("expected merged bounds [0, 2400], got [%d, %d]", rendered[0].StartMs, rendered[0].EndMs)
	}
}

func TestFlattenNoAdjacentSameSpeaker(t *testing.T) {
	store := NewEditStore(testUtterances())
	if _, err := store.SplitAndReassign("u1", 10, 20, "B", ""); err != nil {
		t.Fatalf("SplitAndReassign failed: %v", err)
	}
	// u1 tail is now B, u2 is B: they must merge at the boundary.
	rendered := Flatten(store)

	for i := 1; i < len(rendered); i++ {
		if rendered[i].SpeakerID == rendered[i-1].SpeakerID {
			t.Fatalf("rendered segments %d and %d share speaker %q", i-1, i, rendered[i].SpeakerID)
		}
	}
	if rendered[1].Text != "your honor Sustained" {
		t.Fatalf("expected boundary merge, got %q", rendered[1].Text)
	}
	if rendered[1].EndMs != 4200 {
		t.Fatalf("expected merged EndMs 4200, got %d", rendered[1].EndMs)
	}
}

func TestFlattenSkipsDeletedUtterances(t *testing.T) {
	store := NewEditStore(testUtterances())
	if err := store.DeleteUtterance("u1"); err != nil {
		t.Fatalf("DeleteUtterance failed: %v", err)
	}

	rendered := Flatten(store)
	if len(rendered) != 2 {
		t.Fatalf("expected 2 rendered segments, got %d", len(rendered))
	}
	if rendered[0].Text != "Sustained" {
		t.Fatalf("expected u2 first, got %q", rendered[0].Text)
	}

	if err := store.RestoreUtterance("u1"); err != nil {
		t.Fatalf("RestoreUtterance failed: %v", err)
	}
	rendered = Flatten(store)
	if len(rendered) != 3 || rendered[0].Text != "Objection your honor" {
		t.Fatalf("expected original contribution back, got %#v", rendered)
	}
}

func TestFlattenAllDeletedIsEmpty(t *testing.T) {
	store := NewEditStore(testUtterances())
	for _, id := range []string{"u1", "u2", "u3"} {
		if err := store.DeleteUtterance(id); err != nil {
			t.Fatalf("DeleteUtterance %s failed: %v", id, err)
		}
	}
	if rendered := Flatten(store); len(rendered) != 0 {
		t.Fatalf("expected empty stream, got %#v", rendered)
	}
}

func TestFlattenOrdersBySequenceIndex(t *testing.T) {
	utterances := []Utterance{
		{ID: "b", SpeakerID: "B", Text: "second", StartMs: 1000, EndMs: 2000, SequenceIndex: 1},
		{ID: "a", SpeakerID: "A", Text: "first", StartMs: 0, EndMs: 900, SequenceIndex: 0},
	}
	rendered := Flatten(NewEditStore(utterances))

	if len(rendered) != 2 || rendered[0].Text != "first" || rendered[1].Text != "second" {
		t.Fatalf("expected sequence order, got %#v", rendered)
	}
}
