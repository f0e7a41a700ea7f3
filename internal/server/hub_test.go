package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastEventShape(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.BroadcastEditApplied("tr1", "u1", "split", 1)

	select {
	case msg := <-ch:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if payload["type"] != "edit_applied" {
			t.Fatalf("expected event type edit_applied, got %#v", payload["type"])
		}
		if payload["version"] == nil {
			t.Fatalf("expected version field in payload: %s", string(msg))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("expected timestamp field in payload: %s", string(msg))
		}
		if payload["op"] != "split" || payload["utteranceId"] != "u1" {
			t.Fatalf("unexpected payload: %s", string(msg))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill the subscriber buffer, then broadcast once more. The extra
	// message is dropped instead of stalling the broadcaster.
	for i := 0; i < 70; i++ {
		hub.BroadcastTranscriptDeleted("tr1")
	}

	if got := len(ch); got != cap(ch) {
		t.Fatalf("expected full channel of %d, got %d", cap(ch), got)
	}
}

func TestEventSerialization(t *testing.T) {
	events := []any{
		TranscriptCreatedEvent{Event: newEvent("transcript_created", time.Unix(1, 0)), TranscriptID: "tr1", Title: "Hearing", UtteranceCount: 2},
		TranscriptDeletedEvent{Event: newEvent("transcript_deleted", time.Unix(1, 0)), TranscriptID: "tr1"},
		EditAppliedEvent{Event: newEvent("edit_applied", time.Unix(1, 0)), TranscriptID: "tr1", UtteranceID: "u1", Op: "split", EditedUtteranceCount: 1},
		EditsRevertedEvent{Event: newEvent("edits_reverted", time.Unix(1, 0)), TranscriptID: "tr1"},
		SummaryReadyEvent{Event: newEvent("summary_ready", time.Unix(1, 0)), TranscriptID: "tr1", Summary: "ok", Status: "completed"},
	}

	for _, event := range events {
		b, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(b, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if payload["type"] == nil {
			t.Fatalf("missing type in payload: %s", string(b))
		}
		if payload["version"] == nil {
			t.Fatalf("missing version in payload: %s", string(b))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("missing timestamp in payload: %s", string(b))
		}
	}
}
