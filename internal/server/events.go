package server

import "time"

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type TranscriptCreatedEvent struct {
	Event
	TranscriptID   string `json:"transcriptId"`
	Title          string `json:"title"`
	UtteranceCount int    `json:"utteranceCount"`
}

type TranscriptDeletedEvent struct {
	Event
	TranscriptID string `json:"transcriptId"`
}

type EditAppliedEvent struct {
	Event
	TranscriptID         string `json:"transcriptId"`
	UtteranceID          string `json:"utteranceId"`
	Op                   string `json:"op"`
	EditedUtteranceCount int    `json:"editedUtteranceCount"`
}

type EditsRevertedEvent struct {
	Event
	TranscriptID         string `json:"transcriptId"`
	UtteranceID          string `json:"utteranceId,omitempty"`
	EditedUtteranceCount int    `json:"editedUtteranceCount"`
}

type SummaryReadyEvent struct {
	Event
	TranscriptID string `json:"transcriptId"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
