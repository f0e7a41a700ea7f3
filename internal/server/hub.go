package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mwhitfield/redline/internal/logging"
)

// Hub fans broadcast events out to subscribed WebSocket clients. Slow clients
// drop messages rather than stall the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastTranscriptCreated(transcriptID, title string, utteranceCount int) {
	h.broadcastEvent(TranscriptCreatedEvent{
		Event:          newEvent("transcript_created", time.Now().UTC()),
		TranscriptID:   transcriptID,
		Title:          title,
		UtteranceCount: utteranceCount,
	})
}

func (h *Hub) BroadcastTranscriptDeleted(transcriptID string) {
	h.broadcastEvent(TranscriptDeletedEvent{
		Event:        newEvent("transcript_deleted", time.Now().UTC()),
		TranscriptID: transcriptID,
	})
}

func (h *Hub) BroadcastEditApplied(transcriptID, utteranceID, op string, editedCount int) {
	h.broadcastEvent(EditAppliedEvent{
		Event:                newEvent("edit_applied", time.Now().UTC()),
		TranscriptID:         transcriptID,
		UtteranceID:          utteranceID,
		Op:                   op,
		EditedUtteranceCount: editedCount,
	})
}

func (h *Hub) BroadcastEditsReverted(transcriptID, utteranceID string, editedCount int) {
	h.broadcastEvent(EditsRevertedEvent{
		Event:                newEvent("edits_reverted", time.Now().UTC()),
		TranscriptID:         transcriptID,
		UtteranceID:          utteranceID,
		EditedUtteranceCount: editedCount,
	})
}

func (h *Hub) BroadcastSummaryReady(transcriptID, summaryText, status string) {
	h.broadcastEvent(SummaryReadyEvent{
		Event:        newEvent("summary_ready", time.Now().UTC()),
		TranscriptID: transcriptID,
		Summary:      summaryText,
		Status:       status,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger := logging.WithComponent("hub")
		logger.Error().Err(err).Msg("event marshal failed")
		return
	}
	h.Broadcast(payload)
}
