package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mwhitfield/redline/internal/export"
	"github.com/mwhitfield/redline/internal/logging"
	"github.com/mwhitfield/redline/internal/metrics"
	"github.com/mwhitfield/redline/internal/paginate"
	"github.com/mwhitfield/redline/internal/storage"
	"github.com/mwhitfield/redline/internal/transcript"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// TranscriptStore is the persistence surface the API needs. Implemented by
// storage.SQLiteStore.
type TranscriptStore interface {
	CreateTranscript(t storage.Transcript, utterances []transcript.Utterance) error
	GetTranscript(id string) (storage.Transcript, error)
	ListTranscripts() ([]storage.Transcript, error)
	DeleteTranscript(id string) error
	GetUtterances(transcriptID string) ([]transcript.Utterance, error)
	SaveEdit(transcriptID, utteranceID string, segments []transcript.TextSegment) error
	DeleteEdit(transcriptID, utteranceID string) error
	DeleteEdits(transcriptID string) error
	GetEdits(transcriptID string) (map[string][]transcript.TextSegment, error)
	UpdateSummary(transcriptID, summary, status string) error
}

// Summarizer produces an LLM synopsis of the flattened transcript. Nil means
// summaries are disabled (no API key configured).
type Summarizer interface {
	Summarize(ctx context.Context, segments []transcript.RenderedSegment) (string, error)
}

type createTranscriptRequest struct {
	Title      string                 `json:"title"`
	Source     string                 `json:"source"`
	Utterances []transcript.Utterance `json:"utterances"`
}

type editRequest struct {
	Op           string `json:"op"`
	UtteranceID  string `json:"utteranceId"`
	StartChar    int    `json:"startChar"`
	EndChar      int    `json:"endChar"`
	SpeakerID    string `json:"speakerId"`
	SpeakerLabel string `json:"speakerLabel"`
	SegmentIndex int    `json:"segmentIndex"`
}

type editResponse struct {
	UtteranceID          string                   `json:"utteranceId"`
	Segments             []transcript.TextSegment `json:"segments"`
	EditedUtteranceCount int                      `json:"editedUtteranceCount"`
}

func registerAPIRoutes(mux *http.ServeMux, store TranscriptStore, hub *Hub, summarizer Summarizer, pageCfg paginate.Config) {
	log := logging.WithComponent("api")

	mux.HandleFunc("GET /api/transcripts", func(w http.ResponseWriter, r *http.Request) {
		transcripts, err := store.ListTranscripts()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list transcripts: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, transcripts)
	})

	mux.HandleFunc("POST /api/transcripts", func(w http.ResponseWriter, r *http.Request) {
		var req createTranscriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
		if req.Title == "" {
			writeJSONError(w, http.StatusBadRequest, "title is required")
			return
		}

		for i := range req.Utterances {
			u := &req.Utterances[i]
			if u.ID == "" {
				id, err := gonanoid.New()
				if err != nil {
					writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("generate utterance id: %v", err))
					return
				}
				u.ID = id
			}
			u.SequenceIndex = i
			if err := u.Validate(); err != nil {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("utterance %d: %v", i, err))
				return
			}
		}

		id, err := gonanoid.New()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("generate transcript id: %v", err))
			return
		}

		meta := storage.Transcript{
			ID:        id,
			Title:     req.Title,
			Source:    req.Source,
			CreatedAt: time.Now().UTC(),
		}
		if err := store.CreateTranscript(meta, req.Utterances); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("create transcript: %v", err))
			return
		}

		metrics.Default.TranscriptsCreated.Inc()
		hub.BroadcastTranscriptCreated(id, req.Title, len(req.Utterances))
		log.Info().Str("transcriptId", id).Int("utterances", len(req.Utterances)).Msg("transcript created")

		meta.SummaryStatus = storage.SummaryPending
		meta.UtteranceCount = len(req.Utterances)
		writeJSON(w, http.StatusCreated, meta)
	})

	mux.HandleFunc("GET /api/transcripts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		meta, err := store.GetTranscript(id)
		if err != nil {
			writeStoreError(w, "get transcript", err)
			return
		}
		utterances, err := store.GetUtterances(id)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get utterances: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"transcript": meta,
			"utterances": utterances,
		})
	})

	mux.HandleFunc("DELETE /api/transcripts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		if err := store.DeleteTranscript(id); err != nil {
			writeStoreError(w, "delete transcript", err)
			return
		}

		metrics.Default.TranscriptsDeleted.Inc()
		hub.BroadcastTranscriptDeleted(id)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/transcripts/{id}/edits", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}

		if err := applyEdit(editStore, req); err != nil {
			writeEditError(w, err)
			return
		}

		// Persist the post-op state: an entry in the edit map is a deviation
		// to save, its absence means the op collapsed back to baseline.
		if segs, ok := editStore.Edits()[req.UtteranceID]; ok {
			err = store.SaveEdit(id, req.UtteranceID, segs)
		} else {
			err = store.DeleteEdit(id, req.UtteranceID)
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("persist edit: %v", err))
			return
		}

		metrics.Default.RecordEdit(req.Op)
		hub.BroadcastEditApplied(id, req.UtteranceID, req.Op, editStore.EditedCount())

		segs, err := editStore.Resolve(req.UtteranceID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("resolve utterance: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, editResponse{
			UtteranceID:          req.UtteranceID,
			Segments:             segs,
			EditedUtteranceCount: editStore.EditedCount(),
		})
	})

	mux.HandleFunc("DELETE /api/transcripts/{id}/edits", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}
		if _, err := store.GetTranscript(id); err != nil {
			writeStoreError(w, "get transcript", err)
			return
		}

		if err := store.DeleteEdits(id); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("revert edits: %v", err))
			return
		}

		metrics.Default.EditsReverted.Inc()
		hub.BroadcastEditsReverted(id, "", 0)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /api/transcripts/{id}/edits/{utteranceId}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		utteranceID := r.PathValue("utteranceId")
		if !validID(id) || !validID(utteranceID) {
			writeJSONError(w, http.StatusForbidden, "invalid id")
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}
		if _, err := editStore.Resolve(utteranceID); err != nil {
			writeEditError(w, err)
			return
		}
		editStore.Revert(utteranceID)

		if err := store.DeleteEdit(id, utteranceID); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("revert edit: %v", err))
			return
		}

		metrics.Default.EditsReverted.Inc()
		hub.BroadcastEditsReverted(id, utteranceID, editStore.EditedCount())
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/transcripts/{id}/edits/summary", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"editedUtteranceCount": editStore.EditedCount(),
		})
	})

	mux.HandleFunc("GET /api/transcripts/{id}/segments", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}
		writeJSON(w, http.StatusOK, transcript.Flatten(editStore))
	})

	mux.HandleFunc("GET /api/transcripts/{id}/pages", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}

		pages, err := paginate.Paginate(transcript.Flatten(editStore), pageCfg)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("paginate: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"pages":     pages,
			"lineCount": paginate.LineCount(pages),
		})
	})

	mux.HandleFunc("GET /api/transcripts/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}

		formatName := r.URL.Query().Get("format")
		if formatName == "" {
			formatName = "text"
		}
		format, err := export.ParseFormat(formatName)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		meta, err := store.GetTranscript(id)
		if err != nil {
			writeStoreError(w, "get transcript", err)
			return
		}
		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}

		pages, err := paginate.Paginate(transcript.Flatten(editStore), pageCfg)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("paginate: %v", err))
			return
		}
		data, err := export.Render(format, meta.Title, pages)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render %s: %v", format, err))
			return
		}

		metrics.Default.RecordExport(string(format), len(pages))
		log.Info().Str("transcriptId", id).Str("format", string(format)).Int("pages", len(pages)).Msg("export generated")

		w.Header().Set("Content-Type", format.MIME())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.ID+format.Ext()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})

	mux.HandleFunc("POST /api/transcripts/{id}/summary", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !validID(id) {
			writeJSONError(w, http.StatusForbidden, "invalid transcript id")
			return
		}
		if summarizer == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "summaries are not configured")
			return
		}

		editStore, err := loadEditStore(store, id)
		if err != nil {
			writeStoreError(w, "load transcript", err)
			return
		}

		if err := store.UpdateSummary(id, "", storage.SummaryRunning); err != nil {
			writeStoreError(w, "update summary status", err)
			return
		}

		summaryText, err := summarizer.Summarize(r.Context(), transcript.Flatten(editStore))
		if err != nil {
			_ = store.UpdateSummary(id, "", storage.SummaryFailed)
			metrics.Default.RecordSummary(storage.SummaryFailed)
			hub.BroadcastSummaryReady(id, "", storage.SummaryFailed)
			writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("summarize: %v", err))
			return
		}

		if err := store.UpdateSummary(id, summaryText, storage.SummaryCompleted); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("store summary: %v", err))
			return
		}
		metrics.Default.RecordSummary(storage.SummaryCompleted)
		hub.BroadcastSummaryReady(id, summaryText, storage.SummaryCompleted)

		writeJSON(w, http.StatusOK, map[string]string{
			"summary": summaryText,
			"status":  storage.SummaryCompleted,
		})
	})
}

// loadEditStore rehydrates the transcript's edit state for one request.
func loadEditStore(store TranscriptStore, transcriptID string) (*transcript.EditStore, error) {
	utterances, err := store.GetUtterances(transcriptID)
	if err != nil {
		return nil, err
	}
	if len(utterances) == 0 {
		// Distinguish a missing transcript from one with no utterances.
		if _, err := store.GetTranscript(transcriptID); err != nil {
			return nil, err
		}
	}

	edits, err := store.GetEdits(transcriptID)
	if err != nil {
		return nil, err
	}

	editStore := transcript.NewEditStore(utterances)
	for utteranceID, segs := range edits {
		if err := editStore.SetEdit(utteranceID, segs); err != nil {
			return nil, fmt.Errorf("rehydrate edit %s: %w", utteranceID, err)
		}
	}
	return editStore, nil
}

func applyEdit(editStore *transcript.EditStore, req editRequest) error {
	switch req.Op {
	case "split":
		_, err := editStore.SplitAndReassign(req.UtteranceID, req.StartChar, req.EndChar, req.SpeakerID, req.SpeakerLabel)
		return err
	case "reassign":
		_, err := editStore.ReassignUtterance(req.UtteranceID, req.SpeakerID, req.SpeakerLabel)
		return err
	case "delete_segment":
		_, err := editStore.DeleteSegmentAt(req.UtteranceID, req.SegmentIndex)
		return err
	case "delete_utterance":
		return editStore.DeleteUtterance(req.UtteranceID)
	case "restore_utterance":
		return editStore.RestoreUtterance(req.UtteranceID)
	default:
		return fmt.Errorf("unknown edit op %q", req.Op)
	}
}

func validID(id string) bool {
	return idPattern.MatchString(id)
}

func writeStoreError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, sql.ErrNoRows) {
		status = http.StatusNotFound
	}
	writeJSONError(w, status, fmt.Sprintf("%s: %v", op, err))
}

func writeEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transcript.ErrUnknownUtterance):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, transcript.ErrInvalidRange), errors.Is(err, transcript.ErrSegmentIndex):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
