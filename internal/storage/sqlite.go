package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mwhitfield/redline/internal/transcript"
)

const (
	SummaryPending   = "pending"
	SummaryRunning   = "running"
	SummaryCompleted = "completed"
	SummaryFailed    = "failed"
)

// Transcript is one reviewed recording: an immutable utterance list plus the
// reviewer's current edits, both stored alongside this row.
type Transcript struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	Summary        string    `json:"summary"`
	SummaryStatus  string    `json:"summary_status"`
	UtteranceCount int       `json:"utterance_count"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "redline.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			summary_status TEXT NOT NULL DEFAULT 'pending'
		);
	`); err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS utterances (
			transcript_id TEXT NOT NULL,
			id TEXT NOT NULL,
			speaker_id TEXT NOT NULL,
			speaker_label TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			start_ms INTEGER NOT NULL,
			end_ms INTEGER NOT NULL,
			sequence_index INTEGER NOT NULL,
			PRIMARY KEY (transcript_id, id),
			FOREIGN KEY(transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create utterances table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS edits (
			transcript_id TEXT NOT NULL,
			utterance_id TEXT NOT NULL,
			segments TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (transcript_id, utterance_id),
			FOREIGN KEY(transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create edits table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_utterances_sequence ON utterances(transcript_id, sequence_index)"); err != nil {
		return fmt.Errorf("create utterances index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// CreateTranscript inserts the transcript row and its full utterance list in
// one transaction. Utterances are immutable once stored.
func (s *SQLiteStore) CreateTranscript(t Transcript, utterances []transcript.Utterance) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("transcript id is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin create transcript: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO transcripts(id, title, source, created_at, summary_status) VALUES(?, ?, ?, ?, ?)`,
		t.ID,
		t.Title,
		t.Source,
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		SummaryPending,
	); err != nil {
		return fmt.Errorf("insert transcript %s: %w", t.ID, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO utterances(transcript_id, id, speaker_id, speaker_label, text, start_ms, end_ms, sequence_index)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare utterance insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range utterances {
		if _, err := stmt.Exec(t.ID, u.ID, u.SpeakerID, u.SpeakerLabel, u.Text, u.StartMs, u.EndMs, u.SequenceIndex); err != nil {
			return fmt.Errorf("insert utterance %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create transcript: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTranscript(id string) (Transcript, error) {
	row := s.db.QueryRow(
		`SELECT t.id, t.title, t.source, t.created_at, t.summary, t.summary_status,
		        (SELECT COUNT(*) FROM utterances u WHERE u.transcript_id = t.id)
		 FROM transcripts t WHERE t.id = ?`,
		id,
	)

	var t Transcript
	var createdAt string
	if err := row.Scan(&t.ID, &t.Title, &t.Source, &createdAt, &t.Summary, &t.SummaryStatus, &t.UtteranceCount); err != nil {
		return Transcript{}, fmt.Errorf("query transcript %s: %w", id, err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Transcript{}, fmt.Errorf("parse transcript %s created_at: %w", id, err)
	}
	t.CreatedAt = parsed

	return t, nil
}

func (s *SQLiteStore) ListTranscripts() ([]Transcript, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.title, t.source, t.created_at, t.summary, t.summary_status,
		        (SELECT COUNT(*) FROM utterances u WHERE u.transcript_id = t.id)
		 FROM transcripts t ORDER BY t.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transcripts := make([]Transcript, 0, 16)
	for rows.Next() {
		var t Transcript
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Title, &t.Source, &createdAt, &t.Summary, &t.SummaryStatus, &t.UtteranceCount); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}

		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		t.CreatedAt = parsed

		transcripts = append(transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript rows: %w", err)
	}

	return transcripts, nil
}

func (s *SQLiteStore) DeleteTranscript(id string) error {
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transcript %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transcript rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) GetUtterances(transcriptID string) ([]transcript.Utterance, error) {
	rows, err := s.db.Query(
		`SELECT id, speaker_id, speaker_label, text, start_ms, end_ms, sequence_index
		 FROM utterances
		 WHERE transcript_id = ?
		 ORDER BY sequence_index ASC`,
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query utterances for transcript %s: %w", transcriptID, err)
	}
	defer func() { _ = rows.Close() }()

	utterances := make([]transcript.Utterance, 0, 64)
	for rows.Next() {
		var u transcript.Utterance
		if err := rows.Scan(&u.ID, &u.SpeakerID, &u.SpeakerLabel, &u.Text, &u.StartMs, &u.EndMs, &u.SequenceIndex); err != nil {
			return nil, fmt.Errorf("scan utterance for transcript %s: %w", transcriptID, err)
		}
		utterances = append(utterances, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate utterance rows for transcript %s: %w", transcriptID, err)
	}

	return utterances, nil
}

// SaveEdit upserts the persisted segment list for one utterance. Segments are
// stored as a JSON document; the empty list (deleted utterance) is stored as
// "[]", distinct from the row being absent.
func (s *SQLiteStore) SaveEdit(transcriptID, utteranceID string, segments []transcript.TextSegment) error {
	if segments == nil {
		segments = []transcript.TextSegment{}
	}
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("marshal segments for utterance %s: %w", utteranceID, err)
	}

	if _, err := s.db.Exec(
		`INSERT INTO edits(transcript_id, utterance_id, segments, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(transcript_id, utterance_id) DO UPDATE SET segments = excluded.segments, updated_at = excluded.updated_at`,
		transcriptID,
		utteranceID,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save edit for utterance %s: %w", utteranceID, err)
	}
	return nil
}

// DeleteEdit removes the persisted edit for one utterance (revert).
func (s *SQLiteStore) DeleteEdit(transcriptID, utteranceID string) error {
	if _, err := s.db.Exec(
		`DELETE FROM edits WHERE transcript_id = ? AND utterance_id = ?`,
		transcriptID,
		utteranceID,
	); err != nil {
		return fmt.Errorf("delete edit for utterance %s: %w", utteranceID, err)
	}
	return nil
}

// DeleteEdits removes every persisted edit for a transcript (revert all).
func (s *SQLiteStore) DeleteEdits(transcriptID string) error {
	if _, err := s.db.Exec(`DELETE FROM edits WHERE transcript_id = ?`, transcriptID); err != nil {
		return fmt.Errorf("delete edits for transcript %s: %w", transcriptID, err)
	}
	return nil
}

// GetEdits returns the persisted deviations keyed by utterance id.
func (s *SQLiteStore) GetEdits(transcriptID string) (map[string][]transcript.TextSegment, error) {
	rows, err := s.db.Query(
		`SELECT utterance_id, segments FROM edits WHERE transcript_id = ?`,
		transcriptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query edits for transcript %s: %w", transcriptID, err)
	}
	defer func() { _ = rows.Close() }()

	edits := make(map[string][]transcript.TextSegment)
	for rows.Next() {
		var utteranceID, payload string
		if err := rows.Scan(&utteranceID, &payload); err != nil {
			return nil, fmt.Errorf("scan edit for transcript %s: %w", transcriptID, err)
		}

		segments := []transcript.TextSegment{}
		if err := json.Unmarshal([]byte(payload), &segments); err != nil {
			return nil, fmt.Errorf("unmarshal edit for utterance %s: %w", utteranceID, err)
		}
		edits[utteranceID] = segments
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edit rows for transcript %s: %w", transcriptID, err)
	}

	return edits, nil
}

func (s *SQLiteStore) UpdateSummary(transcriptID, summary, status string) error {
	res, err := s.db.Exec(
		`UPDATE transcripts SET summary = ?, summary_status = ? WHERE id = ?`,
		summary,
		status,
		transcriptID,
	)
	if err != nil {
		return fmt.Errorf("update summary for transcript %s: %w", transcriptID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update summary rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
