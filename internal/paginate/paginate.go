// Package paginate converts the flattened rendered-segment stream into
// numbered document lines and fixed-size pages. The output is independent of
// the target format: every renderer consumes the same page/line model, so a
// transcript reported as "N pages, M lines" is identical in every export.
package paginate

import (
	"errors"

	"github.com/mwhitfield/redline/internal/transcript"
)

// Config controls line wrapping and page size. It is process-level
// configuration, never a per-call parameter, so all renderers sharing a
// config paginate identically.
type Config struct {
	// CharsPerLine is the fixed width of a document line in characters.
	CharsPerLine int `json:"charsPerLine" yaml:"chars_per_line"`
	// LinesPerPage is the fixed number of lines per page; the final page
	// may be shorter.
	LinesPerPage int `json:"linesPerPage" yaml:"lines_per_page"`
	// MinFirstLineWidth floors the width left for text on a segment's first
	// line after the timestamp/speaker prefix. A very long speaker label can
	// therefore overflow CharsPerLine on that line; the source system behaved
	// this way and the floor is kept as an explicit policy knob rather than
	// silently fixed.
	MinFirstLineWidth int `json:"minFirstLineWidth" yaml:"min_first_line_width"`
}

// DefaultConfig returns the standard transcript layout.
func DefaultConfig() Config {
	return Config{CharsPerLine: 65, LinesPerPage: 25, MinFirstLineWidth: 30}
}

// ErrInvalidConfig is returned for non-positive width or page size.
var ErrInvalidConfig = errors.New("pagination config values must be positive")

// Line is one fixed-width slice of a rendered segment. Speaker, SpeakerLabel
// and Timestamp are set only on the first line of a segment; continuation
// lines carry text only. Number is global and 1-based, never resetting per
// segment or page.
type Line struct {
	Number       int    `json:"lineNumber"`
	Speaker      string `json:"speaker,omitempty"`
	SpeakerLabel string `json:"speakerLabel,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Text         string `json:"text"`
	Continuation bool   `json:"isContinuation"`
}

// Page groups consecutive lines. Numbers are 1-based and sequential.
type Page struct {
	Number int    `json:"pageNumber"`
	Lines  []Line `json:"lines"`
}

// Paginate is a pure function of its inputs: the same segments and config
// always produce the same pages. Zero segments produce zero pages — an empty
// transcript, not an error.
func Paginate(segs []transcript.RenderedSegment, cfg Config) ([]Page, error) {
	if cfg.CharsPerLine <= 0 || cfg.LinesPerPage <= 0 {
		return nil, ErrInvalidConfig
	}
	minFirst := cfg.MinFirstLineWidth
	if minFirst <= 0 {
		minFirst = DefaultConfig().MinFirstLineWidth
	}

	var lines []Line
	number := 0
	for _, seg := range segs {
		prefix := segmentPrefix(seg)
		firstWidth := cfg.CharsPerLine - len(prefix)
		if firstWidth < minFirst {
			firstWidth = minFirst
		}

		for i, text := range wrapWords(seg.Text, firstWidth, cfg.CharsPerLine) {
			number++
			line := Line{Number: number, Text: text, Continuation: i > 0}
			if i == 0 {
				line.Speaker = seg.SpeakerID
				line.SpeakerLabel = seg.DisplayLabel()
				line.Timestamp = FormatTimestamp(seg.StartMs)
			}
			lines = append(lines, line)
		}
	}

	var pages []Page
	for start := 0; start < len(lines); start += cfg.LinesPerPage {
		end := start + cfg.LinesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, Page{Number: len(pages) + 1, Lines: lines[start:end]})
	}
	return pages, nil
}

// LineCount returns the total number of lines across pages.
func LineCount(pages []Page) int {
	total := 0
	for _, p := range pages {
		total += len(p.Lines)
	}
	return total
}
