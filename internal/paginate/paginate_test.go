package paginate

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/mwhitfield/redline/internal/transcript"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{1000, "0:01"},
		{65000, "1:05"},
		{600000, "10:00"},
		{3599999, "59:59"},
		{3600000, "1:00:00"},
		{7322000, "2:02:02"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.ms); got != tc.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestPaginateSingleShortSegment(t *testing.T) {
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", Text: "Objection your honor", StartMs: 1000, EndMs: 3000},
	}

	pages, err := Paginate(segs, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(pages) != 1 || len(pages[0].Lines) != 1 {
		t.Fatalf("expected 1 page with 1 line, got %#v", pages)
	}

	line := pages[0].Lines[0]
	if line.Number != 1 || line.Continuation {
		t.Fatalf("unexpected first line: %#v", line)
	}
	if line.Speaker != "A" || line.Timestamp != "0:01" {
		t.Fatalf("expected prefix fields on first line, got %#v", line)
	}
	if got := line.Content(); got != "[0:01] A: Objection your honor" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestPaginateWrapsAtCharsPerLine(t *testing.T) {
	// 80 characters of alternating word/space must wrap into at least two
	// lines, none wider than charsPerLine.
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", SpeakerLabel: "Witness", Text: strings.TrimSpace(strings.Repeat("a ", 40)), StartMs: 0, EndMs: 1000},
	}

	cfg := DefaultConfig()
	pages, err := Paginate(segs, cfg)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	lines := pages[0].Lines
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if len(l.Text) > cfg.CharsPerLine {
			t.Errorf("line %d exceeds width: %d chars", i, len(l.Text))
		}
		if i > 0 && !l.Continuation {
			t.Errorf("line %d should be a continuation", i)
		}
		if i > 0 && (l.Speaker != "" || l.Timestamp != "") {
			t.Errorf("continuation line %d carries prefix fields: %#v", i, l)
		}
	}
}

func TestPaginateFirstLineWidthAccountsForPrefix(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 30))
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", SpeakerLabel: "Examiner", Text: text, StartMs: 0, EndMs: 1000},
	}

	cfg := DefaultConfig()
	pages, err := Paginate(segs, cfg)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}

	first := pages[0].Lines[0]
	prefix := "[0:00] EXAMINER: "
	if len(prefix)+len(first.Text) > cfg.CharsPerLine {
		t.Fatalf("first line with prefix is %d chars, exceeds %d", len(prefix)+len(first.Text), cfg.CharsPerLine)
	}
	if got := first.Content(); !strings.HasPrefix(got, prefix) {
		t.Fatalf("expected content to start with %q, got %q", prefix, got)
	}
}

func TestPaginateLongLabelKeepsMinimumWidth(t *testing.T) {
	label := strings.Repeat("VeryLongSpeakerName", 3)
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", SpeakerLabel: label, Text: strings.TrimSpace(strings.Repeat("w ", 40)), StartMs: 0, EndMs: 1000},
	}

	cfg := DefaultConfig()
	pages, err := Paginate(segs, cfg)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	// The prefix alone exceeds charsPerLine; the first line still gets the
	// configured minimum width of text rather than zero or negative.
	first := pages[0].Lines[0]
	if len(first.Text) == 0 {
		t.Fatal("expected non-empty first line text")
	}
	if len(first.Text) > cfg.MinFirstLineWidth {
		t.Fatalf("expected first line capped at %d chars, got %d", cfg.MinFirstLineWidth, len(first.Text))
	}
}

func TestPaginateOverlongWordStandsAlone(t *testing.T) {
	long := strings.Repeat("x", 80)
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", Text: "short " + long + " tail", StartMs: 0, EndMs: 1000},
	}

	pages, err := Paginate(segs, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	lines := pages[0].Lines
	found := false
	for _, l := range lines {
		if l.Text == long {
			found = true
		} else if strings.Contains(l.Text, "xxx") {
			t.Fatalf("overlong word was split: %q", l.Text)
		}
	}
	if !found {
		t.Fatalf("expected overlong word alone on one line, got %#v", lines)
	}
}

func TestPaginateGlobalLineNumbers(t *testing.T) {
	var segs []transcript.RenderedSegment
	for i := 0; i < 40; i++ {
		speaker := "A"
		if i%2 == 1 {
			speaker = "B"
		}
		segs = append(segs, transcript.RenderedSegment{
			SpeakerID: speaker,
			Text:      fmt.Sprintf("utterance number %d with a bit of filler text to say", i),
			StartMs:   int64(i) * 2000,
			EndMs:     int64(i)*2000 + 1500,
		})
	}

	pages, err := Paginate(segs, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(pages) < 2 {
		t.Fatalf("expected multiple pages, got %d", len(pages))
	}

	expected := 0
	for pi, page := range pages {
		if page.Number != pi+1 {
			t.Fatalf("page %d has number %d", pi, page.Number)
		}
		for _, line := range page.Lines {
			expected++
			if line.Number != expected {
				t.Fatalf("expected line number %d, got %d", expected, line.Number)
			}
		}
	}

	last := pages[len(pages)-1].Lines
	if last[len(last)-1].Number != LineCount(pages) {
		t.Fatalf("last line number %d != total line count %d", last[len(last)-1].Number, LineCount(pages))
	}
}

func TestPaginatePageSize(t *testing.T) {
	var segs []transcript.RenderedSegment
	for i := 0; i < 30; i++ {
		speaker := "A"
		if i%2 == 1 {
			speaker = "B"
		}
		segs = append(segs, transcript.RenderedSegment{SpeakerID: speaker, Text: "short line", StartMs: int64(i) * 1000, EndMs: int64(i)*1000 + 500})
	}

	cfg := DefaultConfig()
	pages, err := Paginate(segs, cfg)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages for 30 lines, got %d", len(pages))
	}
	if len(pages[0].Lines) != cfg.LinesPerPage {
		t.Fatalf("expected full first page of %d lines, got %d", cfg.LinesPerPage, len(pages[0].Lines))
	}
	if len(pages[1].Lines) != 5 {
		t.Fatalf("expected short final page of 5 lines, got %d", len(pages[1].Lines))
	}
}

func TestPaginateDeterministic(t *testing.T) {
	segs := []transcript.RenderedSegment{
		{SpeakerID: "A", Text: strings.TrimSpace(strings.Repeat("alpha beta ", 20)), StartMs: 0, EndMs: 5000},
		{SpeakerID: "B", Text: "a reply", StartMs: 5200, EndMs: 6000},
	}

	first, err := Paginate(segs, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	second, err := Paginate(segs, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("pagination is not deterministic")
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	pages, err := Paginate(nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected zero pages, got %d", len(pages))
	}
}

func TestPaginateRejectsBadConfig(t *testing.T) {
	segs := []transcript.RenderedSegment{{SpeakerID: "A", Text: "hi", EndMs: 1}}
	if _, err := Paginate(segs, Config{CharsPerLine: 0, LinesPerPage: 25}); err == nil {
		t.Fatal("expected error for zero charsPerLine")
	}
	if _, err := Paginate(segs, Config{CharsPerLine: 65, LinesPerPage: -1}); err == nil {
		t.Fatal("expected error for negative linesPerPage")
	}
}
