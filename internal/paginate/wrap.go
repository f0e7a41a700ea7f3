package paginate

import (
	"fmt"
	"strings"

	"github.com/mwhitfield/redline/internal/transcript"
)

// FormatTimestamp renders milliseconds as H:MM:SS, or M:SS when under an
// hour, truncating sub-second precision.
func FormatTimestamp(ms int64) string {
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// segmentPrefix builds the attribution prefix that opens a segment's first
// line, e.g. "[1:23:45] MR. HUTCHINS: ".
func segmentPrefix(seg transcript.RenderedSegment) string {
	return "[" + FormatTimestamp(seg.StartMs) + "] " + strings.ToUpper(seg.DisplayLabel()) + ": "
}

// Content reconstructs the full printable text of a line, prefix included.
// Renderers must call this rather than composing the prefix themselves so
// the attribution format cannot drift between output formats.
func (l Line) Content() string {
	if l.Continuation {
		return l.Text
	}
	return "[" + l.Timestamp + "] " + strings.ToUpper(l.SpeakerLabel) + ": " + l.Text
}

// wrapWords packs words greedily into lines: up to firstWidth characters on
// the first line, width on the rest. Words are split on single spaces and
// never broken — a word longer than the line width stands alone on its own
// line even though it overflows the nominal width.
func wrapWords(text string, firstWidth, width int) []string {
	words := strings.Split(text, " ")

	var lines []string
	current := ""
	limit := firstWidth
	for _, word := range words {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= limit:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
			limit = width
		}
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}
