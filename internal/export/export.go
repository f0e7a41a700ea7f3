// Package export serializes the paginated line model into deliverable
// documents. Renderers consume pages exactly as produced by paginate and
// never re-wrap or re-number: line and page boundaries are identical in
// every format.
package export

import (
	"fmt"

	"github.com/mwhitfield/redline/internal/paginate"
)

type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatPDF, FormatDocx:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q: supported formats are text, pdf, docx", s)
	}
}

// MIME returns the content type served for the format.
func (f Format) MIME() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Ext returns the file extension for the format, dot included.
func (f Format) Ext() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatDocx:
		return ".docx"
	default:
		return ".txt"
	}
}

// Render produces the document bytes for the requested format.
func Render(f Format, title string, pages []paginate.Page) ([]byte, error) {
	switch f {
	case FormatText:
		return RenderText(pages), nil
	case FormatPDF:
		return RenderPDF(title, pages)
	case FormatDocx:
		return RenderDocx(title, pages)
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}
