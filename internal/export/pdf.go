package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/mwhitfield/redline/internal/paginate"
)

const (
	pdfFontSize   = 10
	pdfLineHeight = 14
	pdfGutterW    = 30
	pdfMargin     = 54 // 0.75in
)

// RenderPDF produces the print-style document. Courier keeps the fixed-width
// line model visually intact, and auto page breaks are disabled so the page
// boundaries are exactly the ones paginate computed.
func RenderPDF(title string, pages []paginate.Page) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 14)
		pdf.SetFont("Courier", "", 9)
		pdf.CellFormat(0, 12, fmt.Sprintf("- %d -", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if len(pages) == 0 {
		// Empty transcript: a valid single blank page, not a failure.
		pdf.AddPage()
	}

	for _, page := range pages {
		pdf.AddPage()
		pdf.SetFont("Courier", "", pdfFontSize)
		for _, line := range page.Lines {
			pdf.CellFormat(pdfGutterW, pdfLineHeight, strconv.Itoa(line.Number), "", 0, "R", false, 0, "")
			pdf.CellFormat(0, pdfLineHeight, "  "+line.Content(), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
