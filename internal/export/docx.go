package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/mwhitfield/redline/internal/paginate"
)

// A .docx file is a zip archive of OOXML parts. The document body is one
// monospace paragraph per document line with an explicit page break between
// pages, so word processors reproduce the same line and page boundaries as
// every other renderer.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>
`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

const docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxDocumentClose = `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1080" w:right="1080" w:bottom="1080" w:left="1080"/></w:sectPr></w:body></w:document>`

// RenderDocx produces the word-processor document.
func RenderDocx(title string, pages []paginate.Page) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(docxDocumentOpen)
	if title != "" {
		doc.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&doc, []byte(title)); err != nil {
			return nil, fmt.Errorf("escape title: %w", err)
		}
		doc.WriteString(`</w:t></w:r></w:p>`)
	}

	for i, page := range pages {
		if i > 0 {
			doc.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
		for _, line := range page.Lines {
			doc.WriteString(`<w:p><w:pPr><w:spacing w:after="0"/></w:pPr><w:r><w:rPr><w:rFonts w:ascii="Courier New" w:hAnsi="Courier New"/></w:rPr><w:t xml:space="preserve">`)
			text := fmt.Sprintf("%4d  %s", line.Number, line.Content())
			if err := xml.EscapeText(&doc, []byte(text)); err != nil {
				return nil, fmt.Errorf("escape line %d: %w", line.Number, err)
			}
			doc.WriteString(`</w:t></w:r></w:p>`)
		}
	}
	doc.WriteString(docxDocumentClose)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", doc.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create docx part %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("write docx part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}
