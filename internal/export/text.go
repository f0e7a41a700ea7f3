package export

import (
	"fmt"
	"strings"

	"github.com/mwhitfield/redline/internal/paginate"
)

// RenderText produces the plain-text document: a right-aligned line number
// gutter, the reconstructed line content, and a form feed between pages.
func RenderText(pages []paginate.Page) []byte {
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteByte('\f')
		}
		for _, line := range page.Lines {
			fmt.Fprintf(&b, "%4d  %s\n", line.Number, line.Content())
		}
	}
	return []byte(b.String())
}
