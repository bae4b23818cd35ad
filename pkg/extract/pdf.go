package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// gapRatio is the horizontal gap, relative to the font size, that separates
// two words on the same row
const gapRatio = 0.25

// PDFLines extracts every text row of every page, pages in order
func PDFLines(doc []byte) (lines []string, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		for _, row := range rows {
			if line := strings.TrimSpace(joinRow(row.Content)); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// joinRow concatenates the glyph runs of a row, inserting a space where the
// runs are visibly apart
func joinRow(texts pdf.TextHorizontal) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			if t.X-(prev.X+prev.W) > prev.FontSize*gapRatio {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return sb.String()
}
