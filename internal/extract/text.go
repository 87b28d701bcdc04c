package extract

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// TextReader reads plain-text dumps. Form feeds mark page boundaries, the
// convention pdftotext follows when it writes to a file.
type TextReader struct{}

// NewTextReader returns a TextReader.
func NewTextReader() *TextReader {
	return &TextReader{}
}

// Extract reads the file and splits it into pages on form feeds.
func (r *TextReader) Extract(ctx context.Context, path string) ([]model.RawPage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read %s", path)
	}
	return SplitPages(SourceID(path), string(raw)), nil
}

// SplitPages cuts extracted text into RawPages on form-feed boundaries.
// Text without form feeds becomes a single page.
func SplitPages(sourceID, text string) []model.RawPage {
	chunks := strings.Split(text, "\f")
	pages := make([]model.RawPage, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		pages = append(pages, model.RawPage{
			SourceID: sourceID,
			Index:    i,
			Text:     chunk,
		})
	}
	return pages
}
