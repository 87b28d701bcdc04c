package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// Reader extracts the page text of one source file. Implementations are
// stateless; a failed extraction is confined to that file.
type Reader interface {
	Extract(ctx context.Context, path string) ([]model.RawPage, error)
}

// Options configures the reader registry.
type Options struct {
	PdfToTextPath string
	TimeoutSecs   int
}

// Registry dispatches files to the reader matching their extension.
type Registry struct {
	text *TextReader
	pdf  *PdfToTextReader
}

// NewRegistry builds a registry with all known readers.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		text: NewTextReader(),
		pdf:  NewPdfToTextReader(opts.PdfToTextPath, opts.TimeoutSecs),
	}
}

// For returns the reader for the given path, or an error for unsupported
// extensions. Legacy JSON exports are handled by LoadLegacy, not here.
func (r *Registry) For(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return r.text, nil
	case ".pdf":
		return r.pdf, nil
	default:
		return nil, eris.Errorf("extract: unsupported file type %q", filepath.Ext(path))
	}
}

// SourceID derives the source identifier from a file path: the base name
// without its extension.
func SourceID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
