package extract

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// PdfToTextReader shells out to poppler's pdftotext. The binary writes page
// breaks as form feeds, so the pages arrive pre-segmented.
type PdfToTextReader struct {
	binary  string
	timeout time.Duration
}

// NewPdfToTextReader builds a reader around the given pdftotext binary.
func NewPdfToTextReader(binary string, timeoutSecs int) *PdfToTextReader {
	if binary == "" {
		binary = "pdftotext"
	}
	if timeoutSecs <= 0 {
		timeoutSecs = 60
	}
	return &PdfToTextReader{
		binary:  binary,
		timeout: time.Duration(timeoutSecs) * time.Second,
	}
}

// Extract runs pdftotext with layout preserved and captures stdout.
func (r *PdfToTextReader) Extract(ctx context.Context, path string) ([]model.RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "extract: pdftotext timed out on %s", path)
		}
		return nil, eris.Wrapf(err, "extract: pdftotext failed on %s: %s", path, stderr.String())
	}

	zap.L().Debug("extract: pdftotext done",
		zap.String("path", path),
		zap.Int("bytes", stdout.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return SplitPages(SourceID(path), stdout.String()), nil
}
