package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// SourcePayload is everything one source document yields before the shared
// pipeline stages run. Exactly one of Lines or Legacy is normally populated.
type SourcePayload struct {
	// Lines is the raw extracted text, flattened across pages, for the
	// segmentation path.
	Lines []string
	// Legacy holds pre-shaped objects from earlier export formats, for the
	// alias-resolution path.
	Legacy []map[string]any
	// SidecarKey is an answer key loaded from a companion file (gabarito
	// spreadsheet). It takes precedence over keys scraped out of the
	// document text.
	SidecarKey model.AnswerKeyMap
}

// Source is one input document. Load is called once per run; a Load failure
// marks the source failed without touching the rest of the run.
type Source interface {
	ID() string
	Load(ctx context.Context) (*SourcePayload, error)
}

// Driver orchestrates segmentation, record normalization, answer-key join,
// classification, and deduplication for one import run.
type Driver struct {
	normalizer  *Normalizer
	segmenter   *Segmenter
	keys        *AnswerKeyExtractor
	records     *RecordNormalizer
	classifier  *Classifier
	concurrency int
}

// DriverOptions bundles the tunables of a run.
type DriverOptions struct {
	Patterns        *PatternSet
	MinStemLineLen  int
	MinStatementLen int
	MinAlternatives int
	MaxNoiseLineLen int
	KeyWindowLines  int
	MaxQuestionNum  int
	// Concurrency bounds the parallel per-source extract/segment/normalize
	// work. Deduplication is always folded sequentially.
	Concurrency int
}

// NewDriver builds a Driver from options; zero values fall back to defaults.
func NewDriver(opts DriverOptions) *Driver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Driver{
		normalizer:  NewNormalizer(opts.MaxNoiseLineLen),
		segmenter:   NewSegmenter(opts.Patterns, opts.MinStemLineLen, opts.MinAlternatives),
		keys:        NewAnswerKeyExtractor(opts.Patterns, opts.KeyWindowLines, opts.MaxQuestionNum),
		records:     NewRecordNormalizer(opts.MinStatementLen, opts.MinAlternatives),
		classifier:  NewClassifier(),
		concurrency: opts.Concurrency,
	}
}

// RunResult is the outcome of one import run: the deduplicated record set
// plus the full counter report.
type RunResult struct {
	Records []model.QuestionRecord
	Report  *model.RunReport
}

// sourceOutcome is the per-source intermediate: validated records in
// document order, not yet deduplicated.
type sourceOutcome struct {
	report  model.SourceReport
	records []model.QuestionRecord
}

// Run processes the sources. Per-source failures become counters; only a
// cancelled context or a FatalError aborts the run.
func (d *Driver) Run(ctx context.Context, sources []Source) (*RunResult, error) {
	report := model.NewRunReport()

	// Per-source work shares no state and fans out; the deduplicator fold
	// below stays sequential and in input order, so first-seen is
	// deterministic across runs.
	outcomes := make([]*sourceOutcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			out, err := d.processSource(gctx, src)
			if err != nil {
				if IsFatal(err) || gctx.Err() != nil {
					return err
				}
				zap.L().Warn("pipeline: source failed",
					zap.String("source", src.ID()),
					zap.Error(err),
				)
				out = &sourceOutcome{report: model.SourceReport{
					SourceID:      src.ID(),
					Failed:        true,
					FailureReason: err.Error(),
				}}
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dedup := NewDeduplicator()
	for _, out := range outcomes {
		if out.report.Failed {
			report.AddSource(out.report)
			continue
		}
		for _, rec := range out.records {
			if dedup.Admit(rec) {
				out.report.Admitted++
			} else {
				out.report.Duplicates++
			}
		}
		report.AddSource(out.report)
	}

	report.FinishedAt = nowUTC()
	zap.L().Info("pipeline: run complete",
		zap.Int("sources_processed", report.SourcesProcessed),
		zap.Int("sources_failed", report.SourcesFailed),
		zap.Int("candidates_found", report.CandidatesFound),
		zap.Int("records_rejected", report.RecordsRejected),
		zap.Int("duplicates_dropped", report.DuplicatesDropped),
		zap.Int("records_admitted", report.RecordsAdmitted),
	)
	return &RunResult{Records: dedup.Records(), Report: report}, nil
}

// processSource runs the shared-state-free stages for one document.
func (d *Driver) processSource(ctx context.Context, src Source) (*sourceOutcome, error) {
	payload, err := src.Load(ctx)
	if err != nil {
		return nil, NewSourceError(src.ID(), err)
	}

	out := &sourceOutcome{report: model.SourceReport{SourceID: src.ID()}}

	// Sidecar keys beat keys scraped from the document text; within each,
	// first-found wins.
	key := make(model.AnswerKeyMap, len(payload.SidecarKey))
	for num, letter := range payload.SidecarKey {
		key[num] = letter
	}

	if len(payload.Lines) > 0 {
		lines := d.normalizer.Normalize(payload.Lines)
		for num, letter := range d.keys.Extract(lines) {
			if _, ok := key[num]; !ok {
				key[num] = letter
			}
		}

		candidates := d.segmenter.Segment(lines)
		out.report.Candidates += len(candidates)
		for _, c := range candidates {
			rec, err := d.records.FromCandidate(src.ID(), c)
			if err != nil {
				out.report.Rejected++
				continue
			}
			out.records = append(out.records, d.finish(rec, key))
		}
	}

	for _, raw := range payload.Legacy {
		out.report.Candidates++
		rec, err := d.records.FromLegacy(src.ID(), raw)
		if err != nil {
			out.report.Rejected++
			continue
		}
		out.records = append(out.records, d.finish(rec, key))
	}

	out.report.AnswerKeySize = len(key)
	out.report.NoAnswerKey = len(key) == 0
	if out.report.NoAnswerKey && len(out.records) > 0 {
		// Data-quality signal, not an error: every record keeps the
		// needs-review sentinel.
		zap.L().Info("pipeline: no answer key found",
			zap.String("source", src.ID()),
			zap.Int("records", len(out.records)),
		)
	}
	return out, nil
}

// finish joins the answer key and classifies. Only the needs-review
// placeholder is overwritten, and only with a letter the record actually has.
func (d *Driver) finish(rec model.QuestionRecord, key model.AnswerKeyMap) model.QuestionRecord {
	if rec.NeedsReview() {
		if letter, ok := key[rec.Number]; ok {
			if _, has := rec.Alternatives[letter]; has {
				rec = rec.WithCorrectAnswer(letter)
			}
		}
	}
	return d.classifier.Classify(rec)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
