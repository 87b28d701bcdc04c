package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doutora-ia/questbank-cli/internal/extract"
	"github.com/doutora-ia/questbank-cli/internal/model"
	"github.com/doutora-ia/questbank-cli/internal/pipeline"
)

var (
	ingestDryRun       bool
	ingestPatternsFile string
	ingestConcurrency  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir> [more...]",
	Short: "Import question sources into the bank",
	Long:  "Extracts questions from exam PDFs, plain-text dumps, and legacy JSON exports, joins gabarito spreadsheets found next to each file, and writes the deduplicated records to the store.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		paths, err := collectSourceFiles(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return eris.New("ingest: no supported source files found")
		}

		patterns, err := loadPatterns()
		if err != nil {
			return err
		}

		registry := extract.NewRegistry(extract.Options{
			PdfToTextPath: cfg.Extract.PdfToTextPath,
			TimeoutSecs:   cfg.Extract.TimeoutSecs,
		})

		sources := make([]pipeline.Source, 0, len(paths))
		for _, p := range paths {
			sources = append(sources, &fileSource{
				path:      p,
				registry:  registry,
				maxNumber: cfg.AnswerKey.MaxQuestionNumber,
			})
		}

		concurrency := cfg.Ingest.MaxConcurrentSources
		if ingestConcurrency > 0 {
			concurrency = ingestConcurrency
		}

		driver := pipeline.NewDriver(pipeline.DriverOptions{
			Patterns:        patterns,
			MinStemLineLen:  cfg.Segment.MinStemLineLen,
			MinStatementLen: cfg.Segment.MinStatementLen,
			MinAlternatives: cfg.Segment.MinAlternatives,
			MaxNoiseLineLen: cfg.Segment.MaxNoiseLineLen,
			KeyWindowLines:  cfg.AnswerKey.WindowLines,
			MaxQuestionNum:  cfg.AnswerKey.MaxQuestionNumber,
			Concurrency:     concurrency,
		})

		zap.L().Info("starting import",
			zap.Int("sources", len(sources)),
			zap.Int("concurrency", concurrency),
			zap.Bool("dry_run", ingestDryRun),
		)

		if ingestDryRun {
			result, err := driver.Run(ctx, sources)
			if err != nil {
				return eris.Wrap(err, "ingest")
			}
			formatReport(os.Stdout, result.Report, 0)
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateImportRun(ctx)
		if err != nil {
			return err
		}

		result, err := driver.Run(ctx, sources)
		if err != nil {
			if failErr := st.FailImportRun(ctx, run.ID, err.Error()); failErr != nil {
				zap.L().Error("recording failed run", zap.Error(failErr))
			}
			return eris.Wrap(err, "ingest")
		}

		inserted, err := st.UpsertQuestions(ctx, result.Records)
		if err != nil {
			if failErr := st.FailImportRun(ctx, run.ID, err.Error()); failErr != nil {
				zap.L().Error("recording failed run", zap.Error(failErr))
			}
			return eris.Wrap(err, "ingest: persist records")
		}

		if err := st.CompleteImportRun(ctx, run.ID, result.Report); err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("run_id", run.ID),
			zap.Int("admitted", result.Report.RecordsAdmitted),
			zap.Int64("inserted", inserted),
		)
		formatReport(os.Stdout, result.Report, inserted)
		return nil
	},
}

// fileSource adapts one file on disk to the import pipeline. JSON files take
// the legacy path; everything else goes through the extraction registry.
type fileSource struct {
	path      string
	registry  *extract.Registry
	maxNumber int
}

func (f *fileSource) ID() string {
	return extract.SourceID(f.path)
}

func (f *fileSource) Load(ctx context.Context) (*pipeline.SourcePayload, error) {
	payload := &pipeline.SourcePayload{}

	if strings.EqualFold(filepath.Ext(f.path), ".json") {
		legacy, err := extract.LoadLegacy(f.path)
		if err != nil {
			return nil, err
		}
		payload.Legacy = legacy
	} else {
		reader, err := f.registry.For(f.path)
		if err != nil {
			return nil, err
		}
		pages, err := reader.Extract(ctx, f.path)
		if err != nil {
			return nil, err
		}
		doc := model.SourceDocument{ID: f.ID(), Path: f.path, Pages: pages}
		payload.Lines = doc.Lines()
	}

	if sidecar := findSidecar(f.path); sidecar != "" {
		key, err := extract.LoadAnswerKeyXLSX(sidecar, f.maxNumber)
		if err != nil {
			zap.L().Warn("skipping unreadable gabarito spreadsheet",
				zap.String("path", sidecar),
				zap.Error(err),
			)
		} else {
			payload.SidecarKey = key
		}
	}

	return payload, nil
}

// findSidecar looks for a gabarito spreadsheet next to the source file:
// first <name>-gabarito.xlsx, then <name>.xlsx.
func findSidecar(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, candidate := range []string{base + "-gabarito.xlsx", base + ".xlsx"} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// collectSourceFiles expands the argument list into individual source files,
// walking directories one level deep into any nesting. Spreadsheets are
// sidecars, never sources.
func collectSourceFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: stat %s", arg)
		}
		if !info.IsDir() {
			if !supportedSource(arg) {
				return nil, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(arg))
			}
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && supportedSource(p) {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: walk %s", arg)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func supportedSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".text", ".json":
		return true
	default:
		return false
	}
}

func loadPatterns() (*pipeline.PatternSet, error) {
	file := cfg.Segment.PatternsFile
	if ingestPatternsFile != "" {
		file = ingestPatternsFile
	}
	if file == "" {
		return pipeline.DefaultPatternSet(), nil
	}
	return pipeline.LoadPatternSet(file)
}

func formatReport(w io.Writer, report *model.RunReport, inserted int64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tCANDIDATES\tADMITTED\tREJECTED\tDUPLICATES\tKEY\tSTATUS")

	ids := make([]string, 0, len(report.Sources))
	for id := range report.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sr := report.Sources[id]
		status := "ok"
		switch {
		case sr.Failed:
			status = "failed: " + sr.FailureReason
		case sr.NoAnswerKey:
			status = "no answer key"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			sr.SourceID, sr.Candidates, sr.Admitted, sr.Rejected, sr.Duplicates, sr.AnswerKeySize, status)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d sources processed, %d failed\n", report.SourcesProcessed, report.SourcesFailed)
	fmt.Fprintf(w, "%d candidates, %d admitted, %d rejected, %d duplicates dropped\n",
		report.CandidatesFound, report.RecordsAdmitted, report.RecordsRejected, report.DuplicatesDropped)
	if inserted > 0 {
		fmt.Fprintf(w, "%d new questions stored\n", inserted)
	}
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "run the pipeline without writing to the store")
	ingestCmd.Flags().StringVar(&ingestPatternsFile, "patterns", "", "YAML file overriding the recognition patterns")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "parallel sources (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
