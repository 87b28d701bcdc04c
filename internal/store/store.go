package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/doutora-ia/questbank-cli/internal/config"
	"github.com/doutora-ia/questbank-cli/internal/model"
)

// QuestionFilter specifies criteria for listing questions.
type QuestionFilter struct {
	Discipline  string `json:"discipline,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	NeedsReview bool   `json:"needs_review,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the question bank. Upserts are
// keyed on content_hash, so re-running an import over overlapping sources is
// idempotent at the storage layer.
type Store interface {
	// Questions
	UpsertQuestions(ctx context.Context, records []model.QuestionRecord) (int64, error)
	GetQuestion(ctx context.Context, contentHash string) (*model.QuestionRecord, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.QuestionRecord, error)
	CountQuestions(ctx context.Context) (int64, error)

	// Import runs
	CreateImportRun(ctx context.Context) (*model.ImportRun, error)
	CompleteImportRun(ctx context.Context, runID string, report *model.RunReport) error
	FailImportRun(ctx context.Context, runID string, reason string) error
	ListImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store named by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
