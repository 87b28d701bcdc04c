package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool through it.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS questions (
	content_hash   TEXT PRIMARY KEY,
	source_id      TEXT NOT NULL,
	number         INTEGER NOT NULL,
	discipline     TEXT NOT NULL,
	topic          TEXT NOT NULL,
	statement      TEXT NOT NULL,
	alternatives   JSONB NOT NULL,
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	legal_basis    TEXT NOT NULL DEFAULT '',
	difficulty     TEXT NOT NULL DEFAULT 'medium',
	exam_year      INTEGER,
	tags           JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	report     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_discipline ON questions(discipline);
CREATE INDEX IF NOT EXISTS idx_questions_source_id ON questions(source_id);
CREATE INDEX IF NOT EXISTS idx_questions_correct_answer ON questions(correct_answer);
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertQuestions inserts records, skipping content hashes already present.
// First-seen wins at the storage layer too. Returns how many rows were
// actually inserted.
func (s *PostgresStore) UpsertQuestions(ctx context.Context, records []model.QuestionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	var inserted int64
	for _, rec := range records {
		altJSON, err := json.Marshal(rec.Alternatives)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal alternatives")
		}
		tagsJSON, err := json.Marshal(rec.Tags)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal tags")
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO questions (
				content_hash, source_id, number, discipline, topic, statement,
				alternatives, correct_answer, explanation, legal_basis,
				difficulty, exam_year, tags
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (content_hash) DO NOTHING`,
			rec.ContentHash, rec.SourceID, rec.Number, rec.Discipline, rec.Topic,
			rec.Statement, altJSON, rec.CorrectAnswer, rec.Explanation,
			rec.LegalBasis, string(rec.Difficulty), nullableInt(rec.ExamYear), tagsJSON,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert question %s", rec.ContentHash)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit upsert")
	}
	return inserted, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, contentHash string) (*model.QuestionRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT content_hash, source_id, number, discipline, topic, statement,
		        alternatives, correct_answer, explanation, legal_basis,
		        difficulty, exam_year, tags
		 FROM questions WHERE content_hash = $1`, contentHash)
	rec, err := scanPgQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(err, "postgres: question not found: %s", contentHash)
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.QuestionRecord, error) {
	query := `SELECT content_hash, source_id, number, discipline, topic, statement,
	                 alternatives, correct_answer, explanation, legal_basis,
	                 difficulty, exam_year, tags
	          FROM questions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Discipline != "" {
		query += fmt.Sprintf(` AND discipline = $%d`, argIdx)
		args = append(args, filter.Discipline)
		argIdx++
	}
	if filter.SourceID != "" {
		query += fmt.Sprintf(` AND source_id = $%d`, argIdx)
		args = append(args, filter.SourceID)
		argIdx++
	}
	if filter.NeedsReview {
		query += fmt.Sprintf(` AND correct_answer = $%d`, argIdx)
		args = append(args, model.AnswerNeedsReview)
		argIdx++
	}
	query += ` ORDER BY source_id, number`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	var records []model.QuestionRecord
	for rows.Next() {
		rec, err := scanPgQuestion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list questions iterate")
}

func (s *PostgresStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, eris.Wrap(err, "postgres: count questions")
}

func (s *PostgresStore) CreateImportRun(ctx context.Context) (*model.ImportRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import run")
	}

	return &model.ImportRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteImportRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, report = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), reportJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete import run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("import run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailImportRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail import run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("import run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, report, error, created_at, updated_at
		 FROM import_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list import runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var (
			run        model.ImportRun
			reportJSON []byte
			errText    *string
		)
		if err := rows.Scan(&run.ID, &run.Status, &reportJSON, &errText, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import run")
		}
		if len(reportJSON) > 0 {
			var report model.RunReport
			if err := json.Unmarshal(reportJSON, &report); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal report for run %s", run.ID)
			}
			run.Report = &report
		}
		if errText != nil {
			run.Error = *errText
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list import runs iterate")
}

func scanPgQuestion(row pgx.Row) (*model.QuestionRecord, error) {
	var (
		rec      model.QuestionRecord
		altJSON  []byte
		tagsJSON []byte
		examYear *int
	)
	err := row.Scan(
		&rec.ContentHash, &rec.SourceID, &rec.Number, &rec.Discipline, &rec.Topic,
		&rec.Statement, &altJSON, &rec.CorrectAnswer, &rec.Explanation,
		&rec.LegalBasis, &rec.Difficulty, &examYear, &tagsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan question")
	}
	if err := json.Unmarshal(altJSON, &rec.Alternatives); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal alternatives")
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &rec.Tags); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tags")
		}
	}
	if examYear != nil {
		rec.ExamYear = *examYear
	}
	return &rec, nil
}
