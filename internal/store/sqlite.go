package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS questions (
	content_hash   TEXT PRIMARY KEY,
	source_id      TEXT NOT NULL,
	number         INTEGER NOT NULL,
	discipline     TEXT NOT NULL,
	topic          TEXT NOT NULL,
	statement      TEXT NOT NULL,
	alternatives   TEXT NOT NULL,
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	legal_basis    TEXT NOT NULL DEFAULT '',
	difficulty     TEXT NOT NULL DEFAULT 'medium',
	exam_year      INTEGER,
	tags           TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	report     TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_questions_discipline ON questions(discipline);
CREATE INDEX IF NOT EXISTS idx_questions_source_id ON questions(source_id);
CREATE INDEX IF NOT EXISTS idx_questions_correct_answer ON questions(correct_answer);
CREATE INDEX IF NOT EXISTS idx_import_runs_status ON import_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertQuestions inserts records, skipping content hashes already present.
// First-seen wins at the storage layer too. Returns how many rows were
// actually inserted.
func (s *SQLiteStore) UpsertQuestions(ctx context.Context, records []model.QuestionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (
			content_hash, source_id, number, discipline, topic, statement,
			alternatives, correct_answer, explanation, legal_basis,
			difficulty, exam_year, tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	var inserted int64
	for _, rec := range records {
		altJSON, err := json.Marshal(rec.Alternatives)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal alternatives")
		}
		tagsJSON, err := json.Marshal(rec.Tags)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal tags")
		}

		res, err := stmt.ExecContext(ctx,
			rec.ContentHash, rec.SourceID, rec.Number, rec.Discipline, rec.Topic,
			rec.Statement, string(altJSON), rec.CorrectAnswer, rec.Explanation,
			rec.LegalBasis, string(rec.Difficulty), nullableInt(rec.ExamYear), string(tagsJSON),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert question %s", rec.ContentHash)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return inserted, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, contentHash string) (*model.QuestionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, source_id, number, discipline, topic, statement,
		       alternatives, correct_answer, explanation, legal_basis,
		       difficulty, exam_year, tags
		FROM questions WHERE content_hash = ?`, contentHash)
	rec, err := scanQuestion(row)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, filter QuestionFilter) ([]model.QuestionRecord, error) {
	query := `
		SELECT content_hash, source_id, number, discipline, topic, statement,
		       alternatives, correct_answer, explanation, legal_basis,
		       difficulty, exam_year, tags
		FROM questions WHERE 1=1`
	var args []any

	if filter.Discipline != "" {
		query += ` AND discipline = ?`
		args = append(args, filter.Discipline)
	}
	if filter.SourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, filter.SourceID)
	}
	if filter.NeedsReview {
		query += ` AND correct_answer = ?`
		args = append(args, model.AnswerNeedsReview)
	}
	query += ` ORDER BY source_id, number`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	var records []model.QuestionRecord
	for rows.Next() {
		rec, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list questions rows")
}

func (s *SQLiteStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count questions")
}

func (s *SQLiteStore) CreateImportRun(ctx context.Context) (*model.ImportRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import run")
	}

	return &model.ImportRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteImportRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, report = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(reportJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete import run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailImportRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail import run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) ListImportRuns(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, report, error, created_at, updated_at
		FROM import_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list import runs")
	}
	defer rows.Close()

	var runs []model.ImportRun
	for rows.Next() {
		var (
			run        model.ImportRun
			reportJSON sql.NullString
			errText    sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Status, &reportJSON, &errText, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import run")
		}
		if reportJSON.Valid && reportJSON.String != "" {
			var report model.RunReport
			if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal report for run %s", run.ID)
			}
			run.Report = &report
		}
		run.Error = errText.String
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list import runs rows")
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*model.QuestionRecord, error) {
	var (
		rec      model.QuestionRecord
		altJSON  string
		tagsJSON sql.NullString
		examYear sql.NullInt64
	)
	err := row.Scan(
		&rec.ContentHash, &rec.SourceID, &rec.Number, &rec.Discipline, &rec.Topic,
		&rec.Statement, &altJSON, &rec.CorrectAnswer, &rec.Explanation,
		&rec.LegalBasis, &rec.Difficulty, &examYear, &tagsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "store: question not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan question")
	}
	if err := json.Unmarshal([]byte(altJSON), &rec.Alternatives); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal alternatives")
	}
	if tagsJSON.Valid && tagsJSON.String != "" && tagsJSON.String != "null" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal tags")
		}
	}
	if examYear.Valid {
		rec.ExamYear = int(examYear.Int64)
	}
	return &rec, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: import run %s not found", runID)
	}
	return nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
