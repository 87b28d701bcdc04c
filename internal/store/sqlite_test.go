package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doutora-ia/questbank-cli/internal/config"
	"github.com/doutora-ia/questbank-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sampleRecord("A respeito do controle difuso de constitucionalidade, assinale a afirmativa correta.")
	rec.ExamYear = 2023
	rec.Tags = []string{"controle de constitucionalidade"}

	inserted, err := st.UpsertQuestions(ctx, []model.QuestionRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	got, err := st.GetQuestion(ctx, rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, rec.Statement, got.Statement)
	assert.Equal(t, rec.Alternatives, got.Alternatives)
	assert.Equal(t, rec.CorrectAnswer, got.CorrectAnswer)
	assert.Equal(t, 2023, got.ExamYear)
	assert.Equal(t, []string{"controle de constitucionalidade"}, got.Tags)
}

func TestSQLite_UpsertIsIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sampleRecord("Questão repetida em dois cadernos distintos.")

	inserted, err := st.UpsertQuestions(ctx, []model.QuestionRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	// Re-import the same record; the first copy wins and nothing changes.
	dup := rec
	dup.SourceID = "oab-39"
	inserted, err = st.UpsertQuestions(ctx, []model.QuestionRecord{dup})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	got, err := st.GetQuestion(ctx, rec.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, "oab-38", got.SourceID)

	count, err := st.CountQuestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLite_GetQuestion_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetQuestion(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListQuestions_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	constitutional := sampleRecord("Questão de direito constitucional sobre cláusulas pétreas.")
	penal := sampleRecord("Questão de direito penal sobre o princípio da legalidade.")
	penal.Discipline = "Direito Penal"
	penal.Number = 2
	review := sampleRecord("Questão sem gabarito divulgado até o momento.")
	review.CorrectAnswer = model.AnswerNeedsReview
	review.Number = 3

	_, err := st.UpsertQuestions(ctx, []model.QuestionRecord{constitutional, penal, review})
	require.NoError(t, err)

	byDiscipline, err := st.ListQuestions(ctx, QuestionFilter{Discipline: "Direito Penal"})
	require.NoError(t, err)
	require.Len(t, byDiscipline, 1)
	assert.Equal(t, penal.ContentHash, byDiscipline[0].ContentHash)

	needsReview, err := st.ListQuestions(ctx, QuestionFilter{NeedsReview: true})
	require.NoError(t, err)
	require.Len(t, needsReview, 1)
	assert.Equal(t, review.ContentHash, needsReview[0].ContentHash)

	limited, err := st.ListQuestions(ctx, QuestionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bySource, err := st.ListQuestions(ctx, QuestionFilter{SourceID: "oab-38"})
	require.NoError(t, err)
	assert.Len(t, bySource, 3)
}

func TestSQLite_ListQuestions_OrderedBySourceAndNumber(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	second := sampleRecord("Segunda questão do caderno.")
	second.Number = 12
	first := sampleRecord("Primeira questão do caderno.")
	first.Number = 3

	_, err := st.UpsertQuestions(ctx, []model.QuestionRecord{second, first})
	require.NoError(t, err)

	listed, err := st.ListQuestions(ctx, QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, 3, listed[0].Number)
	assert.Equal(t, 12, listed[1].Number)
}

func TestSQLite_ImportRunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateImportRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	report := &model.RunReport{RecordsAdmitted: 80, DuplicatesDropped: 5}
	require.NoError(t, st.CompleteImportRun(ctx, run.ID, report))

	runs, err := st.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Report)
	assert.Equal(t, 80, runs[0].Report.RecordsAdmitted)
}

func TestSQLite_FailImportRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateImportRun(ctx)
	require.NoError(t, err)
	require.NoError(t, st.FailImportRun(ctx, run.ID, "pdftotext not installed"))

	runs, err := st.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Equal(t, "pdftotext not installed", runs[0].Error)
	assert.Nil(t, runs[0].Report)
}

func TestSQLite_CompleteImportRun_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteImportRun(context.Background(), "no-such-run", &model.RunReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStore_Open_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql", DatabaseURL: "dsn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestStore_Open_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: dbPath})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Close())
}
