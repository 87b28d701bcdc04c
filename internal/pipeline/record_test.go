package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

func fourAlternatives() map[string]string {
	return map[string]string{"A": "um", "B": "dois", "C": "três", "D": "quatro"}
}

func TestFromCandidate_Valid(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		Number:        7,
		StemLines:     []string{"Sobre o mandado de segurança, assinale a correta."},
		Alternatives:  fourAlternatives(),
		CorrectAnswer: "B",
	}

	rec, err := n.FromCandidate("oab-38", c)
	require.NoError(t, err)
	assert.Equal(t, "oab-38", rec.SourceID)
	assert.Equal(t, 7, rec.Number)
	assert.Equal(t, "B", rec.CorrectAnswer)
	assert.Equal(t, model.TopicGeneral, rec.Topic)
	assert.Equal(t, model.DifficultyMedium, rec.Difficulty)
	assert.Equal(t, model.Fingerprint(rec.Statement), rec.ContentHash)
}

func TestFromCandidate_ConcreteScenarioAdmittedUnchanged(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		Number:    1,
		StemLines: []string{"What is the capital?"},
		Alternatives: map[string]string{
			"A": "Paris", "B": "London", "C": "Rome", "D": "Berlin",
		},
		CorrectAnswer: "A",
	}

	rec, err := n.FromCandidate("demo", c)
	require.NoError(t, err)
	assert.Equal(t, "What is the capital?", rec.Statement)
	assert.Equal(t, "A", rec.CorrectAnswer)
	assert.Len(t, rec.Alternatives, 4)
}

func TestFromCandidate_RejectsShortStatement(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		StemLines:    []string{"Curto demais."},
		Alternatives: fourAlternatives(),
	}

	_, err := n.FromCandidate("src", c)
	require.Error(t, err)
	var rejErr *RejectionError
	assert.ErrorAs(t, err, &rejErr)
	assert.Contains(t, rejErr.Reason, "statement")
}

func TestFromCandidate_RejectsFewAlternatives(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		StemLines:    []string{"Enunciado suficientemente longo para o corte mínimo."},
		Alternatives: map[string]string{"A": "um", "B": "dois", "C": "três"},
	}

	_, err := n.FromCandidate("src", c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alternatives")
}

func TestFromCandidate_RejectsEmptyAlternativeText(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	alts := fourAlternatives()
	alts["C"] = "   "
	c := model.Candidate{
		StemLines:    []string{"Enunciado suficientemente longo para o corte mínimo."},
		Alternatives: alts,
	}

	_, err := n.FromCandidate("src", c)
	assert.Error(t, err)
}

func TestFromCandidate_RejectsAnswerOutsideAlternatives(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		StemLines:     []string{"Enunciado suficientemente longo para o corte mínimo."},
		Alternatives:  fourAlternatives(),
		CorrectAnswer: "E",
	}

	_, err := n.FromCandidate("src", c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correct answer")
}

func TestFromCandidate_EmptyAnswerBecomesSentinel(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	c := model.Candidate{
		StemLines:    []string{"Enunciado suficientemente longo para o corte mínimo."},
		Alternatives: fourAlternatives(),
	}

	rec, err := n.FromCandidate("src", c)
	require.NoError(t, err)
	assert.True(t, rec.NeedsReview())
}

func TestFromLegacy_AliasPriorityOrder(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	raw := map[string]any{
		// "texto" outranks "question_text" in the alias table.
		"texto":         "Enunciado vindo do campo texto, longo o bastante.",
		"question_text": "Enunciado vindo do campo question_text.",
		"alternativas":  map[string]any{"a": "um", "b": "dois", "c": "três", "d": "quatro"},
		"gabarito":      "c",
	}

	rec, err := n.FromLegacy("legado", raw)
	require.NoError(t, err)
	assert.Equal(t, "Enunciado vindo do campo texto, longo o bastante.", rec.Statement)
	assert.Equal(t, "C", rec.CorrectAnswer)
	assert.Equal(t, "três", rec.Alternatives["C"])
}

func TestFromLegacy_SkipsEmptyAlias(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	raw := map[string]any{
		"enunciado": "   ",
		"pergunta":  "Enunciado vindo do alias de menor prioridade, longo.",
		"options":   map[string]any{"A": "um", "B": "dois", "C": "três", "D": "quatro"},
	}

	rec, err := n.FromLegacy("legado", raw)
	require.NoError(t, err)
	assert.Equal(t, "Enunciado vindo do alias de menor prioridade, longo.", rec.Statement)
}

func TestFromLegacy_FullRecord(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	raw := map[string]any{
		"numero":      float64(42),
		"disciplina":  "Direito Civil",
		"assunto":     "Contratos",
		"enunciado":   "Acerca dos contratos de compra e venda, assinale a correta.",
		"alternativas": map[string]any{"A": "um", "B": "dois", "C": "três", "D": "quatro"},
		"resposta":    "d",
		"comentario":  "Ver art. 481 do Código Civil.",
		"base_legal":  "CC, art. 481",
		"dificuldade": "dificil",
		"ano":         "2023",
		"tags":        []any{"contratos", "compra e venda"},
	}

	rec, err := n.FromLegacy("legado", raw)
	require.NoError(t, err)
	assert.Equal(t, 42, rec.Number)
	assert.Equal(t, "Direito Civil", rec.Discipline)
	assert.Equal(t, "Contratos", rec.Topic)
	assert.Equal(t, "D", rec.CorrectAnswer)
	assert.Equal(t, "Ver art. 481 do Código Civil.", rec.Explanation)
	assert.Equal(t, "CC, art. 481", rec.LegalBasis)
	assert.Equal(t, model.DifficultyHard, rec.Difficulty)
	assert.Equal(t, 2023, rec.ExamYear)
	assert.Equal(t, []string{"contratos", "compra e venda"}, rec.Tags)
}

func TestFromLegacy_MissingStatementRejected(t *testing.T) {
	n := NewRecordNormalizer(20, 4)
	raw := map[string]any{
		"alternativas": map[string]any{"A": "um", "B": "dois", "C": "três", "D": "quatro"},
	}

	_, err := n.FromLegacy("legado", raw)
	assert.Error(t, err)
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want model.Difficulty
	}{
		{"easy", model.DifficultyEasy},
		{"Fácil", model.DifficultyEasy},
		{"hard", model.DifficultyHard},
		{"DIFICIL", model.DifficultyHard},
		{"media", model.DifficultyMedium},
		{"", model.DifficultyMedium},
		{"whatever", model.DifficultyMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDifficulty(tt.in), tt.in)
	}
}
