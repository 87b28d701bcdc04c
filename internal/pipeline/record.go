package pipeline

import (
	"strconv"
	"strings"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// Field alias tables, in priority order: the first non-empty alias wins.
// Legacy exports from earlier scraper generations named the same fields in
// Portuguese, English, or both; the ambiguity is resolved here and nowhere
// else.
var (
	statementAliases    = []string{"statement", "enunciado", "texto", "text", "question_text", "pergunta", "prompt"}
	alternativesAliases = []string{"alternatives", "alternativas", "options", "opcoes", "choices"}
	answerAliases       = []string{"correct_answer", "gabarito", "resposta_correta", "resposta", "answer"}
	disciplineAliases   = []string{"discipline", "disciplina", "materia", "subject", "area"}
	topicAliases        = []string{"topic", "topico", "assunto", "subtopic"}
	explanationAliases  = []string{"explanation", "explicacao", "comentario", "justificativa"}
	legalBasisAliases   = []string{"legal_basis", "base_legal", "fundamento", "fundamentacao"}
	difficultyAliases   = []string{"difficulty", "dificuldade", "nivel"}
	numberAliases       = []string{"number", "numero", "num", "question_number"}
	yearAliases         = []string{"exam_year", "ano", "year", "ano_prova"}
	tagsAliases         = []string{"tags", "palavras_chave", "keywords"}
)

// RejectionError explains why a candidate failed the validation gate.
// Rejections are expected control flow, counted by the driver, never fatal.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "rejected: " + e.Reason
}

func reject(reason string) error {
	return &RejectionError{Reason: reason}
}

// RecordNormalizer converts segmented candidates and legacy-shaped inputs
// into canonical question records, or rejects them.
type RecordNormalizer struct {
	minStatementLen int
	minAlternatives int
}

// NewRecordNormalizer builds a normalizer with the given validation bounds.
func NewRecordNormalizer(minStatementLen, minAlternatives int) *RecordNormalizer {
	if minStatementLen <= 0 {
		minStatementLen = 20
	}
	if minAlternatives <= 0 {
		minAlternatives = 4
	}
	return &RecordNormalizer{
		minStatementLen: minStatementLen,
		minAlternatives: minAlternatives,
	}
}

// FromCandidate converts a segmented candidate into a canonical record.
func (n *RecordNormalizer) FromCandidate(sourceID string, c model.Candidate) (model.QuestionRecord, error) {
	rec := model.QuestionRecord{
		SourceID:      sourceID,
		Number:        c.Number,
		Statement:     c.Statement(),
		Alternatives:  c.Alternatives,
		CorrectAnswer: c.CorrectAnswer,
	}
	return n.finalize(rec)
}

// FromLegacy converts a loosely-shaped object from an earlier export format.
// Unknown fields are ignored; known fields are resolved through the alias
// tables.
func (n *RecordNormalizer) FromLegacy(sourceID string, raw map[string]any) (model.QuestionRecord, error) {
	rec := model.QuestionRecord{
		SourceID:      sourceID,
		Number:        firstInt(raw, numberAliases),
		Discipline:    firstString(raw, disciplineAliases),
		Topic:         firstString(raw, topicAliases),
		Statement:     firstString(raw, statementAliases),
		Alternatives:  firstAlternatives(raw, alternativesAliases),
		CorrectAnswer: strings.ToUpper(firstString(raw, answerAliases)),
		Explanation:   firstString(raw, explanationAliases),
		LegalBasis:    firstString(raw, legalBasisAliases),
		ExamYear:      firstInt(raw, yearAliases),
		Tags:          firstStrings(raw, tagsAliases),
	}
	rec.Difficulty = parseDifficulty(firstString(raw, difficultyAliases))
	return n.finalize(rec)
}

// finalize applies defaults and the validation gate. The gate short-circuits
// on the first failure, in a fixed order: statement, alternatives, answer.
func (n *RecordNormalizer) finalize(rec model.QuestionRecord) (model.QuestionRecord, error) {
	rec.Statement = strings.TrimSpace(rec.Statement)
	if len([]rune(rec.Statement)) < n.minStatementLen {
		return model.QuestionRecord{}, reject("statement missing or shorter than minimum")
	}

	if len(rec.Alternatives) < n.minAlternatives {
		return model.QuestionRecord{}, reject("fewer alternatives than minimum")
	}
	for letter, text := range rec.Alternatives {
		if strings.TrimSpace(text) == "" {
			return model.QuestionRecord{}, reject("empty alternative " + letter)
		}
	}

	if rec.CorrectAnswer == "" {
		rec.CorrectAnswer = model.AnswerNeedsReview
	}
	if rec.CorrectAnswer != model.AnswerNeedsReview {
		if _, ok := rec.Alternatives[rec.CorrectAnswer]; !ok {
			return model.QuestionRecord{}, reject("correct answer is not an alternative letter")
		}
	}

	if rec.Discipline == "" {
		rec.Discipline = model.DisciplineUnclassified
	}
	if rec.Topic == "" {
		rec.Topic = model.TopicGeneral
	}
	if rec.Difficulty == "" {
		rec.Difficulty = model.DifficultyMedium
	}
	rec.ContentHash = model.Fingerprint(rec.Statement)
	return rec, nil
}

func parseDifficulty(s string) model.Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "facil", "fácil":
		return model.DifficultyEasy
	case "hard", "dificil", "difícil":
		return model.DifficultyHard
	case "medium", "media", "média", "":
		return model.DifficultyMedium
	default:
		return model.DifficultyMedium
	}
}

func firstString(raw map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := raw[alias]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstInt(raw map[string]any, aliases []string) int {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case int:
			return t
		case float64:
			return int(t)
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return i
			}
		}
	}
	return 0
}

func firstStrings(raw map[string]any, aliases []string) []string {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case []string:
			if len(t) > 0 {
				return t
			}
		case []any:
			var out []string
			for _, item := range t {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func firstAlternatives(raw map[string]any, aliases []string) map[string]string {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case map[string]string:
			if len(t) > 0 {
				return upperKeys(t)
			}
		case map[string]any:
			out := make(map[string]string, len(t))
			for letter, text := range t {
				if s, ok := text.(string); ok {
					out[strings.ToUpper(letter)] = s
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func upperKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}
