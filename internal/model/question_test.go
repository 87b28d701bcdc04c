package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_FoldsCaseAndWhitespace(t *testing.T) {
	a := Fingerprint("Qual é a capital?  ")
	b := Fingerprint("qual   é\ta CAPITAL?")
	assert.Equal(t, a, b)
}

func TestFingerprint_DistinctStatements(t *testing.T) {
	a := Fingerprint("Sobre o mandado de segurança, assinale a correta.")
	b := Fingerprint("Sobre o habeas corpus, assinale a correta.")
	assert.NotEqual(t, a, b)
}

func TestFingerprint_Deterministic(t *testing.T) {
	s := "Acerca dos direitos fundamentais, julgue o item."
	assert.Equal(t, Fingerprint(s), Fingerprint(s))
	assert.Len(t, Fingerprint(s), 64)
}

func TestCandidate_Statement(t *testing.T) {
	c := Candidate{StemLines: []string{"Sobre a Constituição,", "assinale a alternativa correta."}}
	assert.Equal(t, "Sobre a Constituição, assinale a alternativa correta.", c.Statement())
}

func TestCandidate_Statement_Empty(t *testing.T) {
	assert.Equal(t, "", Candidate{}.Statement())
}

func TestQuestionRecord_NeedsReview(t *testing.T) {
	r := QuestionRecord{CorrectAnswer: AnswerNeedsReview}
	assert.True(t, r.NeedsReview())
	assert.False(t, r.WithCorrectAnswer("B").NeedsReview())
}

func TestQuestionRecord_WithCorrectAnswer_DoesNotMutate(t *testing.T) {
	r := QuestionRecord{CorrectAnswer: AnswerNeedsReview, ContentHash: "abc"}
	r2 := r.WithCorrectAnswer("C")
	assert.Equal(t, AnswerNeedsReview, r.CorrectAnswer)
	assert.Equal(t, "C", r2.CorrectAnswer)
	assert.Equal(t, "abc", r2.ContentHash)
}

func TestQuestionRecord_AlternativeLetters_Sorted(t *testing.T) {
	r := QuestionRecord{Alternatives: map[string]string{"C": "c", "A": "a", "D": "d", "B": "b"}}
	assert.Equal(t, []string{"A", "B", "C", "D"}, r.AlternativeLetters())
}
