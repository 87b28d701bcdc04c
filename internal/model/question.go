package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Difficulty classifies how hard a question is expected to be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AnswerNeedsReview marks a question whose correct answer could not be
// resolved from any answer key. It is distinct from an empty value: an empty
// correctAnswer never leaves the pipeline.
const AnswerNeedsReview = "NEEDS_REVIEW"

// DisciplineUnclassified is assigned when keyword classification finds no match.
const DisciplineUnclassified = "unclassified"

// TopicGeneral is the default subtopic.
const TopicGeneral = "general"

// Candidate is a provisionally segmented question block. It has not been
// validated and may still be rejected by the record normalizer.
type Candidate struct {
	Number        int               `json:"number"`
	StemLines     []string          `json:"stem_lines"`
	Alternatives  map[string]string `json:"alternatives"`
	CorrectAnswer string            `json:"correct_answer"`
}

// Statement joins the stem lines into a single statement string.
func (c Candidate) Statement() string {
	return strings.TrimSpace(strings.Join(c.StemLines, " "))
}

// QuestionRecord is the canonical, validated question shape ready for
// persistence. Records are values: once built they are replaced, never
// mutated.
type QuestionRecord struct {
	SourceID      string            `json:"source_id"`
	Number        int               `json:"number"`
	Discipline    string            `json:"discipline"`
	Topic         string            `json:"topic"`
	Statement     string            `json:"statement"`
	Alternatives  map[string]string `json:"alternatives"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
	LegalBasis    string            `json:"legal_basis,omitempty"`
	Difficulty    Difficulty        `json:"difficulty"`
	ExamYear      int               `json:"exam_year,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	ContentHash   string            `json:"content_hash"`
}

// NeedsReview reports whether the record still lacks a resolved answer.
func (r QuestionRecord) NeedsReview() bool {
	return r.CorrectAnswer == AnswerNeedsReview
}

// WithCorrectAnswer returns a copy of the record with the given answer
// letter. The content hash depends only on the statement, so it carries over
// unchanged.
func (r QuestionRecord) WithCorrectAnswer(letter string) QuestionRecord {
	r.CorrectAnswer = letter
	return r
}

// AlternativeLetters returns the record's alternative letters in sorted order.
func (r QuestionRecord) AlternativeLetters() []string {
	letters := make([]string, 0, len(r.Alternatives))
	for l := range r.Alternatives {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	return letters
}

// AnswerKeyMap maps a question number, as printed in one source document, to
// its correct answer letter. Built once per source and discarded after the
// join.
type AnswerKeyMap map[int]string

// Fingerprint computes the dedup identity of a statement: lowercase the
// text, collapse whitespace runs to single spaces, trim, and hash. Two
// statements that differ only in case or spacing fingerprint identically.
func Fingerprint(statement string) string {
	folded := strings.ToLower(strings.TrimSpace(statement))
	folded = strings.Join(strings.Fields(folded), " ")
	sum := sha256.Sum256([]byte(folded))
	return hex.EncodeToString(sum[:])
}
