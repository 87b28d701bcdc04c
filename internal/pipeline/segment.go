package pipeline

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// segState is the segmenter's scan state.
type segState int

const (
	stateSeeking segState = iota
	stateInStem
	stateInAlternatives
	stateInAnswerKey
)

// Segmenter partitions a normalized line sequence into question candidates.
// One state machine parameterized by a PatternSet replaces the pile of
// near-duplicate regex scripts this logic usually accretes.
type Segmenter struct {
	patterns        *PatternSet
	minStemLineLen  int
	minAlternatives int
}

// NewSegmenter builds a Segmenter. minStemLineLen is the length below which
// a line outside any question is treated as noise; minAlternatives is the
// minimum distinct letters a candidate needs to be emitted.
func NewSegmenter(patterns *PatternSet, minStemLineLen, minAlternatives int) *Segmenter {
	if patterns == nil {
		patterns = DefaultPatternSet()
	}
	if minStemLineLen <= 0 {
		minStemLineLen = 15
	}
	if minAlternatives <= 0 {
		minAlternatives = 4
	}
	return &Segmenter{
		patterns:        patterns,
		minStemLineLen:  minStemLineLen,
		minAlternatives: minAlternatives,
	}
}

// Segment consumes the line sequence once and returns the candidates found,
// in document order. Input with no recognizable markers yields an empty
// result; that is a legitimate "no questions found", not an error.
func (s *Segmenter) Segment(lines []string) []model.Candidate {
	var (
		out        []model.Candidate
		cur        *model.Candidate
		lastLetter string
		state      = stateSeeking
		discarded  int
	)

	flush := func() {
		if cur == nil {
			return
		}
		if len(cur.Alternatives) < s.minAlternatives {
			// Incomplete questions are dropped, never padded with guessed
			// content.
			discarded++
			cur = nil
			lastLetter = ""
			return
		}
		if cur.CorrectAnswer == "" {
			cur.CorrectAnswer = model.AnswerNeedsReview
		}
		out = append(out, *cur)
		cur = nil
		lastLetter = ""
	}

	startCandidate := func(number int, stem string) {
		flush()
		cur = &model.Candidate{
			Number:       number,
			Alternatives: make(map[string]string),
		}
		if stem != "" {
			cur.StemLines = append(cur.StemLines, stem)
		}
	}

	for _, line := range lines {
		// A numbered stem always opens a new question, whatever the state.
		if numText, rest, ok := s.patterns.MatchQuestionNumber(line); ok {
			num, _ := strconv.Atoi(numText)
			startCandidate(num, rest)
			state = stateInStem
			continue
		}

		switch state {
		case stateSeeking, stateInStem, stateInAnswerKey:
			if letter, text, ok := s.patterns.MatchAlternative(line); ok {
				if letter == s.patterns.FirstLetter() {
					if cur == nil {
						cur = &model.Candidate{Alternatives: make(map[string]string)}
					}
					cur.Alternatives[letter] = text
					lastLetter = letter
					state = stateInAlternatives
					continue
				}
				// A mid-alphabet letter with no open candidate is stray
				// noise (answer-key residue, typographic accident).
				if cur != nil && state != stateInAnswerKey {
					cur.Alternatives[letter] = text
					lastLetter = letter
					state = stateInAlternatives
				}
				continue
			}
			if state == stateInAnswerKey {
				// Between the answer marker and the next question
				// everything is key-table residue.
				continue
			}
			if len([]rune(line)) < s.minStemLineLen {
				continue
			}
			if cur == nil {
				cur = &model.Candidate{Alternatives: make(map[string]string)}
			}
			cur.StemLines = append(cur.StemLines, line)
			state = stateInStem

		case stateInAlternatives:
			if s.patterns.HasAnswerKeyword(line) {
				if letter, ok := s.patterns.CaptureAnswerLetter(line); ok && cur != nil {
					cur.CorrectAnswer = letter
				}
				flush()
				state = stateInAnswerKey
				continue
			}
			if letter, text, ok := s.patterns.MatchAlternative(line); ok {
				if letter == s.patterns.FirstLetter() && cur != nil && len(cur.Alternatives) > 0 {
					// Letter A reappearing mid-run starts the next
					// question in sources without numbered stems.
					startCandidate(0, "")
					cur.Alternatives[letter] = text
					lastLetter = letter
					continue
				}
				if cur != nil {
					cur.Alternatives[letter] = text
					lastLetter = letter
				}
				continue
			}
			// Wrapped alternative text continues the last-seen letter.
			if cur != nil && lastLetter != "" {
				prev := cur.Alternatives[lastLetter]
				cur.Alternatives[lastLetter] = strings.TrimSpace(prev + " " + line)
			}
		}
	}
	flush()

	if discarded > 0 {
		zap.L().Debug("segmenter: discarded incomplete candidates",
			zap.Int("discarded", discarded),
			zap.Int("emitted", len(out)),
		)
	}
	return out
}
