package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

var (
	// Inline pairs: "1-A", "2: B", "3) C", "15 – D", possibly several per line.
	inlinePairRe = regexp.MustCompile(`\b(\d{1,3})\s*[\.\)\:\-–]\s*\(?([A-Ea-e])\)?(?:\b|$)`)

	// A tabular numbers row: nothing but integers and separators.
	numbersRowRe = regexp.MustCompile(`^(?:\d{1,3}[\s\|]+)+\d{1,3}$|^\d{1,3}$`)

	// A tabular letters row: nothing but single letters and separators.
	lettersRowRe = regexp.MustCompile(`^(?:[A-Ea-e][\s\|]+)+[A-Ea-e]$|^[A-Ea-e]$`)

	tableTokenRe = regexp.MustCompile(`[\s\|]+`)
)

// AnswerKeyExtractor scans a document's full line sequence for answer-key
// tables, independent of question segmentation.
type AnswerKeyExtractor struct {
	patterns    *PatternSet
	windowLines int
	maxNumber   int
}

// NewAnswerKeyExtractor builds an extractor. windowLines bounds how far past
// a keyword line the scan reaches; maxNumber is the numeric sanity bound that
// keeps page numbers, years and statute citations out of the key.
func NewAnswerKeyExtractor(patterns *PatternSet, windowLines, maxNumber int) *AnswerKeyExtractor {
	if patterns == nil {
		patterns = DefaultPatternSet()
	}
	if windowLines <= 0 {
		windowLines = 30
	}
	if maxNumber <= 0 {
		maxNumber = 120
	}
	return &AnswerKeyExtractor{
		patterns:    patterns,
		windowLines: windowLines,
		maxNumber:   maxNumber,
	}
}

// Extract builds the question-number → letter mapping. For any number,
// the first capture wins: a later false positive never overwrites an earlier
// correct entry.
func (e *AnswerKeyExtractor) Extract(lines []string) model.AnswerKeyMap {
	key := make(model.AnswerKeyMap)

	for i, line := range lines {
		if !e.patterns.HasAnswerKeyword(line) {
			continue
		}

		end := i + 1 + e.windowLines
		if end > len(lines) {
			end = len(lines)
		}
		window := lines[i:end]

		e.scanTabular(window, key)
		e.scanInline(window, key)
	}
	return key
}

// scanTabular pairs a row of consecutive integers with the next row of
// consecutive letters, positionally.
func (e *AnswerKeyExtractor) scanTabular(window []string, key model.AnswerKeyMap) {
	for i := 0; i < len(window)-1; i++ {
		row := strings.TrimSpace(window[i])
		if !numbersRowRe.MatchString(row) {
			continue
		}
		numbers := tableTokenRe.Split(row, -1)

		// The letters row may not be strictly adjacent (blank-ish rows are
		// gone after normalization, but a stray header can intervene).
		for j := i + 1; j < len(window) && j <= i+2; j++ {
			next := strings.TrimSpace(window[j])
			if !lettersRowRe.MatchString(next) {
				continue
			}
			letters := tableTokenRe.Split(next, -1)
			if len(letters) != len(numbers) {
				continue
			}
			for k, numText := range numbers {
				num, err := strconv.Atoi(numText)
				if err != nil || !e.plausible(num) {
					continue
				}
				e.admit(key, num, letters[k])
			}
			i = j
			break
		}
	}
}

// scanInline collects "<number><sep><letter>" pairs within the window.
func (e *AnswerKeyExtractor) scanInline(window []string, key model.AnswerKeyMap) {
	for _, line := range window {
		for _, m := range inlinePairRe.FindAllStringSubmatch(line, -1) {
			num, err := strconv.Atoi(m[1])
			if err != nil || !e.plausible(num) {
				continue
			}
			e.admit(key, num, m[2])
		}
	}
}

func (e *AnswerKeyExtractor) admit(key model.AnswerKeyMap, num int, letter string) {
	if _, seen := key[num]; seen {
		return
	}
	key[num] = strings.ToUpper(letter)
}

func (e *AnswerKeyExtractor) plausible(num int) bool {
	return num >= 1 && num <= e.maxNumber
}
