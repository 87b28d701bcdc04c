package pipeline

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PatternConfig is the serializable form of a PatternSet. Each field is a
// regular expression; capture-group positions are fixed by contract (see the
// field comments). Heuristic variants for differently-typeset exam books are
// a data file, not a code fork.
type PatternConfig struct {
	// QuestionNumber matches a numbered stem line. Group 1 is the number,
	// group 2 the remainder of the line (may be empty).
	QuestionNumber string `yaml:"question_number"`
	// Alternative matches a lettered option line. Group 1 is the letter,
	// group 2 the option text.
	Alternative string `yaml:"alternative"`
	// AnswerKeyword matches a line carrying an answer-key marker.
	AnswerKeyword string `yaml:"answer_keyword"`
	// AnswerLetter captures the resolved letter on an answer-marker line.
	// Group 1 is the letter.
	AnswerLetter string `yaml:"answer_letter"`
	// Letters is the allowed alternative alphabet, in order.
	Letters string `yaml:"letters"`
}

// DefaultPatternConfig covers the typesetting of Brazilian exam books:
// "QUESTÃO 12", "12.", "12)" stems; "A)", "(A)", "A." , "A -" options;
// "Gabarito: A" / "Resposta: A" answer markers.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		QuestionNumber: `^(?i)(?:quest(?:ão|ao)\s+)?(\d{1,3})[\.\)º]\s*(.*)$`,
		Alternative:    `^\(?([A-Ea-e])[\)\.\:]\s*(.*)$|^([A-Ea-e])\s[-–]\s*(.*)$`,
		AnswerKeyword:  `(?i)\b(?:gabarito|resposta\s+correta|resposta|answer)\b`,
		AnswerLetter:   `(?i)(?:gabarito|resposta\s+correta|resposta|answer)\s*[:\-]?\s*(?:letra\s+)?\(?([A-Ea-e])\)?\s*\.?\s*$`,
		Letters:        "ABCDE",
	}
}

// PatternSet is a compiled PatternConfig consumed by the segmenter and the
// answer-key extractor.
type PatternSet struct {
	questionNumber *regexp.Regexp
	alternative    *regexp.Regexp
	answerKeyword  *regexp.Regexp
	answerLetter   *regexp.Regexp
	letters        []string
}

// Compile validates and compiles a PatternConfig.
func (c PatternConfig) Compile() (*PatternSet, error) {
	if c.Letters == "" {
		return nil, eris.New("patterns: letters must not be empty")
	}
	qn, err := regexp.Compile(c.QuestionNumber)
	if err != nil {
		return nil, eris.Wrap(err, "patterns: compile question_number")
	}
	alt, err := regexp.Compile(c.Alternative)
	if err != nil {
		return nil, eris.Wrap(err, "patterns: compile alternative")
	}
	kw, err := regexp.Compile(c.AnswerKeyword)
	if err != nil {
		return nil, eris.Wrap(err, "patterns: compile answer_keyword")
	}
	al, err := regexp.Compile(c.AnswerLetter)
	if err != nil {
		return nil, eris.Wrap(err, "patterns: compile answer_letter")
	}
	letters := make([]string, 0, len(c.Letters))
	for _, r := range c.Letters {
		letters = append(letters, strings.ToUpper(string(r)))
	}
	return &PatternSet{
		questionNumber: qn,
		alternative:    alt,
		answerKeyword:  kw,
		answerLetter:   al,
		letters:        letters,
	}, nil
}

// DefaultPatternSet compiles the default Brazilian-exam patterns.
func DefaultPatternSet() *PatternSet {
	ps, err := DefaultPatternConfig().Compile()
	if err != nil {
		// The default config is a constant; failing to compile it is a bug.
		panic(err)
	}
	return ps
}

// LoadPatternSet reads a PatternConfig from a YAML file. Fields left empty in
// the file fall back to the defaults.
func LoadPatternSet(path string) (*PatternSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "patterns: read %s", path)
	}
	cfg := DefaultPatternConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, eris.Wrapf(err, "patterns: parse %s", path)
	}
	return cfg.Compile()
}

// Letters returns the alternative alphabet in order.
func (p *PatternSet) Letters() []string {
	return p.letters
}

// FirstLetter returns the first letter of the alphabet (the new-question
// signal inside alternative runs).
func (p *PatternSet) FirstLetter() string {
	return p.letters[0]
}

// MatchQuestionNumber reports whether the line opens a numbered stem,
// returning the number text and the rest of the line.
func (p *PatternSet) MatchQuestionNumber(line string) (number string, rest string, ok bool) {
	m := p.questionNumber.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// MatchAlternative reports whether the line opens a lettered alternative,
// returning the uppercased letter and the option text.
func (p *PatternSet) MatchAlternative(line string) (letter string, text string, ok bool) {
	m := p.alternative.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	// The alternative pattern may hold multiple alternated branches; take
	// the first non-empty letter group.
	for i := 1; i < len(m)-1; i += 2 {
		if m[i] != "" {
			letter = strings.ToUpper(m[i])
			text = strings.TrimSpace(m[i+1])
			break
		}
	}
	if letter == "" {
		return "", "", false
	}
	if !p.validLetter(letter) {
		return "", "", false
	}
	return letter, text, true
}

// HasAnswerKeyword reports whether the line carries an answer-key marker.
func (p *PatternSet) HasAnswerKeyword(line string) bool {
	return p.answerKeyword.MatchString(line)
}

// CaptureAnswerLetter extracts the resolved letter from an answer-marker
// line, if one trails it.
func (p *PatternSet) CaptureAnswerLetter(line string) (string, bool) {
	m := p.answerLetter.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	letter := strings.ToUpper(m[1])
	if !p.validLetter(letter) {
		return "", false
	}
	return letter, true
}

func (p *PatternSet) validLetter(letter string) bool {
	for _, l := range p.letters {
		if l == letter {
			return true
		}
	}
	return false
}
