package pipeline

import (
	"regexp"
	"strings"
)

// Line-level noise patterns. Tried in order; a match drops the line.
var (
	// Bare page numbers: "12", "- 12 -", "Página 12", "12/80".
	pageNumberRe = regexp.MustCompile(`(?i)^(?:-\s*)?(?:p[áa]gina\s+)?\d{1,4}(?:\s*/\s*\d{1,4})?(?:\s*-)?$`)

	// Running headers and footers seen across exam PDFs.
	runningHeaderRe = regexp.MustCompile(`(?i)^(?:exame\s+de\s+ordem|ordem\s+dos\s+advogados|prova\s+objetiva|caderno\s+de\s+quest(?:õ|o)es|fgv\s+projetos|tipo\s+\d)\b`)

	// Entities left behind by HTML-sourced dumps.
	nbspRe = regexp.MustCompile(`&nbsp;|\x{00a0}`)

	wsRunRe = regexp.MustCompile(`\s+`)

	// Lines carrying question or answer-key markers are structural: they
	// must survive noise suppression even when typeset as uppercase
	// banners.
	markerKeepRe = regexp.MustCompile(`(?i)\b(?:gabarito|resposta|quest(?:ão|ao))\b`)
)

// Normalizer cleans raw extracted page text line by line. It is a pure,
// idempotent transform: normalizing already-normalized lines is a no-op.
type Normalizer struct {
	// MaxNoiseLineLen is the length above which an all-uppercase line is
	// kept anyway (long uppercase runs shorter than this are treated as
	// running headers).
	MaxNoiseLineLen int
}

// NewNormalizer returns a Normalizer with the given all-caps noise threshold.
func NewNormalizer(maxNoiseLineLen int) *Normalizer {
	if maxNoiseLineLen <= 0 {
		maxNoiseLineLen = 40
	}
	return &Normalizer{MaxNoiseLineLen: maxNoiseLineLen}
}

// Normalize cleans a line sequence, preserving order. Lines that reduce to
// noise are dropped entirely.
func (n *Normalizer) Normalize(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned := n.CleanLine(line)
		if cleaned == "" {
			continue
		}
		if n.isNoise(cleaned) {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// CleanLine normalizes whitespace within one line: tabs and non-breaking
// spaces become plain spaces, runs collapse to one space, ends are trimmed.
func (n *Normalizer) CleanLine(line string) string {
	line = strings.ReplaceAll(line, "\t", " ")
	line = nbspRe.ReplaceAllString(line, " ")
	line = wsRunRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

func (n *Normalizer) isNoise(line string) bool {
	if markerKeepRe.MatchString(line) {
		return false
	}
	if pageNumberRe.MatchString(line) {
		return true
	}
	if runningHeaderRe.MatchString(line) {
		return true
	}
	// Short all-uppercase lines are running headers ("DIREITO CONSTITUCIONAL",
	// exam banner text). Longer uppercase lines can be legitimate statement
	// text quoting statute headings, so they survive.
	if len([]rune(line)) <= n.MaxNoiseLineLen && isAllUpper(line) && countLetters(line) >= 8 {
		return true
	}
	return false
}

func isAllUpper(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		switch r {
		case 'á', 'é', 'í', 'ó', 'ú', 'â', 'ê', 'ô', 'ã', 'õ', 'ç', 'à':
			return false
		}
	}
	return true
}

func countLetters(s string) int {
	count := 0
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r > 127 {
			count++
		}
	}
	return count
}
