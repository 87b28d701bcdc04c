package model

// RawPage is the text extracted from one page of a source document. Pages are
// produced by an extraction collaborator and consumed exactly once.
type RawPage struct {
	SourceID string `json:"source_id"`
	Index    int    `json:"index"`
	Text     string `json:"text"`
}

// SourceDocument groups the extracted pages of one input file.
type SourceDocument struct {
	ID    string    `json:"id"`
	Path  string    `json:"path,omitempty"`
	Pages []RawPage `json:"pages"`
}

// Lines flattens the document's pages into one line sequence, in page order.
func (d SourceDocument) Lines() []string {
	var lines []string
	for _, p := range d.Pages {
		for _, l := range splitLines(p.Text) {
			lines = append(lines, l)
		}
	}
	return lines
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			line := text[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
