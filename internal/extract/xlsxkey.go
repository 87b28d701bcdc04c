package extract

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// LoadAnswerKeyXLSX reads a gabarito spreadsheet: the first sheet, one
// question per row, with the question number in the first numeric cell and
// the answer letter in the first single-letter cell that follows it. Header
// rows and rows without both parts are skipped. First-found precedence
// applies here too: a number seen twice keeps its first letter.
func LoadAnswerKeyXLSX(path string, maxNumber int) (model.AnswerKeyMap, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("extract: %s has no sheets", path)
	}

	key := make(model.AnswerKeyMap)
	for _, row := range f.Sheets[0].Rows {
		number := 0
		for _, cell := range row.Cells {
			text := strings.TrimSpace(cell.String())
			if text == "" {
				continue
			}
			if number == 0 {
				n, err := strconv.Atoi(text)
				if err != nil || n < 1 || (maxNumber > 0 && n > maxNumber) {
					break
				}
				number = n
				continue
			}
			letter := strings.ToUpper(text)
			if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'E' {
				break
			}
			if _, seen := key[number]; !seen {
				key[number] = letter
			}
			break
		}
	}
	return key, nil
}
