package extract

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// LoadLegacy reads a legacy JSON export: either a bare array of question
// objects or an object wrapping one under a known key. Earlier scraper
// generations produced both shapes.
func LoadLegacy(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read %s", path)
	}

	var asArray []map[string]any
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return nil, eris.Wrapf(err, "extract: parse %s", path)
	}
	for _, key := range []string{"questions", "questoes", "items", "data"} {
		inner, ok := asObject[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &asArray); err != nil {
			return nil, eris.Wrapf(err, "extract: parse %s key %q", path, key)
		}
		return asArray, nil
	}
	return nil, eris.Errorf("extract: %s has no recognizable question array", path)
}
