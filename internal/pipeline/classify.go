package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

// disciplineKeywords maps a discipline to the stem words that signal it.
// Matching is best-effort and unscored: the first discipline whose keyword
// appears in the statement wins, in declaration order. Keywords and
// statements are both accent-folded, so "ética" matches "Etica".
var disciplineKeywords = []struct {
	discipline string
	keywords   []string
}{
	{"Ética Profissional", []string{"estatuto da advocacia", "codigo de etica", "etica profissional", "honorarios advocaticios", "sociedade de advogados"}},
	{"Direito Constitucional", []string{"constituicao federal", "direitos fundamentais", "controle de constitucionalidade", "mandado de seguranca", "habeas corpus", "acao direta de inconstitucionalidade"}},
	{"Direito Penal", []string{"codigo penal", "crime de", "pena privativa", "dosimetria", "legitima defesa", "tipicidade"}},
	{"Direito Processual Penal", []string{"inquerito policial", "prisao preventiva", "acao penal", "denuncia oferecida", "juizado especial criminal"}},
	{"Direito Civil", []string{"codigo civil", "contrato de", "responsabilidade civil", "usucapiao", "direito das obrigacoes", "regime de bens"}},
	{"Direito Processual Civil", []string{"codigo de processo civil", "peticao inicial", "recurso de apelacao", "tutela provisoria", "cumprimento de sentenca"}},
	{"Direito do Trabalho", []string{"clt", "contrato de trabalho", "verbas rescisorias", "jornada de trabalho", "justa causa"}},
	{"Direito Tributário", []string{"codigo tributario", "fato gerador", "imposto sobre", "obrigacao tributaria", "lancamento tributario"}},
	{"Direito Administrativo", []string{"licitacao", "ato administrativo", "servidor publico", "improbidade administrativa", "concessao de servico"}},
	{"Direito Empresarial", []string{"sociedade limitada", "titulo de credito", "falencia", "recuperacao judicial", "empresario individual"}},
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldAccents lowercases and strips combining marks so keyword matching is
// insensitive to the accents that survive (or don't) PDF extraction.
func foldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Classifier assigns a discipline to a record by keyword search over the
// statement. No confidence score is produced; a record with no keyword hit
// stays unclassified.
type Classifier struct{}

// NewClassifier returns the keyword classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns a copy of the record with discipline filled in when the
// record is still unclassified and a keyword hits.
func (c *Classifier) Classify(rec model.QuestionRecord) model.QuestionRecord {
	if rec.Discipline != "" && rec.Discipline != model.DisciplineUnclassified {
		return rec
	}
	folded := foldAccents(rec.Statement)
	for _, entry := range disciplineKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(folded, kw) {
				rec.Discipline = entry.discipline
				return rec
			}
		}
	}
	rec.Discipline = model.DisciplineUnclassified
	return rec
}
