package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{"  Sobre\tos  direitos   fundamentais,  julgue: "})
	assert.Equal(t, []string{"Sobre os direitos fundamentais, julgue:"}, out)
}

func TestNormalize_ReplacesNBSPEntities(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{"texto&nbsp;com&nbsp;entidades de marcação"})
	assert.Equal(t, []string{"texto com entidades de marcação"}, out)
}

func TestNormalize_DropsPageNumbers(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{"12", "- 12 -", "Página 12", "12/80", "Uma linha de conteúdo real aqui."})
	assert.Equal(t, []string{"Uma linha de conteúdo real aqui."}, out)
}

func TestNormalize_DropsRunningHeaders(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{
		"Exame de Ordem Unificado XXXVIII",
		"Caderno de Questões - Tipo 1",
		"O candidato deve assinalar a alternativa correta.",
	})
	assert.Equal(t, []string{"O candidato deve assinalar a alternativa correta."}, out)
}

func TestNormalize_DropsShortAllCapsHeaders(t *testing.T) {
	n := NewNormalizer(40)
	out := n.Normalize([]string{
		"DIREITO CONSTITUCIONAL",
		"Assinale a alternativa que apresenta a resposta correta.",
	})
	assert.Equal(t, []string{"Assinale a alternativa que apresenta a resposta correta."}, out)
}

func TestNormalize_KeepsLongUppercaseStatementText(t *testing.T) {
	n := NewNormalizer(40)
	line := "CAPÍTULO I DOS DIREITOS E DEVERES INDIVIDUAIS E COLETIVOS, NOS TERMOS DA CONSTITUIÇÃO"
	out := n.Normalize([]string{line})
	assert.Len(t, out, 1)
}

func TestNormalize_DropsEmptyLines(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{"", "   ", "\t"})
	assert.Empty(t, out)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(40)
	input := []string{
		"  QUESTÃO 1  ",
		"Sobre  o\tcontrole de constitucionalidade, assinale:",
		"12",
		"DIREITO PENAL",
		"(A)  é cabível a\treclamação.",
	}
	once := n.Normalize(input)
	twice := n.Normalize(once)
	assert.Equal(t, once, twice)
}

func TestNormalize_PreservesOrder(t *testing.T) {
	n := NewNormalizer(0)
	out := n.Normalize([]string{"primeira linha de conteúdo", "segunda linha de conteúdo"})
	assert.Equal(t, []string{"primeira linha de conteúdo", "segunda linha de conteúdo"}, out)
}
