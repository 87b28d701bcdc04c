//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/doutora-ia/questbank-cli/internal/config"
	"github.com/doutora-ia/questbank-cli/internal/extract"
	"github.com/doutora-ia/questbank-cli/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeKeySpreadsheet(t *testing.T, path string, entries map[int]string) {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Gabarito")
	require.NoError(t, err)
	for number, letter := range entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(number)
		row.AddCell().SetString(letter)
	}
	require.NoError(t, file.Save(path))
}

func TestCollectSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "prova.txt"), "texto")
	writeFile(t, filepath.Join(dir, "caderno.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(dir, "legado.json"), "[]")
	writeFile(t, filepath.Join(dir, "gabarito.xlsx"), "sidecar, not a source")
	writeFile(t, filepath.Join(dir, "notas.md"), "ignored")

	paths, err := collectSourceFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "caderno.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "legado.json"), paths[1])
	assert.Equal(t, filepath.Join(dir, "prova.txt"), paths[2])
}

func TestCollectSourceFiles_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prova.txt")
	writeFile(t, path, "texto")

	paths, err := collectSourceFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, paths)
}

func TestCollectSourceFiles_UnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notas.md")
	writeFile(t, path, "x")

	_, err := collectSourceFiles([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestCollectSourceFiles_Missing(t *testing.T) {
	_, err := collectSourceFiles([]string{"/nonexistent/prova.pdf"})
	require.Error(t, err)
}

func TestFindSidecar_PrefersGabaritoSuffix(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "oab-38.txt")
	writeFile(t, source, "texto")
	writeFile(t, filepath.Join(dir, "oab-38.xlsx"), "plain")
	writeFile(t, filepath.Join(dir, "oab-38-gabarito.xlsx"), "suffixed")

	assert.Equal(t, filepath.Join(dir, "oab-38-gabarito.xlsx"), findSidecar(source))
}

func TestFindSidecar_None(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "oab-38.txt")
	writeFile(t, source, "texto")

	assert.Empty(t, findSidecar(source))
}

func TestFileSource_LoadText_WithSidecarKey(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "oab-38.txt")
	writeFile(t, source, "primeira linha\nsegunda linha\fterceira linha\n")
	writeKeySpreadsheet(t, filepath.Join(dir, "oab-38-gabarito.xlsx"), map[int]string{1: "A", 2: "C"})

	fs := &fileSource{
		path:      source,
		registry:  extract.NewRegistry(extract.Options{}),
		maxNumber: 120,
	}
	assert.Equal(t, "oab-38", fs.ID())

	payload, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"primeira linha", "segunda linha", "terceira linha"}, payload.Lines)
	assert.Empty(t, payload.Legacy)
	assert.Equal(t, model.AnswerKeyMap{1: "A", 2: "C"}, payload.SidecarKey)
}

func TestFileSource_LoadLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "export.json")
	writeFile(t, source, `[{"enunciado": "Questão legada.", "resposta": "B"}]`)

	fs := &fileSource{
		path:      source,
		registry:  extract.NewRegistry(extract.Options{}),
		maxNumber: 120,
	}

	payload, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payload.Lines)
	require.Len(t, payload.Legacy, 1)
	assert.Equal(t, "Questão legada.", payload.Legacy[0]["enunciado"])
}

func TestFileSource_Load_UnreadableSidecarIsSkipped(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "oab-39.txt")
	writeFile(t, source, "conteúdo\n")
	writeFile(t, filepath.Join(dir, "oab-39.xlsx"), "not a spreadsheet")

	fs := &fileSource{
		path:      source,
		registry:  extract.NewRegistry(extract.Options{}),
		maxNumber: 120,
	}

	payload, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, payload.SidecarKey)
}

func TestLoadPatterns_Default(t *testing.T) {
	prev := cfg
	cfg = &config.Config{}
	t.Cleanup(func() { cfg = prev })

	patterns, err := loadPatterns()
	require.NoError(t, err)
	assert.NotNil(t, patterns)
}

func TestFormatReport(t *testing.T) {
	report := model.NewRunReport()
	report.AddSource(model.SourceReport{
		SourceID: "oab-38", Candidates: 80, Admitted: 75, Rejected: 3, Duplicates: 2, AnswerKeySize: 80,
	})
	report.AddSource(model.SourceReport{
		SourceID: "oab-39", Failed: true, FailureReason: "pdftotext exited 1",
	})

	var buf bytes.Buffer
	formatReport(&buf, report, 75)

	out := buf.String()
	assert.Contains(t, out, "oab-38")
	assert.Contains(t, out, "failed: pdftotext exited 1")
	assert.Contains(t, out, "1 sources processed, 1 failed")
	assert.Contains(t, out, "75 new questions stored")
}

func TestSupportedSource(t *testing.T) {
	assert.True(t, supportedSource("prova.PDF"))
	assert.True(t, supportedSource("prova.txt"))
	assert.True(t, supportedSource("export.json"))
	assert.False(t, supportedSource("gabarito.xlsx"))
	assert.False(t, supportedSource("leia-me"))
}
