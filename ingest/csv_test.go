package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosstown/tabindex/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListSourceFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "x\n1\n")
	writeFile(t, dir, "a.csv", "x\n1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := listSourceFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", filepath.Base(files[0]))
	assert.Equal(t, "b.csv", filepath.Base(files[1]))
}

func TestListSourceFilesNoInput(t *testing.T) {
	_, err := listSourceFiles(t.TempDir())
	assert.ErrorIs(t, err, core.ErrNoInput)
}

func TestReadDocumentsBuildsPerRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lines.csv", "line_code,incident_count\nA,2\nB,3\n")

	docs, err := readDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "line_code: A | incident_count: 2", docs[0].Text)
	assert.Equal(t, "lines.csv", docs[0].Metadata[core.MetaSourceFile])
	assert.Equal(t, path, docs[0].Metadata[core.MetaSourcePath])
	assert.Equal(t, 0, docs[0].Metadata[core.MetaRowIndex])
	assert.Equal(t, 1, docs[1].Metadata[core.MetaRowIndex])
}

func TestReadDocumentsSkipsEmptyRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sparse.csv", "a,b\nnan,none\n1,2\n,\n")

	docs, err := readDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	// Row indexes still count skipped rows.
	assert.Equal(t, 1, docs[0].Metadata[core.MetaRowIndex])
}

func TestReadDocumentsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "")

	docs, err := readDocuments(path)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadDocumentsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.csv", "a,b\n\"unterminated\n")

	_, err := readDocuments(path)
	assert.Error(t, err)
}
