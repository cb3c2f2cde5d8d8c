package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocumentJoinsQualifyingCells(t *testing.T) {
	doc := BuildDocument("incidents.csv", "data/incidents.csv", 3,
		[]string{"Incident Type", "Date", "Address"},
		[]string{"Theft", "2024-07-13", "12 Main St"})

	require.NotNil(t, doc)
	assert.Equal(t, "Incident Type: Theft | Date: 2024-07-13 | Address: 12 Main St", doc.Text)
	assert.Equal(t, "incidents.csv", doc.Metadata[MetaSourceFile])
	assert.Equal(t, "data/incidents.csv", doc.Metadata[MetaSourcePath])
	assert.Equal(t, 3, doc.Metadata[MetaRowIndex])
	assert.Equal(t, "Theft", doc.Metadata["col_Incident Type"])
}

func TestBuildDocumentSkipsNullSentinels(t *testing.T) {
	doc := BuildDocument("f.csv", "data/f.csv", 0,
		[]string{"a", "b", "c", "d"},
		[]string{"NaN", "  None ", "", "value"})

	require.NotNil(t, doc)
	assert.Equal(t, "d: value", doc.Text)

	// Null cells still appear in metadata as empty strings.
	assert.Equal(t, "", doc.Metadata["col_a"])
	assert.Equal(t, "", doc.Metadata["col_b"])
	assert.Equal(t, "", doc.Metadata["col_c"])
	assert.Equal(t, "value", doc.Metadata["col_d"])
}

func TestBuildDocumentAllEmptyReturnsNil(t *testing.T) {
	doc := BuildDocument("f.csv", "data/f.csv", 0,
		[]string{"a", "b", "c"},
		[]string{"nan", "NONE", "   "})
	assert.Nil(t, doc)
}

func TestBuildDocumentShortRowPadsMetadata(t *testing.T) {
	doc := BuildDocument("f.csv", "data/f.csv", 1,
		[]string{"a", "b"},
		[]string{"x"})

	require.NotNil(t, doc)
	assert.Equal(t, "a: x", doc.Text)
	assert.Equal(t, "", doc.Metadata["col_b"])
}

func TestBuildDocumentTruncatesLongMetadataValues(t *testing.T) {
	long := strings.Repeat("x", 500)
	doc := BuildDocument("f.csv", "data/f.csv", 0, []string{"a"}, []string{long})

	require.NotNil(t, doc)
	assert.Len(t, doc.Metadata["col_a"], 200)
	// Text keeps the full value; only metadata is truncated.
	assert.Equal(t, "a: "+long, doc.Text)
}

func TestBuildDocumentTruncatesMultibyteOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("é", 300)
	doc := BuildDocument("f.csv", "data/f.csv", 0, []string{"a"}, []string{long})

	require.NotNil(t, doc)
	stored, ok := doc.Metadata["col_a"].(string)
	require.True(t, ok)

	assert.True(t, utf8.ValidString(stored))
	assert.Equal(t, 200, utf8.RuneCountInString(stored))
	assert.Equal(t, strings.Repeat("é", 200), stored)
}

func TestDocumentIDDeterministic(t *testing.T) {
	a := DocumentID("f.csv", 7, "some row text")
	b := DocumentID("f.csv", 7, "some row text")
	assert.Equal(t, a, b)

	// Canonical UUID rendering, fixed width.
	require.Len(t, a, 36)
	assert.Equal(t, strings.ToLower(a), a)
}

func TestDocumentIDDistinguishesInputs(t *testing.T) {
	base := DocumentID("f.csv", 7, "some row text")
	assert.NotEqual(t, base, DocumentID("g.csv", 7, "some row text"))
	assert.NotEqual(t, base, DocumentID("f.csv", 8, "some row text"))
	assert.NotEqual(t, base, DocumentID("f.csv", 7, "other row text"))
}

func TestDocumentIDOnlyLeadingTextParticipates(t *testing.T) {
	prefix := strings.Repeat("a", 100)
	x := DocumentID("f.csv", 0, prefix+"tail one")
	y := DocumentID("f.csv", 0, prefix+"tail two")
	assert.Equal(t, x, y)
}

func TestDocumentIDSeedCountsRunes(t *testing.T) {
	// 100 two-byte runes; the seed covers all of them, so the tail still
	// lies beyond the seed and must not influence the ID.
	prefix := strings.Repeat("é", 100)
	x := DocumentID("f.csv", 0, prefix+"tail one")
	y := DocumentID("f.csv", 0, prefix+"tail two")
	assert.Equal(t, x, y)

	// A shorter multibyte prefix leaves part of the tail inside the seed.
	short := strings.Repeat("é", 96)
	assert.NotEqual(t,
		DocumentID("f.csv", 0, short+"tail one"),
		DocumentID("f.csv", 0, short+"tail two"))
}

func TestBuildDocumentIDStableAcrossRebuilds(t *testing.T) {
	columns := []string{"date", "count"}
	values := []string{"2024-07-13", "5"}

	first := BuildDocument("july_2024_crime_summary.csv", "data/july_2024_crime_summary.csv", 2, columns, values)
	second := BuildDocument("july_2024_crime_summary.csv", "data/july_2024_crime_summary.csv", 2, columns, values)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
}
