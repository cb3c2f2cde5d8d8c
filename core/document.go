package core

import (
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Metadata keys attached to every document in addition to the per-column entries.
const (
	MetaSourceFile = "source_file"
	MetaSourcePath = "source_path"
	MetaRowIndex   = "row_index"

	// ColumnKeyPrefix prefixes the metadata key for each original column.
	ColumnKeyPrefix = "col_"
)

// maxMetadataValueLen caps stored column values, in runes, so index payloads
// stay small.
const maxMetadataValueLen = 200

// idSeedLen is how many leading runes of the document text participate in ID
// generation.
// Enough to distinguish rows with similar leading text without hashing
// arbitrarily large rows twice.
const idSeedLen = 100

// Document is one tabular row rendered as embeddable text plus structured
// metadata. Documents are immutable once built and exist only in memory
// until upserted into the vector index.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// DocumentID generates a deterministic ID from a document's provenance and
// leading text using BLAKE2b hashing. Re-ingesting an unchanged row yields
// the same ID, so upserts are idempotent.
//
// The digest is 128 bits, rendered in canonical UUID form so it is accepted
// directly as a vector index point ID.
func DocumentID(sourceFile string, rowIndex int, text string) string {
	seed := truncate(text, idSeedLen)

	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	fmt.Fprintf(h, "%s_%d_%s", sourceFile, rowIndex, seed)

	var id uuid.UUID
	copy(id[:], h.Sum(nil))
	return id.String()
}

// BuildDocument converts one tabular row into a Document.
//
// Cells are trimmed and null sentinels ("nan", "none", "", case-insensitive)
// are treated as empty. The text is the pipe-joined "column: value" pairs of
// the qualifying cells in original column order. Every column appears in the
// metadata as "col_<name>" (empty cells become ""), truncated to 200
// characters, alongside source_file, source_path and row_index.
//
// Returns nil when no cell qualifies: such rows carry no signal and must not
// be embedded or stored.
func BuildDocument(sourceFile, sourcePath string, rowIndex int, columns, values []string) *Document {
	metadata := make(map[string]any, len(columns)+3)
	metadata[MetaSourceFile] = sourceFile
	metadata[MetaSourcePath] = sourcePath
	metadata[MetaRowIndex] = rowIndex

	parts := make([]string, 0, len(columns))
	for i, column := range columns {
		var value string
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		if isNullSentinel(value) {
			value = ""
		} else {
			parts = append(parts, column+": "+value)
		}
		metadata[ColumnKeyPrefix+column] = truncate(value, maxMetadataValueLen)
	}

	text := strings.Join(parts, " | ")
	if text == "" {
		return nil
	}

	return &Document{
		ID:       DocumentID(sourceFile, rowIndex, text),
		Text:     text,
		Metadata: metadata,
	}
}

// isNullSentinel reports whether a trimmed cell value is semantically empty.
func isNullSentinel(value string) bool {
	switch strings.ToLower(value) {
	case "", "nan", "none":
		return true
	}
	return false
}

// truncate cuts s after max runes. Cutting on rune boundaries keeps the
// result valid UTF-8; the index rejects payload strings that are not.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
