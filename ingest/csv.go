package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/crosstown/tabindex/core"
)

// listSourceFiles returns the CSV files in the data folder, sorted by name
// for deterministic run order.
func listSourceFiles(folder string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(folder, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", folder, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no CSV files in %s", core.ErrNoInput, folder)
	}
	sort.Strings(files)
	return files, nil
}

// readDocuments parses one CSV file into documents, one per data row.
// The first record is the header. Rows whose cells are all empty or null
// sentinels produce no document and are skipped.
func readDocuments(path string) ([]*core.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are padded/ignored per cell

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)

	var docs []*core.Document
	for rowIndex := 0; ; rowIndex++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s row %d: %w", path, rowIndex, err)
		}

		if doc := core.BuildDocument(sourceFile, path, rowIndex, header, row); doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
