package ingest

import "errors"

var (
	// ErrCatalogRequired is returned when an index catalog is not provided.
	ErrCatalogRequired = errors.New("index catalog required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDataFolderRequired is returned when no data folder is configured.
	ErrDataFolderRequired = errors.New("data folder required")

	// ErrIndexNameRequired is returned when no index name is configured.
	ErrIndexNameRequired = errors.New("index name required")
)
