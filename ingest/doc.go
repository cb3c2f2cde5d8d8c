// Package ingest provides the pipeline that loads tabular source files into
// the vector index.
//
// The Pipeline enumerates CSV files in a data folder, builds one document per
// row, generates embeddings in chunks on a worker pool, and upserts the
// resulting records in fixed-size batches with a pause between batches as a
// simple throttle.
//
// Failures are isolated per unit: a file that fails to parse or embed and a
// batch that fails to upsert are recorded in the run summary and skipped,
// never aborting the rest of the run. Only configuration faults (no input
// files, embedding dimension mismatch) abort a run.
package ingest
