// Package server exposes the retrieval service over HTTP: POST /query for
// answering questions against the index and GET /health for liveness checks.
package server
