// Package qdrant implements the index interfaces over Qdrant's gRPC API.
//
// Requests carry bounded timeouts and transient gRPC failures are retried
// with exponential backoff. Index creation blocks until the collection
// reports green, with an explicit deadline instead of a blind sleep.
package qdrant
