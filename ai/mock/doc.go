// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mock embedder hashes input text into stable pseudo-random vectors so
// tests can assert on exact values without a live embedding service; the
// mock completer records every prompt it receives.
package mock
