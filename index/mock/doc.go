// Package mock provides an in-memory test double for the index interfaces.
//
// The mock index stores records in insertion order, answers similarity
// queries with exact cosine scores, and supports failure injection through
// function fields so pipeline error paths can be exercised.
package mock
