// Package answer implements the retrieval service behind the query API.
//
// A question is first matched against a registry of deterministic rules,
// evaluated in priority order. Each rule selects records by metadata from a
// full index scan and renders an exact answer (a sum, a minimum) without
// touching the completion model. Questions no rule claims fall through to
// similarity search, where a couple of station shortcuts apply before the
// retrieved context is handed to the completion model.
//
// The service holds no mutable state between calls; every invocation builds
// its own accumulators, so concurrent requests need no locking.
package answer
