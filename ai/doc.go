// Package ai defines the interfaces for the external AI collaborators:
// text embedding and text completion. Neither service is owned by this
// system, so both are modeled as injected clients with bounded timeouts.
//
// The openai subpackage implements the interfaces against any
// OpenAI-compatible API; the mock subpackage provides deterministic test
// doubles.
package ai
