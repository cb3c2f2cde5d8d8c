// Package core defines the shared data model for tabindex: documents built
// from tabular rows, deterministic document IDs, and domain errors.
//
// Everything in this package is pure data and pure functions. Building a
// document never touches the network or the filesystem, which keeps the
// row-to-document contract trivially testable.
package core
