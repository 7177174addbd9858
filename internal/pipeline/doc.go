// Package pipeline runs a canvas snapshot through validation, resolution and
// emission. Each invocation ends in exactly one of two states: Emitted, with
// source text and any warnings, or Rejected, with the diagnostics that
// prevented emission and no source.
//
// A Compiler holds no state that affects its output. Its caches only save
// work: compiling the same snapshot twice, or two snapshots that share most
// instances, returns the same result a fresh Compiler would.
package pipeline
