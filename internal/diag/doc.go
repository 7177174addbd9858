// Package diag defines the structured diagnostics produced by the compile
// pipeline and consumed read-only by the editor.
//
// A Diagnostic is a value: once created it is never mutated. Every expected
// failure mode of a canvas (missing properties, illegal names, incompatible
// connections, dependency cycles) is reported as a Diagnostic carrying a
// stable Code, so the editor can localize and style messages without parsing
// Message text.
//
// Failures that indicate a broken contract between the editor and the catalog
// (an instance pointing at a template that does not exist, a catalog template
// that cannot be rendered) are not diagnostics. They are returned as an
// *InvariantError and must be propagated to the caller.
package diag
