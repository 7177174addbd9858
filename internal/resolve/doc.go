// Package resolve orders the instances of a canvas into the fixed sections of
// a contract.
//
// Ordering constraints come from two places: connections, oriented by the
// catalog's connection rules, and implicit edges from struct and enum
// declarations to every instance whose type-checked properties mention them.
// Within a section instances follow a stable topological order with ties
// broken by insertion order, so the same canvas always yields the same
// sections.
package resolve
