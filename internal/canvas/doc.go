// Package canvas holds the graph model the editor builds: component
// instances, the connections between them and immutable snapshots of both.
//
// The Editor owns the live, mutable graph. The compiler pipeline only ever
// sees a *State returned by Editor.Snapshot (or decoded from a file); a State
// is never mutated after it has been handed out.
package canvas
