// Package dag is a small, concurrency-safe dependency graph keyed by string
// ids. It wraps github.com/dominikbraun/graph and adds what the resolver
// needs on top of it: insertion-ordered results, cycle reporting by strongly
// connected component and a stable topological sort.
//
// An edge from A to B means B depends on A, so A comes first in any order the
// graph produces.
package dag
