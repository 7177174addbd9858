// Package server exposes a Compiler to graph editors. Editors either keep a
// socket.io connection open and emit `compile` on every edit, receiving
// `compiled` in return, or POST the same request to /compile.
//
// Requests carry a session id and a snapshot version. Within a session, a
// response for a version older than one already submitted is marked
// superseded and carries no result.
package server
