// Package abiexport derives the JSON ABI of an emitted contract from its
// resolved sections, together with function selectors and event topics.
//
// Types are checked with go-ethereum's accounts/abi package. Enums are
// encoded as uint8 and structs as tuples. An entry whose types cannot be
// expressed in the ABI (mappings, unknown names) is left out and listed in
// Export.Skipped.
package abiexport
