// Package emit renders resolved sections into a single Solidity source
// document. It performs no semantic checks: whatever reaches it has already
// been validated and ordered.
package emit
