package pipeline

import (
	"github.com/specialistvlad/contractgrid/internal/abiexport"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/emit"
)

// Status is the terminal state of a compilation.
type Status string

const (
	StatusEmitted  Status = "emitted"
	StatusRejected Status = "rejected"
)

// Stage names the non-terminal steps of a compilation.
type Stage string

const (
	StageValidating Stage = "validating"
	StageResolving  Stage = "resolving"
	StageEmitting   Stage = "emitting"
)

// Result is the outcome of one compilation. Results may be shared between
// callers through the compiler's cache and must not be modified.
type Result struct {
	Status Status `json:"status"`
	// Document is set only when Status is StatusEmitted.
	Document *emit.Document `json:"document,omitempty"`
	// Interface is the contract ABI, set with Document.
	Interface   *abiexport.Export `json:"interface,omitempty"`
	Diagnostics diag.Diagnostics  `json:"diagnostics"`
	// Order lists instance ids in emission order, set with Document.
	Order []string `json:"order,omitempty"`
}

// Emitted reports whether the compilation produced source text.
func (r *Result) Emitted() bool {
	return r.Status == StatusEmitted
}

// Source returns the emitted source, or "" for a rejected compilation.
func (r *Result) Source() string {
	if r.Document == nil {
		return ""
	}
	return r.Document.Source
}
