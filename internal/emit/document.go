package emit

import "github.com/ethereum/go-ethereum/common"

// Defaults used for any empty Header field.
const (
	DefaultContractName = "Composed"
	DefaultLicense      = "MIT"
	DefaultPragma       = "^0.8.20"
)

// Header is the project metadata wrapped around the emitted sections.
type Header struct {
	ContractName string `json:"contractName,omitempty" yaml:"contract_name"`
	License      string `json:"license,omitempty" yaml:"license"`
	Pragma       string `json:"pragma,omitempty" yaml:"pragma"`
}

// WithDefaults returns h with every empty field replaced by its default.
func (h Header) WithDefaults() Header {
	if h.ContractName == "" {
		h.ContractName = DefaultContractName
	}
	if h.License == "" {
		h.License = DefaultLicense
	}
	if h.Pragma == "" {
		h.Pragma = DefaultPragma
	}
	return h
}

// Document is an emitted source file.
type Document struct {
	Source string `json:"source"`
	// Imports and Inherits are distinct and sorted.
	Imports  []string `json:"imports,omitempty"`
	Inherits []string `json:"inherits,omitempty"`
	// EstimatedCost sums the baseline cost of every emitted template.
	EstimatedCost int `json:"estimatedCost"`
	// Hash is the Keccak-256 hash of Source.
	Hash common.Hash `json:"hash"`
}
