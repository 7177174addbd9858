// Package cghcl holds small HCL helpers shared by the catalog, project and
// canvas loaders: unique-block lookup, traversal keys, type constraints and
// strict value conformance against a declared cty type.
package cghcl
