package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/emit"
	"github.com/specialistvlad/contractgrid/internal/soltype"
)

type projectFile struct {
	Project *projectBlock `hcl:"project,block"`
}

type projectBlock struct {
	Name    string `hcl:"name,label"`
	License string `hcl:"license,optional"`
	Pragma  string `hcl:"pragma,optional"`
}

// LoadProject reads the contract header from an HCL project file. An empty
// path, or a file without a project block, yields the default header.
func LoadProject(ctx context.Context, path string) (emit.Header, error) {
	if path == "" {
		return emit.Header{}.WithDefaults(), nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading project file.", "file_path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return emit.Header{}, fmt.Errorf("failed to parse project file %s: %w", path, diags)
	}

	var pf projectFile
	if diags := gohcl.DecodeBody(file.Body, nil, &pf); diags.HasErrors() {
		return emit.Header{}, fmt.Errorf("failed to decode project file %s: %w", path, diags)
	}
	if pf.Project == nil {
		logger.Warn("Project file has no project block, using defaults.", "file_path", path)
		return emit.Header{}.WithDefaults(), nil
	}

	name := pf.Project.Name
	if !soltype.IsIdentifier(name) || soltype.IsReserved(name) {
		return emit.Header{}, fmt.Errorf("project name %q is not a valid contract name", name)
	}
	h := emit.Header{
		ContractName: name,
		License:      pf.Project.License,
		Pragma:       pf.Project.Pragma,
	}.WithDefaults()
	logger.Debug("Project file loaded.", "contract", h.ContractName, "license", h.License, "pragma", h.Pragma)
	return h, nil
}
