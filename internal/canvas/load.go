package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/props"
)

// canvasRootSchema defines the top-level structure of an HCL canvas file.
type canvasRootSchema struct {
	Components  []*hclComponent  `hcl:"component,block"`
	Connections []*hclConnection `hcl:"connection,block"`
}

type hclComponent struct {
	ID         string         `hcl:"id,label"`
	Template   string         `hcl:"template"`
	Properties hcl.Expression `hcl:"properties,optional"`
}

type hclConnection struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// LoadFile reads a canvas from a .json or .hcl file.
func LoadFile(ctx context.Context, path string) (*State, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading canvas file.", "file_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".hcl":
		return ParseHCL(ctx, data, path)
	default:
		return nil, fmt.Errorf("unsupported canvas file %s: expected .json or .hcl", path)
	}
}

// ParseJSON decodes a canvas in the editor wire format.
func ParseJSON(data []byte) (*State, error) {
	s := &State{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode canvas JSON: %w", err)
	}
	return s, nil
}

// ParseHCL decodes a canvas written as `component` and `connection` blocks:
//
//	component "balance" {
//	  template   = "state-variable"
//	  properties = { name = "balance", visibility = "public" }
//	}
//
//	connection {
//	  from = "balance"
//	  to   = "getBalance"
//	}
func ParseHCL(ctx context.Context, src []byte, filename string) (*State, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	root := &canvasRootSchema{}
	if diags := gohcl.DecodeBody(file.Body, nil, root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode canvas %s: %w", filename, diags)
	}

	s := &State{}
	for _, c := range root.Components {
		bag, diags := decodeProperties(c.Properties)
		if diags.HasErrors() {
			return nil, fmt.Errorf("component %q in %s: %w", c.ID, filename, diags)
		}
		s.Instances = append(s.Instances, Instance{ID: c.ID, TemplateID: c.Template, Properties: bag})
	}
	for _, c := range root.Connections {
		s.Connections = append(s.Connections, Connection{From: c.From, To: c.To})
	}

	logger.Debug("Parsed canvas.", "file_path", filename, "instances", len(s.Instances), "connections", len(s.Connections))
	return s, nil
}

func decodeProperties(expr hcl.Expression) (props.Bag, hcl.Diagnostics) {
	bag := props.Bag{}
	if expr == nil {
		return bag, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() {
		return bag, diags
	}

	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid properties",
			Detail:   "The properties attribute must be an object.",
			Subject:  expr.Range().Ptr(),
		})
	}

	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		bag[k.AsString()] = v
	}
	return bag, diags
}
