package catalog

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/contractgrid/internal/cghcl"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// catalogRootSchema defines the top-level structure of a catalog file.
type catalogRootSchema struct {
	Categories  []*hclCategory   `hcl:"category,block"`
	Connections []*hclConnection `hcl:"connection,block"`
	Templates   []*hclTemplate   `hcl:"template,block"`
}

type hclCategory struct {
	Name         string `hcl:"name,label"`
	Section      string `hcl:"section"`
	Namespace    string `hcl:"namespace,optional"`
	Named        bool   `hcl:"named,optional"`
	NameProperty string `hcl:"name_property,optional"`
	Singleton    bool   `hcl:"singleton,optional"`
	ProvidesType bool   `hcl:"provides_type,optional"`
}

type hclConnection struct {
	From    string `hcl:"from,label"`
	To      string `hcl:"to,label"`
	Order   string `hcl:"order"`
	Link    string `hcl:"link,optional"`
	Meaning string `hcl:"meaning,optional"`
}

type hclTemplate struct {
	ID          string         `hcl:"id,label"`
	Category    string         `hcl:"category"`
	Description string         `hcl:"description,optional"`
	Cost        int            `hcl:"cost,optional"`
	ABI         string         `hcl:"abi,optional"`
	Imports     hcl.Expression `hcl:"imports,optional"`
	Inherits    hcl.Expression `hcl:"inherits,optional"`
	Declares    hcl.Expression `hcl:"declares,optional"`
	Emit        hcl.Expression `hcl:"emit"`
	Properties  []*hclProperty `hcl:"property,block"`
}

type hclProperty struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Required    bool           `hcl:"required,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Check       string         `hcl:"check,optional"`
	OneOf       []string       `hcl:"one_of,optional"`
	Description string         `hcl:"description,optional"`
}

// parsedFile is the format-agnostic content of one catalog file. Templates
// still point at their category by name; linking happens in build.
type parsedFile struct {
	name        string
	categories  []*Category
	connections []parsedConnection
	templates   []parsedTemplate
}

type parsedConnection struct {
	rule ConnectionRule
}

type parsedTemplate struct {
	tmpl     *Template
	category string
}

// parseFile decodes an HCL file that contains category, connection and
// template blocks.
func parseFile(ctx context.Context, file *hcl.File, filename string) (*parsedFile, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing catalog file.", "file_path", filename)

	var allDiags hcl.Diagnostics
	if file == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	root := &catalogRootSchema{}
	diags := gohcl.DecodeBody(file.Body, nil, root)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	out := &parsedFile{name: filename}

	for _, c := range root.Categories {
		nameProp := c.NameProperty
		if c.Named && nameProp == "" {
			nameProp = "name"
		}
		out.categories = append(out.categories, &Category{
			Name:         c.Name,
			Section:      Section(c.Section),
			Namespace:    c.Namespace,
			Named:        c.Named,
			NameProperty: nameProp,
			Singleton:    c.Singleton,
			ProvidesType: c.ProvidesType,
		})
	}

	for _, c := range root.Connections {
		out.connections = append(out.connections, parsedConnection{
			rule: ConnectionRule{
				From:    c.From,
				To:      c.To,
				Order:   Order(c.Order),
				Link:    c.Link,
				Meaning: c.Meaning,
			},
		})
	}

	for _, t := range root.Templates {
		pt, tDiags := parseTemplate(t, filename)
		allDiags = append(allDiags, tDiags...)
		if tDiags.HasErrors() {
			continue // Skip this template but continue parsing others
		}
		out.templates = append(out.templates, pt)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}

	logger.Debug("Parsed catalog file.",
		"file_path", filename,
		"categories", len(out.categories),
		"connections", len(out.connections),
		"templates", len(out.templates),
	)
	return out, allDiags
}

func parseTemplate(t *hclTemplate, filename string) (parsedTemplate, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	tmpl := &Template{
		ID:          t.ID,
		Description: t.Description,
		Cost:        t.Cost,
		ABI:         ABIKind(t.ABI),
		Imports:     t.Imports,
		Inherits:    t.Inherits,
		Declares:    t.Declares,
		Emit:        t.Emit,
		source:      filename,
	}
	pt := parsedTemplate{
		tmpl:     tmpl,
		category: t.Category,
	}
	seen := make(map[string]struct{}, len(t.Properties))

	for _, p := range t.Properties {
		if _, exists := seen[p.Name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate property definition",
				Detail:   fmt.Sprintf("A property named '%s' has already been defined in template '%s'.", p.Name, t.ID),
				Subject:  p.Type.Range().Ptr(),
			})
			continue
		}
		seen[p.Name] = struct{}{}

		prop, propDiags := parseProperty(p)
		diags = append(diags, propDiags...)
		if propDiags.HasErrors() {
			continue
		}
		tmpl.Properties = append(tmpl.Properties, prop)
	}

	return pt, diags
}

func parseProperty(p *hclProperty) (Property, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	ty, typeDiags := cghcl.TypeConstraint(p.Type)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return Property{}, diags
	}

	prop := Property{
		Name:        p.Name,
		Type:        ty,
		Required:    p.Required,
		Default:     cty.NilVal,
		Check:       Check(p.Check),
		OneOf:       p.OneOf,
		Description: p.Description,
	}

	if p.Default != nil {
		raw, valDiags := p.Default.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			return Property{}, diags
		}
		if !raw.IsNull() {
			def, ok := cghcl.Coerce(raw, ty)
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value",
					Detail:   fmt.Sprintf("The default for property '%s' is a %s, but the property type is %s.", p.Name, cghcl.Describe(raw), ty.FriendlyName()),
					Subject:  p.Default.Range().Ptr(),
				})
				return Property{}, diags
			}
			prop.Default = def
		}
	}

	return prop, diags
}
