package catalog

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contractgrid/internal/hclexpr"
	"github.com/zclconf/go-cty/cty"
)

// reservedVariables are always in scope for an emission template.
var reservedVariables = []string{"id"}

// build links parsed files into a Catalog and enforces the load invariants.
// All violations are reported together.
func build(files []*parsedFile) (*Catalog, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	c := &Catalog{
		categories: make(map[string]*Category),
		rules:      make(map[ruleKey]ConnectionRule),
		templates:  make(map[string]*Template),
	}

	for _, f := range files {
		for _, cat := range f.categories {
			diags = append(diags, c.addCategory(cat, f.name)...)
		}
	}

	for _, f := range files {
		for _, pc := range f.connections {
			diags = append(diags, c.addRule(pc.rule, f.name)...)
		}
	}

	for _, f := range files {
		for _, pt := range f.templates {
			diags = append(diags, c.addTemplate(pt, f.name)...)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return c, diags
}

func invalid(summary, format string, args ...any) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
	}
}

func (c *Catalog) addCategory(cat *Category, file string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if _, exists := c.categories[cat.Name]; exists {
		return append(diags, invalid("Duplicate category",
			"%s: category '%s' has already been declared.", file, cat.Name))
	}
	if cat.Section.Rank() < 0 {
		diags = append(diags, invalid("Unknown section",
			"%s: category '%s' uses unknown section '%s'.", file, cat.Name, cat.Section))
	}
	if !cat.Named && cat.NameProperty != "" {
		diags = append(diags, invalid("Unnamed category with name property",
			"%s: category '%s' declares name_property but is not named.", file, cat.Name))
	}
	if cat.Named && cat.Namespace == "" {
		diags = append(diags, invalid("Missing namespace",
			"%s: named category '%s' must declare a namespace.", file, cat.Name))
	}
	if diags.HasErrors() {
		return diags
	}

	c.categories[cat.Name] = cat
	c.categoryOrder = append(c.categoryOrder, cat.Name)
	return diags
}

func (c *Catalog) addRule(r ConnectionRule, file string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, name := range []string{r.From, r.To} {
		if _, ok := c.categories[name]; !ok {
			diags = append(diags, invalid("Unknown category",
				"%s: connection %s -> %s references unknown category '%s'.", file, r.From, r.To, name))
		}
	}
	if !r.Order.valid() {
		diags = append(diags, invalid("Invalid connection order",
			"%s: connection %s -> %s has order '%s'; expected forward, reverse or none.", file, r.From, r.To, r.Order))
	}
	key := ruleKey{r.From, r.To}
	if _, exists := c.rules[key]; exists {
		diags = append(diags, invalid("Duplicate connection rule",
			"%s: connection %s -> %s has already been declared.", file, r.From, r.To))
	}
	if diags.HasErrors() {
		return diags
	}

	c.rules[key] = r
	c.ruleOrder = append(c.ruleOrder, key)
	return diags
}

func (c *Catalog) addTemplate(pt parsedTemplate, file string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	t := pt.tmpl

	if _, exists := c.templates[t.ID]; exists {
		return append(diags, invalid("Duplicate template",
			"%s: template '%s' has already been declared in %s.", file, t.ID, c.templates[t.ID].source))
	}

	cat, ok := c.categories[pt.category]
	if !ok {
		return append(diags, invalid("Unknown category",
			"%s: template '%s' uses unknown category '%s'.", file, t.ID, pt.category))
	}
	t.Category = cat
	t.Links = c.LinkNames(cat.Name)

	if t.Cost < 0 {
		diags = append(diags, invalid("Negative cost",
			"%s: template '%s' declares a negative cost %d.", file, t.ID, t.Cost))
	}

	if !t.ABI.valid() {
		diags = append(diags, invalid("Unknown ABI kind",
			"%s: template '%s' declares unknown abi kind '%s'.", file, t.ID, t.ABI))
	}

	for _, p := range t.Properties {
		diags = append(diags, checkProperty(t, p, file)...)
	}

	if cat.Named {
		name, ok := t.Property(cat.NameProperty)
		if !ok || !name.Type.Equals(cty.String) {
			diags = append(diags, invalid("Missing name property",
				"%s: template '%s' belongs to the named category '%s' and must declare a string property '%s'.", file, t.ID, cat.Name, cat.NameProperty))
		}
	}

	diags = append(diags, checkExpressions(t, file)...)

	if diags.HasErrors() {
		return diags
	}
	c.templates[t.ID] = t
	c.templateOrder = append(c.templateOrder, t.ID)
	return diags
}

func checkProperty(t *Template, p Property, file string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if !p.Check.valid() {
		diags = append(diags, invalid("Unknown check",
			"%s: property '%s' of template '%s' uses unknown check '%s'.", file, p.Name, t.ID, p.Check))
	}
	if p.Required && p.HasDefault() {
		diags = append(diags, invalid("Required property with default",
			"%s: property '%s' of template '%s' is required and cannot declare a default.", file, p.Name, t.ID))
	}
	if !p.Required && !p.HasDefault() {
		diags = append(diags, invalid("Missing default",
			"%s: optional property '%s' of template '%s' must declare a default.", file, p.Name, t.ID))
	}
	if len(p.OneOf) > 0 && !p.Type.Equals(cty.String) {
		diags = append(diags, invalid("Invalid one_of",
			"%s: property '%s' of template '%s' declares one_of but is not a string.", file, p.Name, t.ID))
	}
	if slices.Contains(t.Links, p.Name) || slices.Contains(reservedVariables, p.Name) {
		diags = append(diags, invalid("Shadowed variable",
			"%s: property '%s' of template '%s' shadows a link or built-in variable.", file, p.Name, t.ID))
	}
	return diags
}

// checkExpressions verifies that emit, imports, inherits and declares only read
// variables that will be in scope and only call known functions.
func checkExpressions(t *Template, file string) hcl.Diagnostics {
	var diags hcl.Diagnostics

	exprs := hclexpr.NewContainer()
	exprs.Add(t.Emit, t.Imports, t.Inherits, t.Declares)

	scope := make(map[string]struct{}, len(t.Properties)+len(t.Links)+len(reservedVariables))
	for _, p := range t.Properties {
		scope[p.Name] = struct{}{}
	}
	for _, l := range t.Links {
		scope[l] = struct{}{}
	}
	for _, v := range reservedVariables {
		scope[v] = struct{}{}
	}

	for _, name := range exprs.RootNames() {
		if _, ok := scope[name]; !ok {
			diags = append(diags, invalid("Unknown template variable",
				"%s: template '%s' references '%s', which is neither a property, a link nor a built-in variable.", file, t.ID, name))
		}
	}

	known := Functions()
	for _, fn := range exprs.CalledFunctions() {
		if _, ok := known[fn]; !ok {
			diags = append(diags, invalid("Unknown template function",
				"%s: template '%s' calls unknown function '%s'.", file, t.ID, fn))
		}
	}
	return diags
}
