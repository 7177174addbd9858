// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Template, the reusable definition of a component that
// a user can drop onto the canvas.
//
// A Template is to an Instance what a function definition is to a call. It
// declares which named properties it accepts (`Properties`), how those
// properties are turned into source text (`Emit`) and which external
// declarations the emitted text depends on (`Imports`, `Inherits`). An
// instance only carries a template id and a property bag; everything else is
// looked up here.
//
// Because every property is declared with a type, a default and an optional
// semantic check, the validator can verify an instance without knowing
// anything about its category beyond what the catalog tells it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Check names a semantic check applied to a property value. Checks only
// produce warnings, except the identifier check on a named category's `name`.
type Check string

const (
	CheckNone       Check = ""
	CheckType       Check = "type"
	CheckParams     Check = "params"
	CheckFields     Check = "fields"
	CheckUint       Check = "uint"
	CheckAddress    Check = "address"
	CheckIdentifier Check = "identifier"
)

func (c Check) valid() bool {
	switch c {
	case CheckNone, CheckType, CheckParams, CheckFields, CheckUint, CheckAddress, CheckIdentifier:
		return true
	}
	return false
}

// ABIKind tells the ABI exporter how instances of a template appear in the
// contract interface.
type ABIKind string

const (
	ABINone        ABIKind = ""
	ABIFunction    ABIKind = "function"
	ABIEvent       ABIKind = "event"
	ABIConstructor ABIKind = "constructor"
	ABIStruct      ABIKind = "struct"
	ABIEnum        ABIKind = "enum"
)

func (k ABIKind) valid() bool {
	switch k {
	case ABINone, ABIFunction, ABIEvent, ABIConstructor, ABIStruct, ABIEnum:
		return true
	}
	return false
}

// Property is one field of a template's property schema.
type Property struct {
	Name        string
	Type        cty.Type
	Required    bool
	Default     cty.Value
	Check       Check
	OneOf       []string
	Description string
}

// HasDefault reports whether the property declares a default value.
func (p Property) HasDefault() bool {
	return p.Default != cty.NilVal && !p.Default.IsNull()
}

// Template is an immutable catalog entry.
type Template struct {
	ID          string
	Category    *Category
	Description string
	// Cost is a baseline cost estimate in an opaque unit.
	Cost int
	ABI  ABIKind
	// Properties is ordered as declared.
	Properties []Property
	// Links lists the link variables this template receives from its
	// connections, sorted.
	Links []string

	Imports  hcl.Expression
	Inherits hcl.Expression
	Emit     hcl.Expression
	// Declares maps a namespace to the extra names an instance introduces
	// besides its own name.
	Declares hcl.Expression

	source string
}

// Property returns the named property definition.
func (t *Template) Property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Source returns the file the template was declared in.
func (t *Template) Source() string {
	return t.source
}

// Rendered is the output of a template for one instance.
type Rendered struct {
	Body     string
	Imports  []string
	Inherits []string
}

// Render evaluates the template with the given variables. Vars must hold every
// declared property, every link variable and `id`.
func (t *Template) Render(vars map[string]cty.Value) (*Rendered, error) {
	ectx := &hcl.EvalContext{
		Variables: vars,
		Functions: Functions(),
	}

	body, diags := t.Emit.Value(ectx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("template %q: rendering emit: %w", t.ID, diags)
	}
	body, err := convert.Convert(body, cty.String)
	if err != nil {
		return nil, fmt.Errorf("template %q: emit must produce a string: %w", t.ID, err)
	}

	out := &Rendered{}
	if !body.IsNull() {
		out.Body = body.AsString()
	}
	if out.Imports, err = evalStrings(t.Imports, ectx); err != nil {
		return nil, fmt.Errorf("template %q: rendering imports: %w", t.ID, err)
	}
	if out.Inherits, err = evalStrings(t.Inherits, ectx); err != nil {
		return nil, fmt.Errorf("template %q: rendering inherits: %w", t.ID, err)
	}
	return out, nil
}

// DeclaredNames evaluates the declares attribute for an instance with the
// given property values. Link variables evaluate as empty lists.
func (t *Template) DeclaredNames(id string, props map[string]cty.Value) (map[string][]string, error) {
	if t.Declares == nil {
		return nil, nil
	}
	vars := make(map[string]cty.Value, len(props)+len(t.Links)+1)
	for k, v := range props {
		vars[k] = v
	}
	for _, link := range t.Links {
		vars[link] = cty.ListValEmpty(cty.String)
	}
	vars["id"] = cty.StringVal(id)

	v, diags := t.Declares.Value(&hcl.EvalContext{Variables: vars, Functions: Functions()})
	if diags.HasErrors() {
		return nil, fmt.Errorf("template %q: evaluating declares: %w", t.ID, diags)
	}
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("template %q: declares must be an object, got %s", t.ID, ty.FriendlyName())
	}

	out := make(map[string][]string)
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		names, err := stringList(ev)
		if err != nil {
			return nil, fmt.Errorf("template %q: declares %s: %w", t.ID, k.AsString(), err)
		}
		if len(names) > 0 {
			out[k.AsString()] = names
		}
	}
	return out, nil
}

// evalStrings evaluates a list-of-strings attribute. Empty entries are
// dropped so templates can write `cond ? "x" : ""`.
func evalStrings(expr hcl.Expression, ectx *hcl.EvalContext) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	return stringList(v)
}

func stringList(v cty.Value) ([]string, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("expected a list of strings, got %s", ty.FriendlyName())
	}

	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		sv, err := convert.Convert(ev, cty.String)
		if err != nil {
			return nil, err
		}
		if sv.IsNull() {
			continue
		}
		if s := strings.TrimSpace(sv.AsString()); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
