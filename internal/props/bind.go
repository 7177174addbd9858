package props

import (
	"sort"

	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/cghcl"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/zclconf/go-cty/cty"
)

// Bind checks raw against a template's property schema and returns the typed
// view used by every later stage.
//
// Required properties must be present and conform to their declared type;
// optional ones fall back to their default. A value that is present but does
// not conform is reported even for optional properties. Properties the schema
// does not declare are reported as warnings and dropped. The returned Typed
// always holds a value for every declared property (the zero value of its type
// when the input was unusable), so it can be rendered for previews even when
// diagnostics contain errors.
func Bind(instanceID string, schema []catalog.Property, raw Bag) (*Typed, diag.Diagnostics) {
	var c diag.Collector
	t := &Typed{values: make(map[string]cty.Value, len(schema))}

	declared := make(map[string]struct{}, len(schema))
	for _, p := range schema {
		declared[p.Name] = struct{}{}
		t.order = append(t.order, p.Name)

		v, present := raw[p.Name]
		if present && (v == cty.NilVal || v.IsNull()) {
			present = false
		}

		if !present {
			switch {
			case p.HasDefault():
				t.values[p.Name] = p.Default
			case p.Required:
				c.Errorf(diag.CodeMissingProperty, instanceID, p.Name,
					"required property %q is missing", p.Name)
				t.values[p.Name] = Zero(p.Type)
			default:
				t.values[p.Name] = Zero(p.Type)
			}
			continue
		}

		cv, ok := cghcl.Coerce(v, p.Type)
		if !ok {
			c.Errorf(diag.CodeTypeMismatch, instanceID, p.Name,
				"property %q must be %s, got %s", p.Name, p.Type.FriendlyName(), cghcl.Describe(v))
			t.values[p.Name] = Zero(p.Type)
			continue
		}
		t.values[p.Name] = cv
	}

	unknown := make([]string, 0)
	for name := range raw {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		c.Warnf(diag.CodeUnknownProperty, instanceID, name,
			"property %q is not declared by the template and is ignored", name)
	}

	return t, c.Diagnostics()
}

// Zero returns the zero value of a property type.
func Zero(ty cty.Type) cty.Value {
	switch {
	case ty == cty.String:
		return cty.StringVal("")
	case ty == cty.Number:
		return cty.Zero
	case ty == cty.Bool:
		return cty.False
	case ty.IsListType():
		return cty.ListValEmpty(ty.ElementType())
	default:
		return cty.NullVal(ty)
	}
}
