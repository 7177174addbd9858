package cghcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/zclconf/go-cty/cty"
)

// TypeConstraint converts an HCL type expression (`string`, `number`, `bool`,
// `list(string)`, ...) into a cty.Type. Only primitives and lists of
// primitives are accepted: property bags are flat by construction.
func TypeConstraint(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, diags
	}

	if supported(ty) {
		return ty, diags
	}

	diags = append(diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported property type",
		Detail:   fmt.Sprintf("The type %s is not supported. Supported types are: string, number, bool and list(...) of those.", ty.FriendlyName()),
		Subject:  expr.Range().Ptr(),
	})
	return cty.NilType, diags
}

func supported(ty cty.Type) bool {
	switch {
	case ty == cty.String, ty == cty.Number, ty == cty.Bool:
		return true
	case ty.IsListType():
		return supported(ty.ElementType()) && !ty.ElementType().IsListType()
	default:
		return false
	}
}

// Coerce checks v against want and returns the normalised value. Conformance
// is strict: a number never satisfies a string field and vice versa. Tuples
// and sets are accepted for list types when every element conforms, and are
// returned as lists. Null and unknown values never conform.
func Coerce(v cty.Value, want cty.Type) (cty.Value, bool) {
	if v == cty.NilVal || v.IsNull() || !v.IsWhollyKnown() {
		return cty.NilVal, false
	}
	got := v.Type()

	switch {
	case want.IsPrimitiveType():
		if got.Equals(want) {
			return v, true
		}
		return cty.NilVal, false

	case want.IsListType():
		if !got.IsListType() && !got.IsTupleType() && !got.IsSetType() {
			return cty.NilVal, false
		}
		elemType := want.ElementType()
		if v.LengthInt() == 0 {
			return cty.ListValEmpty(elemType), true
		}
		elems := make([]cty.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			cv, ok := Coerce(ev, elemType)
			if !ok {
				return cty.NilVal, false
			}
			elems = append(elems, cv)
		}
		return cty.ListVal(elems), true
	}

	return cty.NilVal, false
}

// Conforms reports whether v satisfies want under Coerce's rules.
func Conforms(v cty.Value, want cty.Type) bool {
	_, ok := Coerce(v, want)
	return ok
}

// Describe returns a short, user-facing name for the type of v.
func Describe(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	ty := v.Type()
	switch {
	case ty.IsTupleType(), ty.IsListType(), ty.IsSetType():
		return "list"
	case ty.IsObjectType(), ty.IsMapType():
		return "object"
	default:
		return ty.FriendlyName()
	}
}
