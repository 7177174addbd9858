package validate

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/soltype"
	"github.com/zclconf/go-cty/cty"
)

// checkValues runs the semantic checks declared on each property. They only
// produce warnings: a value the checks do not recognise may still be valid.
func (v *validator) checkValues(b *boundInstance) {
	for _, p := range b.tmpl.Properties {
		if b.bad[p.Name] {
			continue
		}
		val := b.typed.Get(p.Name)

		if len(p.OneOf) > 0 && val.Type().Equals(cty.String) {
			if s := val.AsString(); !slices.Contains(p.OneOf, s) {
				v.c.Warnf(diag.CodeUnexpectedOption, b.inst.ID, p.Name,
					"%q is not one of %q", s, p.OneOf)
			}
		}

		if p.Check == catalog.CheckNone {
			continue
		}
		// The identifier check on a named category's name is an error,
		// reported by checkName.
		if p.Check == catalog.CheckIdentifier && b.tmpl.Category.Named && p.Name == b.tmpl.Category.NameProperty {
			continue
		}
		for _, s := range stringsOf(val) {
			v.checkValue(b.inst.ID, p, s)
		}
	}
}

func (v *validator) checkValue(instanceID string, p catalog.Property, s string) {
	switch p.Check {
	case catalog.CheckType:
		if !soltype.Valid(s, v.isDeclaredType) {
			v.c.Warnf(diag.CodeUnknownType, instanceID, p.Name,
				"%q is not a recognised type", s)
		}

	case catalog.CheckParams, catalog.CheckFields:
		v.checkDeclaration(instanceID, p, s)

	case catalog.CheckUint:
		if _, err := uint256.FromDecimal(s); err != nil {
			v.c.Warnf(diag.CodeInvalidLiteral, instanceID, p.Name,
				"%q is not an unsigned 256-bit decimal: %v", s, err)
		}

	case catalog.CheckAddress:
		if !common.IsHexAddress(s) {
			v.c.Warnf(diag.CodeInvalidLiteral, instanceID, p.Name,
				"%q is not a 20-byte hex address", s)
		}

	case catalog.CheckIdentifier:
		if !soltype.IsIdentifier(s) || soltype.IsReserved(s) {
			v.c.Warnf(diag.CodeSuspectName, instanceID, p.Name,
				"%q is not usable as an identifier", s)
		}
	}
}

func (v *validator) checkDeclaration(instanceID string, p catalog.Property, s string) {
	decl := soltype.ParseParam(s)

	if !soltype.Valid(decl.Type, v.isDeclaredType) {
		v.c.Warnf(diag.CodeUnknownType, instanceID, p.Name,
			"%q does not start with a recognised type", s)
		return
	}
	if len(decl.Extra) > 0 {
		v.c.Warnf(diag.CodeUnknownType, instanceID, p.Name,
			"%q has unexpected trailing words %q", s, decl.Extra)
		return
	}

	switch {
	case p.Check == catalog.CheckFields && decl.Name == "":
		v.c.Warnf(diag.CodeSuspectName, instanceID, p.Name,
			"field %q has no name", s)
	case decl.Name != "" && (!soltype.IsIdentifier(decl.Name) || soltype.IsReserved(decl.Name)):
		v.c.Warnf(diag.CodeSuspectName, instanceID, p.Name,
			"%q is not usable as a parameter name", decl.Name)
	}
}

// stringsOf returns the string elements of a string or list(string) value.
func stringsOf(val cty.Value) []string {
	if val == cty.NilVal || val.IsNull() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return []string{val.AsString()}
	case ty.IsListType() && ty.ElementType().Equals(cty.String):
		out := make([]string, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ev.AsString())
		}
		return out
	}
	return nil
}
