package cghcl

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), "Expression parsing failed: %s", diags.Error())
	return expr
}

func TestTypeConstraint(t *testing.T) {
	testCases := []struct {
		src     string
		want    cty.Type
		wantErr bool
	}{
		{src: "string", want: cty.String},
		{src: "number", want: cty.Number},
		{src: "bool", want: cty.Bool},
		{src: "list(string)", want: cty.List(cty.String)},
		{src: "list(list(string))", wantErr: true},
		{src: "map(string)", wantErr: true},
		{src: "any", wantErr: true},
		{src: "banana", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got, diags := TypeConstraint(parseExpr(t, tc.src))
			if tc.wantErr {
				assert.True(t, diags.HasErrors())
				return
			}
			require.False(t, diags.HasErrors(), diags.Error())
			assert.True(t, tc.want.Equals(got), "got %s", got.FriendlyName())
		})
	}
}

func TestCoerce(t *testing.T) {
	t.Run("primitives are strict", func(t *testing.T) {
		assert.True(t, Conforms(cty.StringVal("x"), cty.String))
		assert.False(t, Conforms(cty.NumberIntVal(5), cty.String))
		assert.False(t, Conforms(cty.StringVal("5"), cty.Number))
		assert.False(t, Conforms(cty.NullVal(cty.String), cty.String))
		assert.False(t, Conforms(cty.UnknownVal(cty.String), cty.String))
		assert.False(t, Conforms(cty.NilVal, cty.String))
	})

	t.Run("tuples become lists", func(t *testing.T) {
		in := cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})
		got, ok := Coerce(in, cty.List(cty.String))
		require.True(t, ok)
		assert.True(t, got.Type().Equals(cty.List(cty.String)))
		assert.Equal(t, 2, got.LengthInt())
	})

	t.Run("empty tuple becomes typed empty list", func(t *testing.T) {
		got, ok := Coerce(cty.EmptyTupleVal, cty.List(cty.String))
		require.True(t, ok)
		assert.True(t, got.Type().Equals(cty.List(cty.String)))
	})

	t.Run("mixed tuple does not conform", func(t *testing.T) {
		in := cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.True})
		assert.False(t, Conforms(in, cty.List(cty.String)))
	})

	t.Run("scalar is not a list", func(t *testing.T) {
		assert.False(t, Conforms(cty.StringVal("a"), cty.List(cty.String)))
	})
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "string", Describe(cty.StringVal("x")))
	assert.Equal(t, "list", Describe(cty.EmptyTupleVal))
	assert.Equal(t, "null", Describe(cty.NilVal))
	assert.Equal(t, "object", Describe(cty.EmptyObjectVal))
}
