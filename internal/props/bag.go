// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the property bag carried by every canvas instance.
//
// Why cty.Value rather than map[string]any?
//
// A cty.Value is a closed tagged union: every value knows whether it is a
// string, a number, a bool or a collection of those, and the type system can
// answer "does this value conform to list(string)?" precisely. Using it as the
// element type of the bag means an instance can never carry a value kind the
// schema checker does not understand, and the same values flow unchanged into
// the HCL emission templates.
package props

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Bag is the raw, user-edited property map of an instance. It is not checked
// against any schema; use Bind for that.
type Bag map[string]cty.Value

// Clone returns a shallow copy of the bag. cty values are immutable, so a
// shallow copy is a full copy.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Names returns the property names in lexical order.
func (b Bag) Names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FromNative converts plain Go values (as produced by encoding/json or written
// in tests) into a Bag. Supported kinds are string, bool, integers, floats and
// slices of those.
func FromNative(in map[string]any) (Bag, error) {
	out := make(Bag, len(in))
	for k, v := range in {
		cv, err := nativeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

func nativeValue(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case float64:
		return cty.NumberVal(new(big.Float).SetFloat64(tv)), nil
	case []string:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, s := range tv {
			elems[i] = cty.StringVal(s)
		}
		return cty.TupleVal(elems), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := nativeValue(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}
