package props

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Typed is a schema-checked property set. Every declared property has a
// value of its declared type.
type Typed struct {
	values map[string]cty.Value
	order  []string
}

// Names returns the declared property names in schema order.
func (t *Typed) Names() []string {
	return append([]string(nil), t.order...)
}

// Get returns the value of a property, or cty.NilVal if it is not declared.
func (t *Typed) Get(name string) cty.Value {
	v, ok := t.values[name]
	if !ok {
		return cty.NilVal
	}
	return v
}

// String returns a string property, or "" if it is absent or not a string.
func (t *Typed) String(name string) string {
	v := t.Get(name)
	if v == cty.NilVal || v.IsNull() || !v.Type().Equals(cty.String) {
		return ""
	}
	return v.AsString()
}

// Bool returns a bool property, or false if it is absent or not a bool.
func (t *Typed) Bool(name string) bool {
	v := t.Get(name)
	if v == cty.NilVal || v.IsNull() || !v.Type().Equals(cty.Bool) {
		return false
	}
	return v.True()
}

// Strings returns a list(string) property, or nil.
func (t *Typed) Strings(name string) []string {
	v := t.Get(name)
	if v == cty.NilVal || v.IsNull() || !v.Type().IsListType() || !v.Type().ElementType().Equals(cty.String) {
		return nil
	}
	out := make([]string, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ev.AsString())
	}
	return out
}

// Vars returns a fresh map of every property value, ready to be extended
// with link variables and used as an HCL evaluation scope.
func (t *Typed) Vars() map[string]cty.Value {
	out := make(map[string]cty.Value, len(t.values)+4)
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Canonical returns a deterministic encoding of the property set, suitable
// for hashing.
func (t *Typed) Canonical() []byte {
	return Canonical(t.values)
}

// Canonical encodes a variable map deterministically: one `"name"=json` line
// per entry, names quoted and sorted.
func Canonical(values map[string]cty.Value) []byte {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		v := values[name]
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte('=')
		if v == cty.NilVal {
			buf.WriteString("nil")
		} else if enc, err := ctyjson.Marshal(v, v.Type()); err == nil {
			buf.Write(enc)
		} else {
			buf.WriteString(v.GoString())
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
