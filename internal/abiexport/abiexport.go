package abiexport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/resolve"
	"github.com/specialistvlad/contractgrid/internal/soltype"
)

// maxDepth bounds struct nesting, which also stops self-referencing structs.
const maxDepth = 8

// Arg is one input or output in the JSON ABI.
type Arg struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	InternalType string `json:"internalType,omitempty"`
	Components   []Arg  `json:"components,omitempty"`
	Indexed      bool   `json:"indexed,omitempty"`
}

// Entry is one function, event or constructor in the JSON ABI.
type Entry struct {
	Type            string `json:"type"`
	Name            string `json:"name,omitempty"`
	Inputs          []Arg  `json:"inputs"`
	Outputs         []Arg  `json:"outputs,omitempty"`
	StateMutability string `json:"stateMutability,omitempty"`
	Anonymous       bool   `json:"anonymous,omitempty"`
}

// Skipped records an instance left out of the ABI.
type Skipped struct {
	InstanceID string `json:"instanceId"`
	Reason     string `json:"reason"`
}

// Export is the ABI of one contract.
type Export struct {
	Entries []Entry `json:"abi"`
	// Selectors maps function signatures to their 4-byte selectors and
	// event signatures to their topic hashes, hex encoded.
	Selectors map[string]string `json:"selectors,omitempty"`
	Skipped   []Skipped         `json:"skipped,omitempty"`
}

// JSON returns the indented JSON ABI.
func (x *Export) JSON() ([]byte, error) {
	entries := x.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// Parse reads the JSON ABI back into go-ethereum's representation.
func (x *Export) Parse() (abi.ABI, error) {
	data, err := x.JSON()
	if err != nil {
		return abi.ABI{}, err
	}
	return abi.JSON(strings.NewReader(string(data)))
}

// Build computes the ABI of the contract described by sections.
func Build(ctx context.Context, sections *resolve.Sections) *Export {
	logger := ctxlog.FromContext(ctx)
	b := newBuilder(sections)
	x := &Export{Selectors: map[string]string{}}

	for _, e := range sections.Entries() {
		var err error
		switch e.Template.ABI {
		case catalog.ABIFunction:
			err = b.function(x, e)
		case catalog.ABIEvent:
			err = b.event(x, e)
		case catalog.ABIConstructor:
			err = b.constructor(x, e)
		default:
			continue
		}
		if err != nil {
			x.Skipped = append(x.Skipped, Skipped{InstanceID: e.Instance.ID, Reason: err.Error()})
		}
	}

	logger.Debug("Built contract ABI.", "entries", len(x.Entries), "skipped", len(x.Skipped))
	return x
}

type builder struct {
	enums   map[string]bool
	structs map[string][]string
}

func newBuilder(sections *resolve.Sections) *builder {
	b := &builder{enums: map[string]bool{}, structs: map[string][]string{}}
	for _, e := range sections.Entries() {
		name := e.Props.String("name")
		switch e.Template.ABI {
		case catalog.ABIEnum:
			b.enums[name] = true
		case catalog.ABIStruct:
			b.structs[name] = e.Props.Strings("fields")
		}
	}
	return b
}

func (b *builder) function(x *Export, e *resolve.Entry) error {
	switch e.Props.String("visibility") {
	case "public", "external":
	default:
		return nil
	}

	name := e.Props.String("name")
	inputs, inArgs, err := b.arguments(e.Props.Strings("params"), false)
	if err != nil {
		return err
	}
	outputs, outArgs, err := b.arguments(e.Props.Strings("returns"), false)
	if err != nil {
		return err
	}

	mutability := e.Props.String("mutability")
	if mutability == "" {
		mutability = "nonpayable"
	}
	isConst := mutability == "view" || mutability == "pure"
	method := abi.NewMethod(name, name, abi.Function, mutability, isConst, mutability == "payable", inputs, outputs)

	x.Entries = append(x.Entries, Entry{
		Type:            "function",
		Name:            name,
		Inputs:          inArgs,
		Outputs:         outArgs,
		StateMutability: mutability,
	})
	x.Selectors[method.Sig] = hexutil.Encode(method.ID)
	return nil
}

func (b *builder) event(x *Export, e *resolve.Entry) error {
	name := e.Props.String("name")
	inputs, args, err := b.arguments(e.Props.Strings("params"), true)
	if err != nil {
		return err
	}
	ev := abi.NewEvent(name, name, false, inputs)

	x.Entries = append(x.Entries, Entry{Type: "event", Name: name, Inputs: args})
	x.Selectors[ev.Sig] = ev.ID.Hex()
	return nil
}

func (b *builder) constructor(x *Export, e *resolve.Entry) error {
	_, args, err := b.arguments(e.Props.Strings("params"), false)
	if err != nil {
		return err
	}
	mutability := "nonpayable"
	if e.Props.Bool("payable") {
		mutability = "payable"
	}
	x.Entries = append(x.Entries, Entry{Type: "constructor", Inputs: args, StateMutability: mutability})
	return nil
}

func (b *builder) arguments(decls []string, indexable bool) (abi.Arguments, []Arg, error) {
	args := make(abi.Arguments, 0, len(decls))
	out := make([]Arg, 0, len(decls))
	for _, decl := range decls {
		p := soltype.ParseParam(decl)
		m, err := b.marshaling(p.Name, p.Type, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", decl, err)
		}
		typ, err := abi.NewType(m.Type, m.InternalType, m.Components)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", decl, err)
		}
		indexed := indexable && p.Indexed
		args = append(args, abi.Argument{Name: p.Name, Type: typ, Indexed: indexed})

		arg := toArg(m)
		arg.Indexed = indexed
		out = append(out, arg)
	}
	return args, out, nil
}

// marshaling maps a Solidity type to its ABI form.
func (b *builder) marshaling(name, typ string, depth int) (abi.ArgumentMarshaling, error) {
	if depth > maxDepth {
		return abi.ArgumentMarshaling{}, fmt.Errorf("type %q nests too deeply", typ)
	}
	base, suffix := splitArray(typ)

	switch {
	case strings.HasPrefix(base, "mapping("):
		return abi.ArgumentMarshaling{}, fmt.Errorf("mappings cannot appear in the ABI")
	case b.enums[base]:
		return abi.ArgumentMarshaling{Name: name, Type: "uint8" + suffix, InternalType: "enum " + typ}, nil
	}

	if fields, ok := b.structs[base]; ok {
		m := abi.ArgumentMarshaling{Name: name, Type: "tuple" + suffix, InternalType: "struct " + typ}
		for _, f := range fields {
			fp := soltype.ParseParam(f)
			comp, err := b.marshaling(fp.Name, fp.Type, depth+1)
			if err != nil {
				return abi.ArgumentMarshaling{}, err
			}
			m.Components = append(m.Components, comp)
		}
		return m, nil
	}

	switch base {
	case "uint":
		base = "uint256"
	case "int":
		base = "int256"
	case "byte":
		base = "bytes1"
	case "address payable":
		base = "address"
	}
	if !soltype.Valid(base, nil) {
		return abi.ArgumentMarshaling{}, fmt.Errorf("type %q has no ABI encoding", typ)
	}
	return abi.ArgumentMarshaling{Name: name, Type: base + suffix}, nil
}

// splitArray separates array dimensions from the element type:
// "Point[2][]" yields "Point" and "[2][]".
func splitArray(typ string) (string, string) {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexByte(typ, '['); i >= 0 && !strings.HasPrefix(typ, "mapping(") {
		return strings.TrimSpace(typ[:i]), strings.ReplaceAll(typ[i:], " ", "")
	}
	return typ, ""
}

func toArg(m abi.ArgumentMarshaling) Arg {
	a := Arg{Name: m.Name, Type: m.Type, InternalType: m.InternalType}
	for _, c := range m.Components {
		a.Components = append(a.Components, toArg(c))
	}
	return a
}
