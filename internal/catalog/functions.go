package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// IndentFunc prefixes every line but the first with the given number of
// spaces. Empty lines are left empty.
var IndentFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "spaces", Type: cty.Number},
		{Name: "str", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		var spaces int
		if err := gocty.FromCtyValue(args[0], &spaces); err != nil {
			return cty.UnknownVal(cty.String), err
		}
		if spaces < 0 {
			return cty.UnknownVal(cty.String), fmt.Errorf("spaces must not be negative, got %d", spaces)
		}

		pad := strings.Repeat(" ", spaces)
		lines := strings.Split(args[1].AsString(), "\n")
		for i := 1; i < len(lines); i++ {
			if lines[i] != "" {
				lines[i] = pad + lines[i]
			}
		}
		return cty.StringVal(strings.Join(lines, "\n")), nil
	},
})

var functions = sync.OnceValue(func() map[string]function.Function {
	return map[string]function.Function{
		"concat":     stdlib.ConcatFunc,
		"format":     stdlib.FormatFunc,
		"formatlist": stdlib.FormatListFunc,
		"indent":     IndentFunc,
		"join":       stdlib.JoinFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"replace":    stdlib.ReplaceFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
	}
})

// Functions returns the functions available to emission templates.
func Functions() map[string]function.Function {
	return functions()
}

// FunctionNames returns the sorted names of the template functions.
func FunctionNames() []string {
	names := make([]string, 0, len(functions()))
	for name := range functions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
