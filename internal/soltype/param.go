package soltype

import (
	"strings"
	"unicode"
)

// Param is a parsed parameter or field declaration such as
// "address indexed from" or "string memory label".
type Param struct {
	Type     string
	Location string
	Indexed  bool
	Name     string
	// Extra holds unexpected trailing words.
	Extra []string
}

var locations = map[string]struct{}{
	"memory":   {},
	"storage":  {},
	"calldata": {},
}

// ParseParam splits a declaration into its type and qualifiers. The type may
// contain spaces (`mapping(address => uint256)`, `address payable`).
func ParseParam(s string) Param {
	s = strings.TrimSpace(s)
	var p Param
	var rest string

	if strings.HasPrefix(s, "mapping(") {
		end := matchParen(s, len("mapping"))
		if end < 0 {
			return Param{Type: s}
		}
		end++
		for end < len(s) && s[end] == '[' {
			closing := strings.IndexByte(s[end:], ']')
			if closing < 0 {
				break
			}
			end += closing + 1
		}
		p.Type, rest = s[:end], s[end:]
	} else {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return p
		}
		p.Type = fields[0]
		rest = strings.Join(fields[1:], " ")
		if p.Type == "address" && strings.HasPrefix(rest, "payable") {
			p.Type = "address payable"
			rest = strings.TrimPrefix(rest, "payable")
		}
	}

	for _, word := range strings.Fields(rest) {
		switch {
		case word == "indexed" && !p.Indexed && p.Name == "":
			p.Indexed = true
		case p.Location == "" && p.Name == "" && isLocation(word):
			p.Location = word
		case p.Name == "":
			p.Name = word
		default:
			p.Extra = append(p.Extra, word)
		}
	}
	return p
}

func isLocation(w string) bool {
	_, ok := locations[w]
	return ok
}

// matchParen returns the index of the parenthesis closing the one at open.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Identifiers returns the identifier-like words of a type expression, in
// order of appearance. It is used to find references to user-declared types.
func Identifiers(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$')
	})
	out := words[:0]
	for _, w := range words {
		if IsIdentifier(w) {
			out = append(out, w)
		}
	}
	return out
}
