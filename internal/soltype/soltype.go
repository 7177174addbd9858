// Package soltype knows just enough of the Solidity grammar to check the
// strings users type into property fields: identifiers, reserved words, type
// names and parameter declarations.
package soltype

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// elementaryRe matches sized elementary type names, which are reserved.
var elementaryRe = regexp.MustCompile(`^(u?int|bytes)[0-9]+$`)

var sizedIntRe = regexp.MustCompile(`^u?int([0-9]+)$`)

var reserved = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		abstract address after alias anonymous apply assembly auto bool break
		byte bytes calldata case catch constant constructor continue contract
		copyof default define delete do else emit enum error event external
		fallback false final fixed for function gwei hours if immutable
		implements import in indexed inline int interface internal is let
		library macro mapping match memory minutes modifier mutable new null
		of override partial payable pragma private promise public pure
		receive reference relocatable return returns revert sealed seconds
		sizeof static storage string struct super supports switch this true
		try type typedef typeof ufixed uint unchecked unicode using var view
		virtual weeks wei while years days ether`) {
		reserved[w] = struct{}{}
	}
}

// IsIdentifier reports whether s is a syntactically legal identifier.
func IsIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// IsReserved reports whether s is a keyword or elementary type name.
func IsReserved(s string) bool {
	if _, ok := reserved[s]; ok {
		return true
	}
	return elementaryRe.MatchString(s)
}

// Valid reports whether s names a type: an ABI elementary type, `string`,
// `bytes`, `address payable`, a mapping of valid types, an array of any of
// those, or a name for which declared returns true.
func Valid(s string, declared func(string) bool) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	for strings.HasSuffix(s, "]") {
		open := strings.LastIndex(s, "[")
		if open < 0 {
			return false
		}
		if size := strings.TrimSpace(s[open+1 : len(s)-1]); size != "" && !isDigits(size) {
			return false
		}
		s = strings.TrimSpace(s[:open])
	}

	if inner, ok := mappingInner(s); ok {
		key, value, found := strings.Cut(inner, "=>")
		return found && Valid(key, declared) && Valid(value, declared)
	}

	switch s {
	case "address payable", "string", "bytes", "bool", "address":
		return true
	case "uint":
		s = "uint256"
	case "int":
		s = "int256"
	case "byte":
		s = "bytes1"
	}

	if declared != nil && declared(s) {
		return true
	}
	if !IsIdentifier(s) || s == "tuple" || s == "function" {
		return false
	}
	if m := sizedIntRe.FindStringSubmatch(s); m != nil {
		bits, err := strconv.Atoi(m[1])
		if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
			return false
		}
	}
	_, err := abi.NewType(s, "", nil)
	return err == nil
}

func mappingInner(s string) (string, bool) {
	if !strings.HasPrefix(s, "mapping(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[len("mapping(") : len(s)-1], true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
