package soltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"balance", "_x", "$y", "getBalance2"} {
		assert.True(t, IsIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "2fast", "with space", "dash-ed", "über"} {
		assert.False(t, IsIdentifier(bad), bad)
	}
}

func TestIsReserved(t *testing.T) {
	for _, w := range []string{"function", "contract", "uint256", "bytes32", "int8", "mapping", "emit", "this"} {
		assert.True(t, IsReserved(w), w)
	}
	for _, w := range []string{"balance", "transfer", "owner", "uint256x"} {
		assert.False(t, IsReserved(w), w)
	}
}

func TestValid(t *testing.T) {
	declared := func(s string) bool { return s == "Proposal" || s == "Status" }

	for _, ok := range []string{
		"uint256", "uint", "int", "int8", "bytes32", "bytes", "byte", "string",
		"bool", "address", "address payable", "uint256[]", "uint256[3]",
		"uint256[][2]", "mapping(address => uint256)",
		"mapping(address => mapping(uint256 => bool))", "Proposal", "Status[]",
		"mapping(uint256 => Proposal)",
	} {
		assert.True(t, Valid(ok, declared), ok)
	}
	for _, bad := range []string{
		"", "uint7", "uint512", "Unknown", "mapping(address)", "uint256[x]",
		"address payable payable", "bytes33", "mapping(address => Unknown)",
	} {
		assert.False(t, Valid(bad, declared), bad)
	}
	assert.False(t, Valid("Proposal", nil))
}

func TestParseParam(t *testing.T) {
	testCases := []struct {
		in   string
		want Param
	}{
		{in: "uint256", want: Param{Type: "uint256"}},
		{in: "address indexed from", want: Param{Type: "address", Indexed: true, Name: "from"}},
		{in: "string memory label", want: Param{Type: "string", Location: "memory", Name: "label"}},
		{in: "address payable to", want: Param{Type: "address payable", Name: "to"}},
		{in: "mapping(address => uint256) storage balances", want: Param{Type: "mapping(address => uint256)", Location: "storage", Name: "balances"}},
		{in: "uint256[] calldata amounts", want: Param{Type: "uint256[]", Location: "calldata", Name: "amounts"}},
		{in: "uint256 a b", want: Param{Type: "uint256", Name: "a", Extra: []string{"b"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseParam(tc.in))
		})
	}
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, []string{"mapping", "address", "Proposal"}, Identifiers("mapping(address => Proposal[])"))
	assert.Equal(t, []string{"Status", "memory", "s"}, Identifiers("Status memory s"))
	assert.Empty(t, Identifiers("[] => ()"))
}
