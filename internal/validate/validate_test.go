package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inst(t *testing.T, id, templateID string, kv map[string]any) canvas.Instance {
	t.Helper()
	bag, err := props.FromNative(kv)
	require.NoError(t, err)
	return canvas.Instance{ID: id, TemplateID: templateID, Properties: bag}
}

func run(t *testing.T, state *canvas.State) diag.Diagnostics {
	t.Helper()
	diags, err := Validate(context.Background(), catalog.Default(), state)
	require.NoError(t, err)
	return diags
}

func balanceCanvas(t *testing.T) *canvas.State {
	return &canvas.State{
		Instances: []canvas.Instance{
			inst(t, "v", "state-variable", map[string]any{"name": "balance", "type": "uint256", "visibility": "public"}),
			inst(t, "f", "function", map[string]any{
				"name": "getBalance", "mutability": "view", "returns": []any{"uint256"}, "body": "return balance;",
			}),
		},
		Connections: []canvas.Connection{{From: "v", To: "f"}},
	}
}

func TestValidate_CleanCanvas(t *testing.T) {
	t.Parallel()
	assert.Empty(t, run(t, balanceCanvas(t)))
}

func TestValidate_DoesNotMutate(t *testing.T) {
	t.Parallel()
	state := balanceCanvas(t)
	before := state.ContentHash()
	run(t, state)
	assert.Equal(t, before, state.ContentHash())
}

func TestValidate_IsDeterministic(t *testing.T) {
	t.Parallel()
	state := &canvas.State{
		Instances: []canvas.Instance{
			inst(t, "a", "function", map[string]any{"name": "transfer"}),
			inst(t, "b", "function", map[string]any{"name": "transfer"}),
			inst(t, "c", "state-variable", map[string]any{"name": "x", "type": "uint7"}),
			inst(t, "e", "event", map[string]any{"name": "Moved"}),
		},
		Connections: []canvas.Connection{{From: "e", To: "c"}, {From: "a", To: "a"}},
	}
	first := run(t, state)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, run(t, state)); diff != "" {
			t.Fatalf("diagnostics changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestValidate_NameCollision(t *testing.T) {
	t.Parallel()
	t.Run("same namespace", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "a", "function", map[string]any{"name": "transfer"}),
			inst(t, "b", "function", map[string]any{"name": "transfer"}),
		}})

		collisions := diags.WithCode(diag.CodeNameCollision)
		require.Len(t, collisions, 1)
		d := collisions[0]
		assert.Equal(t, diag.KindNaming, d.Kind)
		assert.Equal(t, diag.SeverityError, d.Severity)
		assert.Equal(t, "b", d.InstanceID)
		assert.Equal(t, []string{"a"}, d.Related)
		assert.Contains(t, d.Message, `"a"`)
		assert.Contains(t, d.Message, `"b"`)
	})

	t.Run("modifiers share the function namespace", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "m", "modifier", map[string]any{"name": "guard"}),
			inst(t, "f", "function", map[string]any{"name": "guard"}),
		}})
		assert.Len(t, diags.WithCode(diag.CodeNameCollision), 1)
	})

	t.Run("distinct names", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "a", "function", map[string]any{"name": "transfer"}),
			inst(t, "b", "function", map[string]any{"name": "approve"}),
		}})
		assert.Empty(t, diags)
	})

	t.Run("different namespaces", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "a", "function", map[string]any{"name": "total"}),
			inst(t, "b", "state-variable", map[string]any{"name": "total"}),
			inst(t, "c", "event", map[string]any{"name": "total"}),
		}})
		assert.Empty(t, diags)
	})

	t.Run("three way collision reports each later duplicate", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "a", "state-variable", map[string]any{"name": "x"}),
			inst(t, "b", "mapping", map[string]any{"name": "x"}),
			inst(t, "c", "struct", map[string]any{"name": "x"}),
		}})
		collisions := diags.WithCode(diag.CodeNameCollision)
		require.Len(t, collisions, 2)
		assert.Equal(t, "b", collisions[0].InstanceID)
		assert.Equal(t, "c", collisions[1].InstanceID)
		assert.Equal(t, []string{"a"}, collisions[1].Related)
	})

	t.Run("batch operations share the function namespace", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "b1", "batch-transfer", nil),
			inst(t, "b2", "batch-transfer", nil),
			inst(t, "f", "function", map[string]any{"name": "batchTransfer"}),
		}})
		collisions := diags.WithCode(diag.CodeNameCollision)
		require.Len(t, collisions, 2, diags.Error())
		assert.Equal(t, "b2", collisions[0].InstanceID)
		assert.Equal(t, "function_name", collisions[0].Property)
		assert.Equal(t, []string{"b1"}, collisions[0].Related)
		assert.Equal(t, "f", collisions[1].InstanceID)
		assert.Equal(t, "name", collisions[1].Property)
		assert.Equal(t, []string{"b1"}, collisions[1].Related)
	})

	t.Run("renamed batch operations do not collide", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "b1", "batch-transfer", nil),
			inst(t, "b2", "batch-transfer", map[string]any{"function_name": "batchPay"}),
		}})
		assert.Empty(t, diags)
	})

	t.Run("names declared by a template", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "token", "erc20-token", map[string]any{"token_name": "Grid", "symbol": "GRD", "mintable": true}),
			inst(t, "f", "function", map[string]any{"name": "mint"}),
		}})
		collisions := diags.WithCode(diag.CodeNameCollision)
		require.Len(t, collisions, 1, diags.Error())
		assert.Equal(t, "f", collisions[0].InstanceID)
		assert.Equal(t, []string{"token"}, collisions[0].Related)
	})

	t.Run("declared names follow property values", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "token", "erc20-token", map[string]any{"token_name": "Grid", "symbol": "GRD"}),
			inst(t, "f", "function", map[string]any{"name": "mint"}),
		}})
		assert.Empty(t, diags)
	})

	t.Run("template collides with an earlier instance", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: []canvas.Instance{
			inst(t, "v", "state-variable", map[string]any{"name": "priceFeed", "type": "uint256"}),
			inst(t, "f", "function", map[string]any{"name": "latestPrice"}),
			inst(t, "o", "chainlink-price-feed", map[string]any{"feed_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3"}),
		}})
		collisions := diags.WithCode(diag.CodeNameCollision)
		require.Len(t, collisions, 2, diags.Error())
		assert.Equal(t, "o", collisions[0].InstanceID)
		assert.Empty(t, collisions[0].Property)
		assert.Equal(t, []string{"f"}, collisions[0].Related)
		assert.Contains(t, collisions[0].Message, "function namespace")
		assert.Equal(t, []string{"v"}, collisions[1].Related)
		assert.Contains(t, collisions[1].Message, "state namespace")
	})
}

func TestValidate_BatchFunctionName(t *testing.T) {
	t.Parallel()
	diags := run(t, &canvas.State{Instances: []canvas.Instance{
		inst(t, "b", "batch-transfer", map[string]any{"function_name": "2fast"}),
	}})
	require.Len(t, diags, 1, diags.Error())
	assert.Equal(t, diag.CodeInvalidIdentifier, diags[0].Code)
	assert.Equal(t, "function_name", diags[0].Property)
	assert.True(t, diags[0].IsError())
}

func TestValidate_Names(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		value    any
		wantCode diag.Code
	}{
		{name: "reserved word", value: "contract", wantCode: diag.CodeReservedWord},
		{name: "elementary type", value: "uint256", wantCode: diag.CodeReservedWord},
		{name: "illegal identifier", value: "2fast", wantCode: diag.CodeInvalidIdentifier},
		{name: "empty name", value: "", wantCode: diag.CodeInvalidIdentifier},
		{name: "missing name", value: nil, wantCode: diag.CodeMissingProperty},
		{name: "wrong type", value: 42, wantCode: diag.CodeTypeMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			kv := map[string]any{}
			if tc.value != nil {
				kv["name"] = tc.value
			}
			diags := run(t, &canvas.State{Instances: []canvas.Instance{inst(t, "f", "function", kv)}})
			require.Len(t, diags, 1, diags.Error())
			assert.Equal(t, tc.wantCode, diags[0].Code)
			assert.Equal(t, "name", diags[0].Property)
			assert.True(t, diags[0].IsError())
		})
	}
}

func TestValidate_SingletonConstructor(t *testing.T) {
	t.Parallel()
	diags := run(t, &canvas.State{Instances: []canvas.Instance{
		inst(t, "c1", "constructor", nil),
		inst(t, "c2", "constructor", nil),
	}})

	require.True(t, diags.HasErrors())
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeSingleton, errs[0].Code)
	assert.Equal(t, diag.KindSchema, errs[0].Kind)
	assert.Equal(t, "c2", errs[0].InstanceID)
	assert.Equal(t, []string{"c1"}, errs[0].Related)
}

func TestValidate_Connections(t *testing.T) {
	t.Parallel()
	base := func(t *testing.T) []canvas.Instance {
		return []canvas.Instance{
			inst(t, "v", "state-variable", map[string]any{"name": "owner", "type": "address"}),
			inst(t, "e", "event", map[string]any{"name": "Moved"}),
			inst(t, "m", "modifier", map[string]any{"name": "onlyOwner"}),
			inst(t, "f", "function", map[string]any{"name": "move"}),
		}
	}

	testCases := []struct {
		name      string
		conns     []canvas.Connection
		wantCodes []diag.Code
	}{
		{name: "modifier to function", conns: []canvas.Connection{{From: "m", To: "f"}}},
		{name: "event to function", conns: []canvas.Connection{{From: "e", To: "f"}}},
		{name: "function to event", conns: []canvas.Connection{{From: "f", To: "e"}}},
		{name: "event to variable", conns: []canvas.Connection{{From: "e", To: "v"}}, wantCodes: []diag.Code{diag.CodeIncompatible}},
		{name: "variable to event", conns: []canvas.Connection{{From: "v", To: "e"}}, wantCodes: []diag.Code{diag.CodeIncompatible}},
		{name: "self loop", conns: []canvas.Connection{{From: "f", To: "f"}}, wantCodes: []diag.Code{diag.CodeSelfLoop}},
		{name: "dangling target", conns: []canvas.Connection{{From: "f", To: "ghost"}}, wantCodes: []diag.Code{diag.CodeDanglingEndpoint}},
		{name: "dangling both", conns: []canvas.Connection{{From: "x", To: "y"}}, wantCodes: []diag.Code{diag.CodeDanglingEndpoint}},
		{name: "duplicate", conns: []canvas.Connection{{From: "m", To: "f"}, {From: "m", To: "f"}}, wantCodes: []diag.Code{diag.CodeDuplicateLink}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			diags := run(t, &canvas.State{Instances: base(t), Connections: tc.conns})
			var got []diag.Code
			for _, d := range diags {
				got = append(got, d.Code)
			}
			assert.Equal(t, tc.wantCodes, got)
		})
	}

	t.Run("incompatible pair is a connection error", func(t *testing.T) {
		t.Parallel()
		diags := run(t, &canvas.State{Instances: base(t), Connections: []canvas.Connection{{From: "e", To: "v"}}})
		require.Len(t, diags, 1)
		assert.Equal(t, diag.KindConnection, diags[0].Kind)
		assert.Equal(t, "e", diags[0].InstanceID)
		assert.Equal(t, []string{"v"}, diags[0].Related)
	})
}

func TestValidate_ValueWarnings(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		instance canvas.Instance
		wantCode diag.Code
		wantProp string
	}{
		{
			name:     "unknown type",
			instance: canvas.Instance{ID: "v", TemplateID: "state-variable"},
			wantCode: diag.CodeUnknownType,
			wantProp: "type",
		},
		{
			name:     "unexpected option",
			instance: canvas.Instance{ID: "f", TemplateID: "function"},
			wantCode: diag.CodeUnexpectedOption,
			wantProp: "visibility",
		},
		{
			name:     "bad address",
			instance: canvas.Instance{ID: "o", TemplateID: "chainlink-price-feed"},
			wantCode: diag.CodeInvalidLiteral,
			wantProp: "feed_address",
		},
		{
			name:     "uint overflow",
			instance: canvas.Instance{ID: "s", TemplateID: "staking-pool"},
			wantCode: diag.CodeInvalidLiteral,
			wantProp: "reward_rate",
		},
		{
			name:     "malformed param",
			instance: canvas.Instance{ID: "e", TemplateID: "event"},
			wantCode: diag.CodeUnknownType,
			wantProp: "params",
		},
		{
			name:     "nameless struct field",
			instance: canvas.Instance{ID: "s", TemplateID: "struct"},
			wantCode: diag.CodeSuspectName,
			wantProp: "fields",
		},
		{
			name:     "enum value is reserved",
			instance: canvas.Instance{ID: "n", TemplateID: "enum"},
			wantCode: diag.CodeSuspectName,
			wantProp: "values",
		},
	}

	values := map[string]map[string]any{
		"unknown type":          {"name": "x", "type": "uint7"},
		"unexpected option":     {"name": "f", "visibility": "everyone"},
		"bad address":           {"feed_address": "0x1234"},
		"uint overflow":         {"staking_token": "0x5FbDB2315678afecb367f032d93F642f64180aa3", "reward_rate": "115792089237316195423570985008687907853269984665640564039457584007913129639936"},
		"malformed param":       {"name": "Moved", "params": []any{"address indexed from", "widget to"}},
		"nameless struct field": {"name": "Position", "fields": []any{"uint256 amount", "address"}},
		"enum value is reserved": {"name": "Status", "values": []any{"Active", "return"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			i := inst(t, tc.instance.ID, tc.instance.TemplateID, values[tc.name])
			diags := run(t, &canvas.State{Instances: []canvas.Instance{i}})
			require.Len(t, diags, 1, diags.Error())
			assert.Equal(t, tc.wantCode, diags[0].Code)
			assert.Equal(t, tc.wantProp, diags[0].Property)
			assert.Equal(t, diag.SeverityWarning, diags[0].Severity)
			assert.False(t, diags.HasErrors())
		})
	}
}

func TestValidate_DeclaredTypesAreKnown(t *testing.T) {
	t.Parallel()
	diags := run(t, &canvas.State{Instances: []canvas.Instance{
		inst(t, "s", "struct", map[string]any{"name": "Position", "fields": []any{"uint256 amount"}}),
		inst(t, "n", "enum", map[string]any{"name": "Status", "values": []any{"Open", "Closed"}}),
		inst(t, "m", "mapping", map[string]any{"name": "positions", "value_type": "Position"}),
		inst(t, "f", "function", map[string]any{"name": "status", "params": []any{"Position memory p"}, "returns": []any{"Status"}}),
	}})
	assert.Empty(t, diags)
}

func TestValidate_UnknownTemplateIsInvariantError(t *testing.T) {
	t.Parallel()
	state := &canvas.State{Instances: []canvas.Instance{{ID: "x", TemplateID: "no-such-template"}}}
	diags, err := Validate(context.Background(), catalog.Default(), state)
	require.Error(t, err)
	assert.Nil(t, diags)

	var inv *diag.InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "x", inv.InstanceID)
	assert.ErrorIs(t, err, catalog.ErrTemplateNotFound)
}

func TestValidate_DuplicateInstanceID(t *testing.T) {
	t.Parallel()
	diags := run(t, &canvas.State{Instances: []canvas.Instance{
		inst(t, "a", "function", map[string]any{"name": "one"}),
		inst(t, "a", "function", map[string]any{"name": "two"}),
	}})
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeDuplicateInstance, diags[0].Code)
}
