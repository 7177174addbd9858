package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
	"github.com/specialistvlad/contractgrid/internal/server"
	"github.com/specialistvlad/contractgrid/internal/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const balanceCanvas = `{
  "instances": [
    {"id": "v", "templateId": "state-variable", "properties": {"name": "balance", "type": "uint256", "visibility": "public"}},
    {"id": "f", "templateId": "function", "properties": {"name": "getBalance", "mutability": "view", "returns": ["uint256"], "body": "return balance;"}}
  ],
  "connections": [{"from": "v", "to": "f"}]
}`

const collidingCanvas = `{
  "instances": [
    {"id": "a", "templateId": "state-variable", "properties": {"name": "x", "type": "uint256"}},
    {"id": "b", "templateId": "state-variable", "properties": {"name": "x", "type": "uint256"}}
  ],
  "connections": []
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %v", err)
	require.Equal(t, code, exitErr.Code, exitErr.Message)
	return exitErr
}

func TestCompile_Text(t *testing.T) {
	dir := t.TempDir()
	canvasPath := writeFile(t, dir, "canvas.json", balanceCanvas)
	project := writeFile(t, dir, "project.hcl", "project \"Bank\" {}\n")

	out, _, err := execute(t, "compile", canvasPath, "--project", project)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "// SPDX-License-Identifier: MIT\n"))
	assert.Contains(t, out, "contract Bank {")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestCompile_JSON(t *testing.T) {
	canvasPath := writeFile(t, t.TempDir(), "canvas.json", balanceCanvas)

	out, _, err := execute(t, "compile", canvasPath, "--format", "json")
	require.NoError(t, err)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, pipeline.StatusEmitted, res.Status)
	assert.Equal(t, []string{"v", "f"}, res.Order)
	require.NotNil(t, res.Interface)
}

func TestCompile_OutAndABIFiles(t *testing.T) {
	dir := t.TempDir()
	canvasPath := writeFile(t, dir, "canvas.json", balanceCanvas)
	srcPath := filepath.Join(dir, "Composed.sol")
	abiPath := filepath.Join(dir, "Composed.abi.json")

	out, _, err := execute(t, "compile", canvasPath, "--out", srcPath, "--abi", abiPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	src, err := os.ReadFile(srcPath)
	require.NoError(t, err)
	assert.Contains(t, string(src), "contract Composed {")

	abiJSON, err := os.ReadFile(abiPath)
	require.NoError(t, err)
	assert.Contains(t, string(abiJSON), `"getBalance"`)
}

func TestCompile_Stdin(t *testing.T) {
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetIn(strings.NewReader(balanceCanvas))
	root.SetArgs([]string{"compile"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "uint256 public balance;")
}

func TestCompile_Rejected(t *testing.T) {
	canvasPath := writeFile(t, t.TempDir(), "canvas.json", collidingCanvas)

	out, errOut, err := execute(t, "compile", canvasPath)
	exitErr := requireExitCode(t, err, ExitFailure)
	assert.Contains(t, exitErr.Message, "rejected")
	assert.Empty(t, out)
	assert.Contains(t, errOut, "naming.collision")
}

func TestCompile_Failures(t *testing.T) {
	canvasPath := writeFile(t, t.TempDir(), "canvas.json", balanceCanvas)

	testCases := []struct {
		name string
		args []string
		code int
	}{
		{name: "bad format", args: []string{"compile", canvasPath, "--format", "xml"}, code: ExitUsage},
		{name: "unknown flag", args: []string{"compile", "--nope"}, code: ExitUsage},
		{name: "too many args", args: []string{"compile", canvasPath, canvasPath}, code: ExitUsage},
		{name: "bad log level", args: []string{"compile", canvasPath, "--log-level", "loud"}, code: ExitUsage},
		{name: "missing canvas", args: []string{"compile", "missing.json"}, code: ExitFailure},
		{name: "unknown command", args: []string{"deploy"}, code: ExitUsage},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			requireExitCode(t, err, tc.code)
		})
	}
}

func TestCatalog_Table(t *testing.T) {
	out, _, err := execute(t, "catalog")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "TEMPLATE"))
	assert.Contains(t, out, "state-variable")
}

func TestCatalog_YAML(t *testing.T) {
	out, _, err := execute(t, "catalog", "--format", "yaml")
	require.NoError(t, err)

	var view catalogView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	require.NotEmpty(t, view.Templates)
	require.NotEmpty(t, view.Categories)

	var found bool
	for _, tv := range view.Templates {
		if tv.ID == "function" {
			found = true
			assert.Equal(t, "function", tv.Category)
			assert.Contains(t, tv.Links, "modifiers")
		}
	}
	assert.True(t, found, "function template not listed")
}

func TestSubmit_RequiresURL(t *testing.T) {
	canvasPath := writeFile(t, t.TempDir(), "canvas.json", balanceCanvas)
	_, _, err := execute(t, "submit", canvasPath)
	requireExitCode(t, err, ExitUsage)
}

func TestSubmit_HTTP(t *testing.T) {
	srv := server.New(context.Background(), pipeline.NewCompiler(catalog.Default()), sessionstore.New())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	dir := t.TempDir()
	canvasPath := writeFile(t, dir, "canvas.json", balanceCanvas)
	project := writeFile(t, dir, "project.hcl", "project \"Remote\" {}\n")

	out, _, err := execute(t, "submit", "--url", ts.URL, "--transport", "http", "--project", project, canvasPath)
	require.NoError(t, err)
	assert.Contains(t, out, "contract Remote {")
}

func TestSubmit_BadTransport(t *testing.T) {
	canvasPath := writeFile(t, t.TempDir(), "canvas.json", balanceCanvas)
	_, _, err := execute(t, "submit", "--url", "http://localhost:1", "--transport", "carrier-pigeon", canvasPath)
	requireExitCode(t, err, ExitUsage)
}
