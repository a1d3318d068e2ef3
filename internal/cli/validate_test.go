package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `name: %s
description: one readiness check
kind: consumer
steps: [limited(1)]
actions:
  - op: ready
    expect: ready
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateDemoScenarios(t *testing.T) {
	out, err := executeValidate(t, "text", "../../testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "scenario(s) valid")
}

func TestValidateMissingArgs(t *testing.T) {
	_, err := executeValidate(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestValidateNonExistentDir(t *testing.T) {
	out, err := executeValidate(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestValidateEmptyDir(t *testing.T) {
	_, err := executeValidate(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenario files")
}

func TestValidateInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", `name: good
description: fine
kind: producer
data: [x]
actions: [{op: next}]
`)
	bad := writeFile(t, dir, "bad.yaml", `name: bad
description: accept is not a producer op
kind: producer
actions: [{op: accept, item: a}]
`)

	out, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, bad)
	assert.Contains(t, out, `op "accept" is not valid here`)
}

func TestValidateDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", fmt.Sprintf(validScenario, "same"))
	writeFile(t, dir, "b.yaml", fmt.Sprintf(validScenario, "same"))

	out, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, `duplicate scenario name "same"`)
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", fmt.Sprintf(validScenario, "a"))
	writeFile(t, dir, "nested/b.yml", fmt.Sprintf(validScenario, "b"))

	out, err := executeValidate(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Scenarios)
}

func TestValidateJSONFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: a\nkind: consumer\nactions: [{op: ready}]\n")

	out, err := executeValidate(t, "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Contains(t, resp.Data.Errors[0].Message, "description is required")
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
}
