package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcheck/internal/bootstrap"
	"labcheck/internal/rules"
)

var completePage = filepath.Join("..", "..", "internal", "bootstrap", "testdata", "complete.html")

// labRules is the size of the catalog the command runs.
var labRules = bootstrap.LabCatalog(bootstrap.Options{}).Len()

func runCmd(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// TestRun_CompletePagePasses verifies the happy path from a file.
func TestRun_CompletePagePasses(t *testing.T) {
	t.Parallel()

	code, out, stderr := runCmd(t, "", "--page", completePage, "--no-color", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "PASS navbar/present")
	assert.Contains(t, out, fmt.Sprintf("%d passed, 0 failed", labRules))
}

// TestRun_StdinJSON verifies a failing page read from stdin exits 1 with a
// JSON report covering every rule.
func TestRun_StdinJSON(t *testing.T) {
	t.Parallel()

	code, out, stderr := runCmd(t, `<html><body><p>empty</p></body></html>`, "-p", "-", "--json", "--log-level", "error")
	require.Equal(t, 1, code, stderr)

	var rep rules.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, "-", rep.Source)
	assert.Len(t, rep.Results, labRules)
	assert.Equal(t, labRules, rep.Passed+rep.Failed)
	assert.False(t, rep.OK())
}

func TestRun_PositionalPage(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCmd(t, "", "-j", "--log-level", "error", completePage)
	assert.Equal(t, 0, code, stderr)
}

func TestRun_MissingPage(t *testing.T) {
	t.Parallel()

	code, out, stderr := runCmd(t, "", "-p", filepath.Join(t.TempDir(), "missing.html"))
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "load markup")
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"too many args", []string{"a.html", "b.html"}},
		{"text and markdown", []string{"-s", "p", "--text", "--markdown"}},
		{"text without selector", []string{"--text"}},
		{"bad selector", []string{"-p", "-", "-s", "a,,b"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"watch stdin", []string{"-p", "-", "--watch"}},
		{"missing config", []string{"-c", "/nonexistent/labcheck.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _, _ := runCmd(t, "", tt.args...)
			assert.Equal(t, 2, code)
		})
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCmd(t, "", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "Usage: labcheck")
}

// TestRun_ConfigAndOverrides verifies file values apply and flags win.
func TestRun_ConfigAndOverrides(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	page := filepath.Join(tmp, "page.html")
	require.NoError(t, os.WriteFile(page, []byte(`<nav class="navbar"><a class="navbar-brand">Quartier</a></nav>`), 0o600))
	cfgPath := filepath.Join(tmp, "labcheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("page: "+page+"\nformat: json\nbrand_words: [quartier]\nlog_level: error\n"), 0o600))

	code, out, _ := runCmd(t, "", "-c", cfgPath)
	assert.Equal(t, 1, code)
	var rep rules.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	for _, r := range rep.Results {
		if r.Rule == "navbar/brand" {
			assert.True(t, r.Passed, r.Message)
		}
	}

	code, out, _ = runCmd(t, "", "-c", cfgPath, "-p", completePage)
	assert.Equal(t, 1, code) // brand vocabulary still "quartier"
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, 1, rep.Failed)
}

func TestRun_DebugSelector(t *testing.T) {
	t.Parallel()

	stdin := `<div id="x">  A  </div><div id="x"><b>B</b></div>`

	code, out, stderr := runCmd(t, stdin, "-p", "-", "-s", "div#x", "--text")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "A\n\nB\n\n", out)

	code, out, stderr = runCmd(t, stdin, "-p", "-", "-s", "div#x", "--markdown")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "**B**")

	code, out, stderr = runCmd(t, stdin, "-p", "-", "-s", "b")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "<b>B</b>\n\n", out)
}

func TestRun_Dir(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	complete, err := os.ReadFile(completePage)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a.html"), complete, 0o600))

	code, out, stderr := runCmd(t, "", "--dir", tmp, "--log-level", "error")
	require.Equal(t, 0, code, stderr)

	var reps []rules.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reps), out)
	require.Len(t, reps, 1)
	assert.Equal(t, "a.html", reps[0].Source)

	require.NoError(t, os.WriteFile(filepath.Join(tmp, "b.html"), []byte("<p>x</p>"), 0o600))
	code, _, _ = runCmd(t, "", "--dir", tmp, "--log-level", "error")
	assert.Equal(t, 1, code)

	code, _, _ = runCmd(t, "", "--dir", filepath.Join(tmp, "nope"))
	assert.Equal(t, 1, code)
}

func TestRun_Simulate(t *testing.T) {
	t.Parallel()

	code, out, stderr := runCmd(t, "", "-p", completePage, "--simulate", "--json", "--log-level", "error")
	require.Equal(t, 0, code, stderr)

	var sim Simulation
	require.NoError(t, json.Unmarshal([]byte(out), &sim), out)
	assert.Len(t, sim.Components, 2)
	require.Len(t, sim.Events, 1)
	assert.True(t, sim.Events[0].DefaultPrevented)
	require.Len(t, sim.AfterSubmit, 1)
	assert.Equal(t, "success", sim.AfterSubmit[0].Kind)
	assert.Empty(t, sim.AfterDismissal)
	assert.Equal(t, "5s", sim.DismissDelay)

	code, out, _ = runCmd(t, "", "-p", completePage, "--simulate", "--log-level", "error")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "0 alert(s) left after 5s")
}
