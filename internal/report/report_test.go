package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcheck/internal/dom"
	"labcheck/internal/rules"
)

func sampleReport() rules.Report {
	return rules.Report{
		Source: "index.html",
		Passed: 1,
		Failed: 1,
		Results: []rules.Result{
			{Rule: "navbar/present", Passed: true, Message: `found ".navbar"`},
			{Rule: "forms/labels", Message: "required section missing: #contact"},
		},
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	for _, color := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, Text(&buf, sampleReport(), Options{Color: color}))

		// A bytes.Buffer is not a terminal, so styled output degrades to plain.
		want := "index.html\n" +
			"PASS navbar/present  found \".navbar\"\n" +
			"FAIL forms/labels    required section missing: #contact\n" +
			"\n" +
			"1 passed, 1 failed\n"
		assert.Equal(t, want, buf.String(), "color=%v", color)
	}
}

func TestText_NoMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := rules.Report{Passed: 1, Results: []rules.Result{{Rule: "a", Passed: true}}}
	require.NoError(t, Text(&buf, rep, Options{}))
	assert.Equal(t, "PASS a\n\n1 passed, 0 failed\n", buf.String())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	require.NoError(t, JSON(&a, sampleReport()))
	require.NoError(t, JSON(&b, sampleReport()))
	assert.Equal(t, a.Bytes(), b.Bytes())

	assert.Contains(t, a.String(), `"rule":"navbar/present"`)

	var got rules.Report
	require.NoError(t, json.Unmarshal(a.Bytes(), &got))
	assert.Equal(t, sampleReport(), got)
}

func TestJSON_NoHTMLEscaping(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := rules.Report{Failed: 1, Results: []rules.Result{{Rule: "x", Message: `no element matches "a > b"`}}}
	require.NoError(t, JSON(&buf, rep))
	assert.Contains(t, buf.String(), `a > b`)
	assert.NotContains(t, buf.String(), `\u003e`)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func navCatalog() *rules.Catalog {
	return rules.NewCatalog(nil).MustRegister(
		rules.New("navbar/present", rules.Exists("nav")),
	)
}

func TestStreamDir(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	// Created out of order to check sorting.
	writeFile(t, tmp, "b.htm", `<p>no nav</p>`)
	writeFile(t, tmp, "a.html", `<nav></nav>`)
	writeFile(t, tmp, "notes.txt", `<nav></nav>`)
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub.html"), 0o700))
	require.NoError(t, os.Symlink(filepath.Join(tmp, "missing"), filepath.Join(tmp, "c.html")))

	var buf bytes.Buffer
	failed, err := StreamDir(context.Background(), &buf, tmp, navCatalog(), NewEncoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, 2, failed)

	var reps []rules.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &reps), buf.String())
	require.Len(t, reps, 3)

	assert.Equal(t, "a.html", reps[0].Source)
	assert.True(t, reps[0].OK())

	assert.Equal(t, "b.htm", reps[1].Source)
	assert.Equal(t, 1, reps[1].Failed)

	assert.Equal(t, "c.html", reps[2].Source)
	require.Len(t, reps[2].Results, 1)
	assert.Equal(t, "load", reps[2].Results[0].Rule)
	assert.Contains(t, reps[2].Results[0].Message, dom.ErrLoad.Error())
}

func TestStreamDir_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	failed, err := StreamDir(context.Background(), &buf, t.TempDir(), navCatalog(), NewEncoder(&buf))
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, "[]", buf.String())
}

func TestStreamDir_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := StreamDir(context.Background(), &buf, filepath.Join(t.TempDir(), "nope"), navCatalog(), NewEncoder(&buf))
	assert.Error(t, err)

	tmp := t.TempDir()
	writeFile(t, tmp, "a.html", `<nav></nav>`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = StreamDir(ctx, &buf, tmp, navCatalog(), NewEncoder(&buf))
	assert.ErrorIs(t, err, context.Canceled)
}
