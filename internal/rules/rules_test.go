package rules

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcheck/internal/dom"
)

func cards(n int) string {
	return strings.Repeat(`<div class="card"></div>`, n)
}

// TestAtLeast_InclusiveBound verifies exactly N passes and N-1 fails.
func TestAtLeast_InclusiveBound(t *testing.T) {
	t.Parallel()

	p := AtLeast(".card", 3)

	out := p(dom.Parse(cards(3)))
	assert.True(t, out.Passed, out.Message)
	assert.NoError(t, out.Err)

	out = p(dom.Parse(cards(2)))
	assert.False(t, out.Passed)
	assert.ErrorIs(t, out.Err, ErrRuleFailed)
	assert.Equal(t, `found 2 ".card", want at least 3`, out.Message)

	out = p(dom.Parse(""))
	assert.False(t, out.Passed)
}

func TestExists(t *testing.T) {
	t.Parallel()

	assert.False(t, Exists("nav")(dom.Parse("<p>x</p>")).Passed)
	assert.True(t, Exists("nav")(dom.Parse("<nav></nav>")).Passed)
}

func TestSumAtLeast(t *testing.T) {
	t.Parallel()

	p := SumAtLeast(2, ".badge", ".progress")
	assert.True(t, p(dom.Parse(`<span class="badge"></span><div class="progress"></div>`)).Passed)
	out := p(dom.Parse(`<span class="badge"></span>`))
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, "found 1 of .badge + .progress")
}

func TestAnyAndEveryScopeHas(t *testing.T) {
	t.Parallel()

	doc := dom.Parse(`
		<div class="row"><div class="col-md-6"></div></div>
		<div class="row"><p>empty</p></div>`)

	assert.True(t, AnyScopeHas(".row", `[class*="col"]`)(doc).Passed)

	out := EveryScopeHas(".row", `[class*="col"]`)(doc)
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, "1 of 2")

	out = AnyScopeHas(".row", `[class*="col"]`)(dom.Parse(`<div class="column"></div>`))
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, `no element matches ".row"`)

	out = AnyScopeHas(".row", `[class*="col"]`)(dom.Parse(`<div class="row"><div class="column"></div></div>`))
	assert.False(t, out.Passed)
}

func TestTextContains_CaseInsensitive(t *testing.T) {
	t.Parallel()

	p := TextContains(".navbar-brand", "community")
	assert.True(t, p(dom.Parse(`<a class="navbar-brand">COMMUNITY Hub</a>`)).Passed)
	assert.True(t, TextContains("h1", "σίσυφος")(dom.Parse(`<h1>ΣΊΣΥΦΟΣ</h1>`)).Passed)

	out := p(dom.Parse(`<a class="navbar-brand">My Site</a>`))
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, "My Site")

	assert.False(t, p(dom.Parse(`<p>community</p>`)).Passed)
}

func TestNoPlaceholders(t *testing.T) {
	t.Parallel()

	p := NoPlaceholders("****")
	assert.True(t, p(dom.Parse(`<div class="col-md-4"></div>`)).Passed)

	out := p(dom.Parse(`<div class="****"></div><span class="btn ****-primary"></span>`))
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, "2 element(s)")

	attrs := NoPlaceholders("****", "class", "data-bs-dismiss")
	assert.False(t, attrs(dom.Parse(`<button class="btn-close" data-bs-dismiss="****"></button>`)).Passed)
	assert.True(t, p(dom.Parse(`<button class="btn-close" data-bs-dismiss="****"></button>`)).Passed)

	scoped := InScope("x", "#about", p)
	assert.False(t, scoped.Check(dom.Parse(`<section id="about" class="py-****"></section>`)).Passed)
	assert.True(t, scoped.Check(dom.Parse(`<section id="about"></section><p class="****"></p>`)).Passed)
}

func TestAll_FirstFailureWins(t *testing.T) {
	t.Parallel()

	p := All(AtLeast(".row", 1), AtLeast(`[class*="col"]`, 2))
	out := p(dom.Parse(`<div class="row"><div class="col"></div></div>`))
	assert.False(t, out.Passed)
	assert.Contains(t, out.Message, `want at least 2`)

	out = p(dom.Parse(`<div class="row"><div class="col"></div><div class="col-6"></div></div>`))
	assert.True(t, out.Passed)
}

// TestInScope_MissingSection verifies an absent scope fails uniformly instead
// of faulting.
func TestInScope_MissingSection(t *testing.T) {
	t.Parallel()

	r := InScope("forms/labels", "#contact", AtLeast("label", 2))
	out := r.Check(dom.Parse(`<section id="about"></section>`))
	assert.False(t, out.Passed)
	assert.ErrorIs(t, out.Err, ErrMissingScope)
	assert.Equal(t, "required section missing: #contact", out.Message)

	out = r.Check(dom.Parse(`<section id="contact"><label>a</label><label>b</label></section><label>c</label>`))
	assert.True(t, out.Passed, out.Message)
}

func TestCatalog_Register(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil)
	require.NoError(t, c.Register(New("a", Exists("p"))))
	assert.Error(t, c.Register(New(" a ", Exists("p"))))
	assert.Error(t, c.Register(New("", Exists("p"))))
	assert.Error(t, c.Register(Rule{Name: "nil"}))
	assert.Equal(t, 1, c.Len())

	assert.Panics(t, func() { c.MustRegister(New("a", Exists("p"))) })
}

// TestCatalog_RunIsCompleteAndOrdered verifies one result per rule in
// registration order, with no early exit on failure.
func TestCatalog_RunIsCompleteAndOrdered(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil).MustRegister(
		New("first", Exists("footer")),
		InScope("second", "#missing", Exists("p")),
		Rule{Name: "third", Check: func(*dom.Document) Outcome { panic("boom") }},
		New("fourth", Exists("p")),
	)

	rep := c.Run(dom.Parse("<p>x</p>"))
	require.Len(t, rep.Results, c.Len())

	names := make([]string, 0, len(rep.Results))
	for _, r := range rep.Results {
		names = append(names, r.Rule)
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, names)

	assert.False(t, rep.Results[0].Passed)
	assert.Equal(t, "required section missing: #missing", rep.Results[1].Message)
	assert.Equal(t, "rule panicked: boom", rep.Results[2].Message)
	assert.True(t, rep.Results[3].Passed)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 3, rep.Failed)
	assert.False(t, rep.OK())
	assert.Len(t, rep.Failures(), 3)
}

// TestCatalog_Deterministic verifies two runs over the same document encode
// to identical bytes.
func TestCatalog_Deterministic(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil).MustRegister(
		New("cards", AtLeast(".card", 3)),
		New("brand", TextContains(".navbar-brand", "community")),
		InScope("contact", "#contact", Exists("form")),
	)
	doc := dom.Parse(cards(2) + `<a class="navbar-brand">Community</a>`)

	a, err := json.Marshal(c.Run(doc))
	require.NoError(t, err)
	b, err := json.Marshal(c.Run(doc))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEvaluate_FailWithoutErrGetsKind(t *testing.T) {
	t.Parallel()

	out := evaluate(Rule{Name: "x", Check: func(*dom.Document) Outcome { return Outcome{Message: "nope"} }}, dom.Parse(""))
	assert.True(t, errors.Is(out.Err, ErrRuleFailed))
}

func TestLoadFailure(t *testing.T) {
	t.Parallel()

	rep := LoadFailure("x.html", errors.New("permission denied"))
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, "load", rep.Results[0].Rule)
	assert.False(t, rep.OK())
}
