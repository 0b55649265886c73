// Package selector compiles the CSS selector subset used by structural rules.
//
// Supported forms: tag, .class, #id, [attr], [attr="v"], [attr*="v"] (and the
// other attribute operators cascadia understands), compound forms such as
// button[type="submit"], the descendant combinator (space) and comma unions.
//
// [class*="v"] is evaluated per class token rather than against the raw
// attribute string, so [class*="col"] matches "col-md-4" but not "column".
// A value containing the placeholder marker is exempt and matched raw.
package selector

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// PlaceholderToken is the literal marker lab templates leave behind for
// students to replace.
const PlaceholderToken = "****"

// ErrSyntax is returned (wrapped) for selectors that cannot be compiled.
var ErrSyntax = errors.New("selector syntax")

// reClassContains matches [class*=v] with the attribute name in any case and
// an optional i/s flag.
var reClassContains = regexp.MustCompile(`\[\s*(?i:class)\s*\*=\s*(?:"([^"]*)"|'([^']*)'|([^\]\s"']+))\s*(?:([iIsS])\s*)?\]`)

// Selector is a compiled selector. It satisfies goquery.Matcher.
type Selector struct {
	expr   string
	groups []group
}

// group is one comma-separated alternative. Alternatives without tokenized
// class tests are delegated to cascadia as a whole; the rest are evaluated as
// a descendant chain of compounds.
type group struct {
	whole cascadia.Sel
	chain []compound
}

type compound struct {
	base   cascadia.Sel // nil matches any element
	tokens []token
}

// token is one [class*=v] test. fold is set by the "i" flag.
type token struct {
	v    string
	fold bool
}

// Parse compiles expr.
func Parse(expr string) (*Selector, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrSyntax)
	}

	parts, err := split(trimmed, func(r rune) bool { return r == ',' })
	if err != nil {
		return nil, err
	}

	s := &Selector{expr: trimmed}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty alternative in %q", ErrSyntax, trimmed)
		}
		g, err := compileGroup(part)
		if err != nil {
			return nil, err
		}
		s.groups = append(s.groups, g)
	}
	return s, nil
}

// MustParse is Parse for selectors defined in code. It panics on error.
func MustParse(expr string) *Selector {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the source expression.
func (s *Selector) String() string { return s.expr }

// Match reports whether n is an element matched by any alternative.
func (s *Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, g := range s.groups {
		if g.match(n) {
			return true
		}
	}
	return false
}

// MatchAll returns n and its descendants that match, in document order.
func (s *Selector) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if s.Match(c) {
			out = append(out, c)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return out
}

// Filter keeps the nodes that match, preserving order.
func (s *Selector) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if s.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func compileGroup(part string) (group, error) {
	if !needsTokenMatch(part) {
		sel, err := cascadia.Parse(part)
		if err != nil {
			return group{}, fmt.Errorf("%w: %q: %v", ErrSyntax, part, err)
		}
		return group{whole: sel}, nil
	}

	steps, err := split(part, isSpace)
	if err != nil {
		return group{}, err
	}

	var g group
	for _, step := range steps {
		if step == "" {
			continue
		}
		if hasCombinator(step) {
			return group{}, fmt.Errorf("%w: combinator in %q is not supported alongside class substring tests", ErrSyntax, part)
		}
		c, err := compileCompound(step)
		if err != nil {
			return group{}, err
		}
		g.chain = append(g.chain, c)
	}
	if len(g.chain) == 0 {
		return group{}, fmt.Errorf("%w: empty alternative %q", ErrSyntax, part)
	}
	return g, nil
}

func compileCompound(step string) (compound, error) {
	var c compound
	rest := reClassContains.ReplaceAllStringFunc(step, func(m string) string {
		v, flag := classValue(m)
		if strings.Contains(v, PlaceholderToken) {
			return m
		}
		tk := token{v: v}
		if flag == "i" || flag == "I" {
			tk = token{v: strings.ToLower(v), fold: true}
		}
		c.tokens = append(c.tokens, tk)
		return ""
	})
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return c, nil
	}
	sel, err := cascadia.Parse(rest)
	if err != nil {
		return compound{}, fmt.Errorf("%w: %q: %v", ErrSyntax, step, err)
	}
	c.base = sel
	return c, nil
}

func needsTokenMatch(part string) bool {
	for _, m := range reClassContains.FindAllString(part, -1) {
		if v, _ := classValue(m); !strings.Contains(v, PlaceholderToken) {
			return true
		}
	}
	return false
}

// classValue returns the value and flag of a [class*=v] match.
func classValue(m string) (v, flag string) {
	sm := reClassContains.FindStringSubmatch(m)
	for _, s := range sm[1:4] {
		if s != "" {
			return s, sm[4]
		}
	}
	return "", sm[4]
}

// hasCombinator reports whether step contains >, + or ~ outside brackets,
// parentheses and quotes.
func hasCombinator(step string) bool {
	depth := 0
	var quote rune
	for _, r := range step {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		case depth == 0 && (r == '>' || r == '+' || r == '~'):
			return true
		}
	}
	return false
}

func (g group) match(n *html.Node) bool {
	if g.whole != nil {
		return g.whole.Match(n)
	}
	return matchChain(n, g.chain)
}

func matchChain(n *html.Node, chain []compound) bool {
	last := len(chain) - 1
	if !chain[last].match(n) {
		return false
	}
	if last == 0 {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && matchChain(p, chain[:last]) {
			return true
		}
	}
	return false
}

func (c compound) match(n *html.Node) bool {
	if c.base != nil && !c.base.Match(n) {
		return false
	}
	if len(c.tokens) == 0 {
		return true
	}
	classes := strings.Fields(attr(n, "class"))
	for _, tk := range c.tokens {
		if !anyToken(classes, tk) {
			return false
		}
	}
	return true
}

func anyToken(classes []string, tk token) bool {
	for _, t := range classes {
		if tk.fold {
			t = strings.ToLower(t)
		}
		if TokenContains(t, tk.v) {
			return true
		}
	}
	return false
}

// TokenContains reports whether class token t contains v on hyphen-segment
// boundaries: v must start at the token start, right after a '-', or with a
// leading '-' of its own, and end at the token end, before a '-', or with a
// trailing '-' of its own.
func TokenContains(t, v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i+len(v) <= len(t); i++ {
		if t[i:i+len(v)] != v {
			continue
		}
		if i > 0 && t[i-1] != '-' && v[0] != '-' {
			continue
		}
		end := i + len(v)
		if end == len(t) || t[end] == '-' || strings.HasSuffix(v, "-") {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// split breaks s on sep runes that are outside brackets, parentheses and
// quotes.
func split(s string, sep func(rune) bool) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		depth int
		quote rune
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced %q in %q", ErrSyntax, r, s)
			}
		case depth == 0 && sep(r):
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if quote != 0 || depth != 0 {
		return nil, fmt.Errorf("%w: unterminated quote or bracket in %q", ErrSyntax, s)
	}
	return append(out, cur.String()), nil
}
