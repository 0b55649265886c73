package rules

import (
	"strings"

	"golang.org/x/text/cases"

	"labcheck/internal/dom"
	"labcheck/internal/selector"
)

// Predicate evaluates one condition against a scope (a document or a node).
type Predicate func(scope dom.Scope) Outcome

// New builds a rule evaluated against the whole document.
func New(name string, p Predicate) Rule {
	return Rule{
		Name:  name,
		Check: func(doc *dom.Document) Outcome { return p(doc) },
	}
}

// InScope builds a rule evaluated against the first element matching scope.
// When scope matches nothing the rule fails with "required section missing".
func InScope(name, scope string, p Predicate) Rule {
	sel := selector.MustParse(scope)
	return Rule{
		Name: name,
		Check: func(doc *dom.Document) Outcome {
			n, ok := doc.QueryOne(sel)
			if !ok {
				return MissingScope(scope)
			}
			return p(n)
		},
	}
}

// Exists passes when sel matches at least one element.
func Exists(expr string) Predicate {
	sel := selector.MustParse(expr)
	return func(scope dom.Scope) Outcome {
		if _, ok := scope.QueryOne(sel); !ok {
			return Fail("no element matches %q", expr)
		}
		return Pass("found %q", expr)
	}
}

// AtLeast passes when sel matches n or more elements. The bound is inclusive.
func AtLeast(expr string, n int) Predicate {
	sel := selector.MustParse(expr)
	return func(scope dom.Scope) Outcome {
		got := len(scope.Query(sel))
		if got < n {
			return Fail("found %d %q, want at least %d", got, expr, n)
		}
		return Pass("found %d %q", got, expr)
	}
}

// SumAtLeast passes when the match counts of all exprs add up to n or more.
func SumAtLeast(n int, exprs ...string) Predicate {
	sels := make([]*selector.Selector, len(exprs))
	for i, e := range exprs {
		sels[i] = selector.MustParse(e)
	}
	return func(scope dom.Scope) Outcome {
		total := 0
		for _, s := range sels {
			total += len(scope.Query(s))
		}
		what := strings.Join(exprs, " + ")
		if total < n {
			return Fail("found %d of %s, want at least %d", total, what, n)
		}
		return Pass("found %d of %s", total, what)
	}
}

// AnyScopeHas passes when at least one element matching outer contains an
// element matching inner.
func AnyScopeHas(outer, inner string) Predicate {
	o, i := selector.MustParse(outer), selector.MustParse(inner)
	return func(scope dom.Scope) Outcome {
		scopes := scope.Query(o)
		if len(scopes) == 0 {
			return Fail("no element matches %q", outer)
		}
		for _, s := range scopes {
			if _, ok := s.QueryOne(i); ok {
				return Pass("%q contains %q", outer, inner)
			}
		}
		return Fail("no %q contains %q", outer, inner)
	}
}

// EveryScopeHas passes when there is at least one element matching outer
// and each of them contains an element matching inner.
func EveryScopeHas(outer, inner string) Predicate {
	o, i := selector.MustParse(outer), selector.MustParse(inner)
	return func(scope dom.Scope) Outcome {
		scopes := scope.Query(o)
		if len(scopes) == 0 {
			return Fail("no element matches %q", outer)
		}
		missing := 0
		for _, s := range scopes {
			if _, ok := s.QueryOne(i); !ok {
				missing++
			}
		}
		if missing > 0 {
			return Fail("%d of %d %q lack %q", missing, len(scopes), outer, inner)
		}
		return Pass("all %d %q contain %q", len(scopes), outer, inner)
	}
}

// TextContains passes when the text of the first element matching expr
// contains any of words, compared with Unicode case folding.
func TextContains(expr string, words ...string) Predicate {
	sel := selector.MustParse(expr)
	return func(scope dom.Scope) Outcome {
		n, ok := scope.QueryOne(sel)
		if !ok {
			return Fail("no element matches %q", expr)
		}
		fold := cases.Fold()
		text := fold.String(n.Text())
		for _, w := range words {
			if strings.Contains(text, fold.String(w)) {
				return Pass("%q mentions %q", expr, w)
			}
		}
		return Fail("%q text %q mentions none of %q", expr, n.Text(), words)
	}
}

// NoPlaceholders passes when no element has token left in any of attrs
// (default: class). The token is matched as a raw substring of the attribute
// value, never per class token. A node scope is checked along with its
// descendants.
func NoPlaceholders(token string, attrs ...string) Predicate {
	if len(attrs) == 0 {
		attrs = []string{"class"}
	}
	every := selector.MustParse("*")
	return func(scope dom.Scope) Outcome {
		nodes := scope.Query(every)
		if root, ok := scope.(dom.Node); ok {
			nodes = append([]dom.Node{root}, nodes...)
		}
		left := 0
		for _, n := range nodes {
			for _, a := range attrs {
				if v, ok := n.Attr(a); ok && strings.Contains(v, token) {
					left++
					break
				}
			}
		}
		if left > 0 {
			return Fail("%d element(s) still contain placeholder %q", left, token)
		}
		return Pass("no placeholder %q left", token)
	}
}

// All passes when every predicate passes and returns the first failure
// otherwise.
func All(ps ...Predicate) Predicate {
	return func(scope dom.Scope) Outcome {
		var msgs []string
		for _, p := range ps {
			out := p(scope)
			if !out.Passed {
				return out
			}
			msgs = append(msgs, out.Message)
		}
		return Pass("%s", strings.Join(msgs, "; "))
	}
}
