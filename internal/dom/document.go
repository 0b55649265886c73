package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"labcheck/internal/selector"
)

// Scope is anything rules can query: a whole Document or a Node subtree.
type Scope interface {
	Query(sel *selector.Selector) []Node
	QueryOne(sel *selector.Selector) (Node, bool)
}

// Document is a parsed page. It is not mutated by queries, so a single
// Document can be shared by every rule of a run.
type Document struct {
	doc    *goquery.Document
	source string
}

// Parse builds a Document from markup. Parsing never fails: malformed input is
// recovered the way browsers do (implicit html/head/body, unclosed tags).
func Parse(markup string) *Document {
	return parseNamed(markup, "")
}

func parseNamed(markup, source string) *Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// Only reader errors surface here; keep a valid empty tree.
		doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return &Document{doc: doc, source: source}
}

// Source is the path the document was loaded from ("-" for stdin, "" when
// built with Parse).
func (d *Document) Source() string { return d.source }

// Query returns every element matching sel in document order. No match
// yields an empty slice.
func (d *Document) Query(sel *selector.Selector) []Node {
	return nodesOf(d.doc.FindMatcher(sel))
}

// QueryOne returns the first element matching sel in document order.
func (d *Document) QueryOne(sel *selector.Selector) (Node, bool) {
	return first(d.doc.FindMatcher(sel))
}

// HTML renders the document back to markup.
func (d *Document) HTML() string {
	out, err := d.doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// Node is a single element. The zero Node is "not found".
type Node struct {
	sel *goquery.Selection
}

// IsZero reports whether n is the "not found" sentinel.
func (n Node) IsZero() bool { return n.sel == nil || n.sel.Length() == 0 }

// HTMLNode exposes the underlying parser node.
func (n Node) HTMLNode() *html.Node {
	if n.IsZero() {
		return nil
	}
	return n.sel.Get(0)
}

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if n.IsZero() {
		return ""
	}
	return goquery.NodeName(n.sel)
}

// Attr returns the value of attribute key.
func (n Node) Attr(key string) (string, bool) {
	if n.IsZero() {
		return "", false
	}
	return n.sel.Attr(key)
}

// Attributes returns a copy of the element's attributes.
func (n Node) Attributes() map[string]string {
	out := make(map[string]string)
	if hn := n.HTMLNode(); hn != nil {
		for _, a := range hn.Attr {
			out[a.Key] = a.Val
		}
	}
	return out
}

// Classes returns the class attribute split into tokens.
func (n Node) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether class is one of the element's class tokens.
func (n Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the element's text content with surrounding whitespace trimmed.
func (n Node) Text() string {
	if n.IsZero() {
		return ""
	}
	return strings.TrimSpace(n.sel.Text())
}

// OuterHTML renders the element itself.
func (n Node) OuterHTML() string {
	if n.IsZero() {
		return ""
	}
	out, err := goquery.OuterHtml(n.sel)
	if err != nil {
		return ""
	}
	return out
}

// Parent returns the parent element, if any.
func (n Node) Parent() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	return first(n.sel.Parent())
}

// Children returns the child elements in order.
func (n Node) Children() []Node {
	if n.IsZero() {
		return nil
	}
	return nodesOf(n.sel.Children())
}

// Query returns the descendants of n matching sel. Descendant combinators may
// be satisfied by ancestors outside n, as with querySelectorAll.
func (n Node) Query(sel *selector.Selector) []Node {
	if n.IsZero() {
		return nil
	}
	return nodesOf(n.sel.FindMatcher(sel))
}

// QueryOne returns the first descendant of n matching sel.
func (n Node) QueryOne(sel *selector.Selector) (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	return first(n.sel.FindMatcher(sel))
}

func nodesOf(s *goquery.Selection) []Node {
	out := make([]Node, 0, s.Length())
	s.Each(func(_ int, one *goquery.Selection) {
		out = append(out, Node{sel: one})
	})
	return out
}

func first(s *goquery.Selection) (Node, bool) {
	if s.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: s.First()}, true
}
