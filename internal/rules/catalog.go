package rules

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"labcheck/internal/dom"
)

// Catalog is an ordered set of uniquely named rules.
type Catalog struct {
	rules  []Rule
	names  map[string]struct{}
	logger *slog.Logger
}

// NewCatalog returns an empty catalog. A nil logger discards output.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		names:  make(map[string]struct{}),
		logger: logger,
	}
}

// Register appends r. Empty names, nil checks and duplicate names are
// rejected.
func (c *Catalog) Register(r Rule) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("rules: empty rule name")
	}
	if r.Check == nil {
		return fmt.Errorf("rules: rule %q has nil check", name)
	}
	if _, dup := c.names[name]; dup {
		return fmt.Errorf("rules: duplicate rule name %q", name)
	}
	r.Name = name
	c.names[name] = struct{}{}
	c.rules = append(c.rules, r)
	return nil
}

// MustRegister registers every rule and panics on the first error. It is
// meant for catalogs defined in code.
func (c *Catalog) MustRegister(rs ...Rule) *Catalog {
	for _, r := range rs {
		if err := c.Register(r); err != nil {
			panic(err)
		}
	}
	return c
}

// Rules returns the registered rules in registration order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Len returns the number of registered rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Run evaluates every rule in registration order and never stops early. A
// rule that panics is recorded as failed; the run goes on.
func (c *Catalog) Run(doc *dom.Document) Report {
	log := c.logger.With("run_id", uuid.NewString(), "source", doc.Source())

	rep := Report{
		Source:  doc.Source(),
		Results: make([]Result, 0, len(c.rules)),
	}
	for _, r := range c.rules {
		out := evaluate(r, doc)
		if !out.Passed {
			log.Debug("rule failed", "rule", r.Name, "message", out.Message)
		}
		rep.add(Result{Rule: r.Name, Passed: out.Passed, Message: out.Message})
	}

	log.Debug("check complete", "rules", len(c.rules), "passed", rep.Passed, "failed", rep.Failed)
	return rep
}

func evaluate(r Rule, doc *dom.Document) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Fail("rule panicked: %v", p)
		}
	}()
	out = r.Check(doc)
	if !out.Passed && out.Err == nil {
		out.Err = ErrRuleFailed
	}
	return out
}
