// Package rules holds named structural rules and runs them against a document.
package rules

import (
	"errors"
	"fmt"

	"labcheck/internal/dom"
)

var (
	// ErrRuleFailed marks an outcome whose predicate evaluated false.
	ErrRuleFailed = errors.New("rule failed")

	// ErrMissingScope marks an outcome whose required section was absent.
	ErrMissingScope = errors.New("required section missing")
)

// Outcome is what a rule's check returns.
type Outcome struct {
	Passed  bool
	Message string

	// Err is nil on pass, otherwise ErrRuleFailed or ErrMissingScope.
	Err error
}

// Pass returns a passing outcome.
func Pass(format string, args ...any) Outcome {
	return Outcome{Passed: true, Message: fmt.Sprintf(format, args...)}
}

// Fail returns a failing outcome.
func Fail(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...), Err: ErrRuleFailed}
}

// MissingScope is the uniform outcome for a rule whose scope selector
// resolved to nothing.
func MissingScope(scope string) Outcome {
	return Outcome{
		Message: fmt.Sprintf("%s: %s", ErrMissingScope, scope),
		Err:     ErrMissingScope,
	}
}

// Rule is a named check. Check must not mutate the document.
type Rule struct {
	Name  string
	Check func(doc *dom.Document) Outcome
}

// Result is one rule's outcome in a report.
type Result struct {
	Rule    string `json:"rule"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Report holds one Result per registered rule, in registration order.
type Report struct {
	Source  string   `json:"source"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// OK reports whether every rule passed.
func (r Report) OK() bool { return r.Failed == 0 }

// Failures returns only the failed results.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// add appends res and keeps the counters in step.
func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
}

// LoadFailure is the report for a page that could not be read at all, used
// where a batch must continue past one bad file.
func LoadFailure(source string, err error) Report {
	var r Report
	r.Source = source
	r.add(Result{Rule: "load", Message: err.Error()})
	return r
}
