// Package notify simulates the lab page's scripted behaviour: transient
// alerts, form submission and tooltip/popover bootstrapping. It mutates a
// private copy of the page so tests can assert on the resulting markup.
package notify

import (
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"labcheck/internal/dom"
	"labcheck/internal/schedule"
	"labcheck/internal/selector"
)

const (
	// SuccessMessage is shown after a form submission.
	SuccessMessage = "Thank you for your message! Our community team will get back to you soon."

	// DefaultDismissDelay is how long a transient alert stays attached.
	DefaultDismissDelay = 5 * time.Second

	dynamicClass = "dynamic-alert"
)

var (
	// ErrNoForm is returned when a submit target matches no <form>.
	ErrNoForm = errors.New("no form matches")

	selDynamic = selector.MustParse("." + dynamicClass)
	selForm    = selector.MustParse("form")
	selTooltip = selector.MustParse(`[data-bs-toggle="tooltip"]`)
	selPopover = selector.MustParse(`[data-bs-toggle="popover"]`)
)

// Config controls a Page.
type Config struct {
	// Scheduler runs alert auto-dismissal. Nil means a virtual clock stopped at
	// the Unix epoch, advanced only by the caller.
	Scheduler schedule.Scheduler

	// DismissDelay defaults to DefaultDismissDelay.
	DismissDelay time.Duration

	Logger *slog.Logger
}

// Page is a live copy of a lab page.
type Page struct {
	doc   *goquery.Document
	sched schedule.Scheduler
	delay time.Duration
	log   *slog.Logger
}

// Event is the outcome of a simulated DOM event.
type Event struct {
	Type             string `json:"type"`
	Target           string `json:"target"`
	DefaultPrevented bool   `json:"default_prevented"`
}

// Alert is an attached transient notification.
type Alert struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Component is a bootstrapped tooltip or popover trigger.
type Component struct {
	Kind    string `json:"kind"`
	Trigger string `json:"trigger"`
	Content string `json:"content"`
}

// NewPage parses markup into a Page. A <body> is always present afterwards.
func NewPage(markup string, cfg Config) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = schedule.NewVirtual(time.Unix(0, 0).UTC())
	}
	if cfg.DismissDelay <= 0 {
		cfg.DismissDelay = DefaultDismissDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Page{doc: doc, sched: cfg.Scheduler, delay: cfg.DismissDelay, log: cfg.Logger}, nil
}

// ShowAlert replaces any transient alert with a new one and schedules its
// removal. Empty kind means "info".
func (p *Page) ShowAlert(message, kind string) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "info"
	}

	p.doc.FindMatcher(selDynamic).Remove()

	body := p.doc.Find("body")
	body.AppendHtml(fmt.Sprintf(
		`<div class="alert alert-%s alert-dismissible fade show %s" role="alert">%s`+
			`<button type="button" class="btn-close" data-bs-dismiss="alert" aria-label="Close"></button></div>`,
		html.EscapeString(kind), dynamicClass, html.EscapeString(message)))

	node := body.Children().Last().Get(0)
	p.log.Debug("alert shown", "kind", kind, "dismiss_after", p.delay)

	p.sched.After(p.delay, func() {
		node.Parent.RemoveChild(node)
		p.log.Debug("alert dismissed", "kind", kind)
	}, func() bool {
		return node.Parent != nil
	})
}

// SubmitForm handles a submit event on the first form matching expr. The
// default action is prevented, a success alert is shown and the form is reset.
func (p *Page) SubmitForm(expr string) (Event, error) {
	sel, err := selector.Parse(expr)
	if err != nil {
		return Event{}, err
	}
	form := p.doc.FindMatcher(sel).FilterMatcher(selForm).First()
	if form.Length() == 0 {
		return Event{}, fmt.Errorf("%w %q", ErrNoForm, expr)
	}
	return p.submit(form, expr), nil
}

// SubmitAll submits every form in document order. Each event targets the
// form's #id, or form[i] with i its document-order index.
func (p *Page) SubmitAll() []Event {
	var events []Event
	p.doc.FindMatcher(selForm).Each(func(i int, form *goquery.Selection) {
		target := fmt.Sprintf("form[%d]", i)
		if id, ok := form.Attr("id"); ok && id != "" {
			target = "#" + id
		}
		events = append(events, p.submit(form, target))
	})
	return events
}

func (p *Page) submit(form *goquery.Selection, target string) Event {
	p.ShowAlert(SuccessMessage, "success")
	reset(form)
	p.log.Debug("form submitted", "target", target)
	return Event{Type: "submit", Target: target, DefaultPrevented: true}
}

func reset(form *goquery.Selection) {
	form.Find("input").Each(func(_ int, in *goquery.Selection) {
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "checkbox", "radio":
			in.RemoveAttr("checked")
		case "submit", "button", "reset", "hidden", "image":
		default:
			in.SetAttr("value", "")
		}
	})
	form.Find("textarea").SetText("")
	form.Find("option").RemoveAttr("selected")
}

// InitComponents bootstraps every tooltip and popover trigger.
func (p *Page) InitComponents() []Component {
	var out []Component
	p.doc.FindMatcher(selTooltip).Each(func(_ int, s *goquery.Selection) {
		content := s.AttrOr("data-bs-title", s.AttrOr("title", ""))
		out = append(out, Component{Kind: "tooltip", Trigger: describe(s), Content: content})
	})
	p.doc.FindMatcher(selPopover).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Component{Kind: "popover", Trigger: describe(s), Content: s.AttrOr("data-bs-content", "")})
	})
	p.log.Debug("components initialised", "count", len(out))
	return out
}

func describe(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return "#" + id
	}
	return goquery.NodeName(s)
}

// Alerts returns the transient notifications currently attached.
func (p *Page) Alerts() []Alert {
	var out []Alert
	p.doc.FindMatcher(selDynamic).Each(func(_ int, s *goquery.Selection) {
		a := Alert{Message: strings.TrimSpace(s.Text())}
		for _, c := range strings.Fields(s.AttrOr("class", "")) {
			if k, ok := strings.CutPrefix(c, "alert-"); ok && k != "dismissible" {
				a.Kind = k
				break
			}
		}
		out = append(out, a)
	})
	return out
}

// Snapshot returns the current markup as an immutable Document.
func (p *Page) Snapshot() *dom.Document {
	out, err := p.doc.Html()
	if err != nil {
		return dom.Parse("")
	}
	return dom.Parse(out)
}
