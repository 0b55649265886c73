// Package bootstrap analyses Bootstrap markup and defines the layouts and
// components lab rule set.
package bootstrap

import (
	"regexp"

	"labcheck/internal/dom"
	"labcheck/internal/selector"
)

var (
	reColumn = regexp.MustCompile(`^col(-\w+)?(-\d+)?$`)

	gridClasses = []string{"container", "container-fluid", "row", "col"}

	selNavbar     = selector.MustParse(".navbar")
	selBrand      = selector.MustParse(".navbar-brand")
	selNavbarNav  = selector.MustParse(".navbar-nav")
	selToggler    = selector.MustParse(".navbar-toggler")
	selNavLink    = selector.MustParse(".nav-link")
	selCard       = selector.MustParse(".card")
	selCardHeader = selector.MustParse(".card-header")
	selCardBody   = selector.MustParse(".card-body")
	selCardTitle  = selector.MustParse(".card-title")
	selCardText   = selector.MustParse(".card-text")
	selCardImages = selector.MustParse(".card img, .card-img-top")
	selForm       = selector.MustParse("form")
	selFormCtrl   = selector.MustParse(".form-control")
	selFormLabel  = selector.MustParse(".form-label")
	selButton     = selector.MustParse(".btn")
	selValidation = selector.MustParse(".is-valid, .is-invalid, .valid-feedback, .invalid-feedback")
)

// HasClasses reports whether n carries any of classes as a class token.
func HasClasses(n dom.Node, classes ...string) bool {
	for _, c := range classes {
		if n.HasClass(c) {
			return true
		}
	}
	return false
}

// IsGrid reports whether n uses a grid class: container, container-fluid,
// row, or a column class such as col, col-6 or col-md-4.
func IsGrid(n dom.Node) bool {
	for _, c := range n.Classes() {
		if reColumn.MatchString(c) {
			return true
		}
		for _, g := range gridClasses {
			if c == g {
				return true
			}
		}
	}
	return false
}

// CountComponents counts elements carrying the component class kind
// ("card", "btn", "alert", ...).
func CountComponents(scope dom.Scope, kind string) int {
	sel, err := selector.Parse("." + kind)
	if err != nil {
		return 0
	}
	return len(scope.Query(sel))
}

// NavbarAnalysis describes the first navbar of a page.
type NavbarAnalysis struct {
	Exists     bool `json:"exists"`
	Brand      bool `json:"brand"`
	Nav        bool `json:"nav"`
	Responsive bool `json:"responsive"`
	HasLinks   bool `json:"has_links"`
}

// AnalyzeNavbar inspects the first .navbar.
func AnalyzeNavbar(scope dom.Scope) NavbarAnalysis {
	nav, ok := scope.QueryOne(selNavbar)
	if !ok {
		return NavbarAnalysis{}
	}
	return NavbarAnalysis{
		Exists:     true,
		Brand:      has(nav, selBrand),
		Nav:        has(nav, selNavbarNav),
		Responsive: has(nav, selToggler),
		HasLinks:   has(nav, selNavLink),
	}
}

// CardAnalysis summarises the cards of a page. A card is well structured when
// it has a .card-body and either a .card-title or a .card-text.
type CardAnalysis struct {
	Total          int  `json:"total"`
	WellStructured int  `json:"well_structured"`
	WithHeader     int  `json:"with_header"`
	HasImages      bool `json:"has_images"`
}

// AnalyzeCards inspects every .card.
func AnalyzeCards(scope dom.Scope) CardAnalysis {
	var a CardAnalysis
	for _, card := range scope.Query(selCard) {
		a.Total++
		if has(card, selCardHeader) {
			a.WithHeader++
		}
		if has(card, selCardBody) && (has(card, selCardTitle) || has(card, selCardText)) {
			a.WellStructured++
		}
	}
	a.HasImages = len(scope.Query(selCardImages)) > 0
	return a
}

// FormAnalysis describes the first form of a page.
type FormAnalysis struct {
	Exists          bool `json:"exists"`
	HasFormControls bool `json:"has_form_controls"`
	HasLabels       bool `json:"has_labels"`
	HasButtons      bool `json:"has_buttons"`
	HasValidation   bool `json:"has_validation"`
}

// AnalyzeForm inspects the first form.
func AnalyzeForm(scope dom.Scope) FormAnalysis {
	form, ok := scope.QueryOne(selForm)
	if !ok {
		return FormAnalysis{}
	}
	return FormAnalysis{
		Exists:          true,
		HasFormControls: has(form, selFormCtrl),
		HasLabels:       has(form, selFormLabel),
		HasButtons:      has(form, selButton),
		HasValidation:   has(form, selValidation),
	}
}

func has(n dom.Node, sel *selector.Selector) bool {
	_, ok := n.QueryOne(sel)
	return ok
}
