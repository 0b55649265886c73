package bootstrap

import (
	"log/slog"

	"labcheck/internal/dom"
	"labcheck/internal/rules"
	"labcheck/internal/selector"
)

const (
	columns           = `[class*="col"]`
	responsiveColumns = `[class*="col-sm"], [class*="col-md"], [class*="col-lg"], [class*="col-xl"]`
	displayHeadings   = ".display-1, .display-2, .display-3, .display-4, .display-5, .display-6"
	buttonVariants    = ".btn-primary, .btn-secondary, .btn-success, .btn-warning, .btn-danger, .btn-info, .btn-light, .btn-dark"
	alertVariants     = ".alert-primary, .alert-secondary, .alert-success, .alert-warning, .alert-danger, .alert-info"
)

// Options tunes the lab catalog.
type Options struct {
	// Placeholder is the marker students must replace. Default "****".
	Placeholder string

	// BrandWords are accepted in the navbar brand text. Default "community".
	BrandWords []string

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Placeholder == "" {
		o.Placeholder = selector.PlaceholderToken
	}
	if len(o.BrandWords) == 0 {
		o.BrandWords = []string{"community"}
	}
}

// LabCatalog returns the layouts and components lab checklist: eight
// exercises, each closed by a placeholder check on its section.
func LabCatalog(opts Options) *rules.Catalog {
	opts.defaults()
	ph := opts.Placeholder

	return rules.NewCatalog(opts.Logger).MustRegister(
		// Exercise 1: navigation bar.
		rules.New("navbar/present", rules.Exists(".navbar")),
		rules.New("navbar/brand", rules.TextContains(".navbar-brand", opts.BrandWords...)),
		rules.New("navbar/links", rules.AtLeast(".nav-link", 2)),
		rules.New("responsive/navbar-toggler", rules.Exists(".navbar-toggler")),
		rules.InScope("navbar/placeholders", "nav", rules.NoPlaceholders(ph)),

		// Exercise 2: hero section.
		rules.New("hero/section", rules.Exists(".hero-section, .jumbotron, .bg-primary, .bg-light")),
		rules.InScope("hero/display-heading", "#home", rules.Exists(displayHeadings)),
		rules.InScope("hero/lead", "#home", rules.Exists(".lead")),
		rules.InScope("hero/container", "#home", rules.Exists(".container, .container-fluid")),
		rules.InScope("hero/placeholders", "#home", rules.NoPlaceholders(ph)),

		// Exercise 3: main content grid.
		rules.InScope("grid/rows-and-columns", "#about", rules.All(
			rules.AtLeast(".row", 1),
			rules.AtLeast(columns, 2),
		)),
		rules.InScope("grid/responsive-columns", "#about", rules.AtLeast(responsiveColumns, 1)),
		rules.InScope("grid/nesting", "#about", rules.AnyScopeHas(".row", columns)),
		rules.InScope("grid/placeholders", "#about", rules.NoPlaceholders(ph)),

		// Exercise 4: cards.
		rules.New("cards/count", rules.AtLeast(".card", 3)),
		rules.New("cards/structure", cardStructure(3, 2)),
		rules.New("cards/headers-or-images", rules.SumAtLeast(1, ".card-header", ".card-img-top, .card img")),
		rules.New("cards/in-grid", rules.AtLeast(`.row .card, [class*="col"] .card`, 2)),
		rules.InScope("cards/placeholders", "#connect", rules.NoPlaceholders(ph)),

		// Exercise 5: forms.
		rules.New("forms/form", rules.AtLeast("form", 1)),
		rules.New("forms/controls", rules.AtLeast(".form-control", 2)),
		rules.InScope("forms/labels", "#contact", rules.AtLeast(".form-label, label", 2)),
		rules.InScope("forms/submit", "#contact", rules.Exists(`button[type="submit"], input[type="submit"], .btn`)),
		rules.New("forms/structure", formStructure),
		rules.InScope("forms/placeholders", "#contact", rules.NoPlaceholders(ph)),

		// Exercise 6: buttons and components.
		rules.InScope("buttons/variants", "#take-action", rules.All(
			rules.AtLeast(".btn", 3),
			rules.AtLeast(buttonVariants, 2),
		)),
		rules.New("buttons/group", rules.AtLeast(".btn-group, .btn-toolbar", 1)),
		rules.New("buttons/components", rules.SumAtLeast(2, ".badge", ".progress")),
		rules.InScope("buttons/placeholders", "#take-action", rules.NoPlaceholders(ph)),

		// Exercise 7: alerts.
		rules.New("alerts/present", rules.AtLeast(".alert", 1)),
		rules.New("alerts/dismissible", rules.AtLeast(".alert-dismissible", 1)),
		rules.New("alerts/types", rules.AtLeast(alertVariants, 1)),
		rules.InScope("alerts/placeholders", "#alerts", rules.NoPlaceholders(ph, "class", "data-bs-dismiss")),

		// Exercise 8: footer.
		rules.New("footer/present", rules.Exists("#footer")),
		rules.InScope("footer/placeholders", "#footer", rules.NoPlaceholders(ph)),
	)
}

func cardStructure(total, wellStructured int) rules.Predicate {
	return func(scope dom.Scope) rules.Outcome {
		a := AnalyzeCards(scope)
		if a.Total < total {
			return rules.Fail("found %d cards, want at least %d", a.Total, total)
		}
		if a.WellStructured < wellStructured {
			return rules.Fail("%d of %d cards have a .card-body with a title or text, want at least %d",
				a.WellStructured, a.Total, wellStructured)
		}
		return rules.Pass("%d of %d cards well structured", a.WellStructured, a.Total)
	}
}

func formStructure(scope dom.Scope) rules.Outcome {
	a := AnalyzeForm(scope)
	switch {
	case !a.Exists:
		return rules.Fail("no form")
	case !a.HasFormControls:
		return rules.Fail("first form has no .form-control")
	case !a.HasButtons:
		return rules.Fail("first form has no .btn")
	}
	return rules.Pass("first form has controls and buttons")
}
