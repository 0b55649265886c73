package bootstrap

import (
	"labcheck/internal/dom"
	"labcheck/internal/selector"
)

// Exercise names the lab's sections.
type Exercise string

const (
	ExerciseNavbar  Exercise = "navbar"
	ExerciseHero    Exercise = "hero"
	ExerciseGrid    Exercise = "grid"
	ExerciseCards   Exercise = "cards"
	ExerciseForms   Exercise = "forms"
	ExerciseButtons Exercise = "buttons"
	ExerciseAlerts  Exercise = "alerts"
	ExerciseFooter  Exercise = "footer"
)

// Exercises lists the lab's sections in order.
var Exercises = []Exercise{
	ExerciseNavbar, ExerciseHero, ExerciseGrid, ExerciseCards,
	ExerciseForms, ExerciseButtons, ExerciseAlerts, ExerciseFooter,
}

type completion struct {
	sel *selector.Selector
	min int
}

var completions = map[Exercise]completion{
	ExerciseNavbar:  {selector.MustParse(".navbar"), 1},
	ExerciseHero:    {selector.MustParse(".hero-section, .jumbotron"), 1},
	ExerciseGrid:    {selector.MustParse(`.row .col, .row [class*="col-"]`), 3},
	ExerciseCards:   {selector.MustParse(".card"), 3},
	ExerciseForms:   {selector.MustParse("form"), 1},
	ExerciseButtons: {selector.MustParse(".btn"), 3},
	ExerciseAlerts:  {selector.MustParse(".alert"), 1},
	ExerciseFooter:  {selector.MustParse("footer, .footer"), 1},
}

// ExerciseComplete is a quick heuristic for whether an exercise looks done.
// It is coarser than the lab catalog. Unknown exercises are never complete.
func ExerciseComplete(scope dom.Scope, ex Exercise) bool {
	c, ok := completions[ex]
	if !ok {
		return false
	}
	return len(scope.Query(c.sel)) >= c.min
}
