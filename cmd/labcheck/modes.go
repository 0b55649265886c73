package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"labcheck/internal/config"
	"labcheck/internal/dom"
	"labcheck/internal/notify"
	"labcheck/internal/report"
	"labcheck/internal/rules"
	"labcheck/internal/schedule"
	"labcheck/internal/selector"
	"labcheck/internal/watch"
)

type command struct {
	cfg    *config.Config
	flags  flags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	cat    *rules.Catalog
}

func (c *command) input() dom.Input {
	return dom.Input{Path: c.cfg.Page, Stdin: c.stdin}
}

// checkPage loads the page once, runs every rule and renders the report.
func (c *command) checkPage(ctx context.Context) int {
	rep, err := c.check(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return 1
	}
	if !rep.OK() {
		return 1
	}
	return 0
}

func (c *command) check(ctx context.Context) (rules.Report, error) {
	doc, err := dom.Load(ctx, c.input())
	if err != nil {
		return rules.Report{}, err
	}

	rep := c.cat.Run(doc)
	c.logger.Info("check complete", "source", rep.Source, "passed", rep.Passed, "failed", rep.Failed)

	if err := c.render(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

func (c *command) render(rep rules.Report) error {
	if c.cfg.Format == config.FormatJSON {
		return report.JSON(c.stdout, rep)
	}
	return report.Text(c.stdout, rep, report.Options{Color: c.cfg.ColorEnabled()})
}

// checkDir streams one JSON report per page in the directory.
func (c *command) checkDir(ctx context.Context) int {
	failed, err := report.StreamDir(ctx, c.stdout, c.flags.dir, c.cat, report.NewEncoder(c.stdout))
	if err != nil {
		fmt.Fprintf(c.stderr, "dir check: %v\n", err)
		return 1
	}
	fmt.Fprintln(c.stdout)
	if failed > 0 {
		return 1
	}
	return 0
}

// debugSelector prints the matches of --selector.
func (c *command) debugSelector(ctx context.Context) int {
	sel, err := selector.Parse(c.flags.selector)
	if err != nil {
		fmt.Fprintf(c.stderr, "selector: %v\n", err)
		return 2
	}
	doc, err := dom.Load(ctx, c.input())
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return 1
	}

	mode := dom.DebugOuterHTML
	switch {
	case c.flags.text:
		mode = dom.DebugText
	case c.flags.markdown:
		mode = dom.DebugMarkdown
	}
	if err := dom.PrintMatches(c.stdout, doc, sel, mode); err != nil {
		fmt.Fprintf(c.stderr, "debug selector: %v\n", err)
		return 1
	}
	return 0
}

// watchPage checks the page, then re-checks on every save until ctx is done.
func (c *command) watchPage(ctx context.Context) int {
	if c.input().FromStdin() {
		fmt.Fprintf(c.stderr, "--watch needs a page path, not stdin\n")
		return 2
	}

	w, err := watch.New(c.cfg.Page, c.logger)
	if err != nil {
		fmt.Fprintf(c.stderr, "watch: %v\n", err)
		return 1
	}
	if _, err := c.check(ctx); err != nil {
		// The page may not exist yet; keep waiting for it.
		fmt.Fprintf(c.stderr, "%v\n", err)
	}

	c.logger.Info("watching", "path", w.Path())
	if err := w.Run(ctx, func(ctx context.Context) error {
		_, err := c.check(ctx)
		return err
	}); err != nil {
		fmt.Fprintf(c.stderr, "watch: %v\n", err)
		return 1
	}
	return 0
}

// Simulation is what --simulate prints.
type Simulation struct {
	Components     []notify.Component `json:"components"`
	Events         []notify.Event     `json:"events"`
	AfterSubmit    []notify.Alert     `json:"after_submit"`
	AfterDismissal []notify.Alert     `json:"after_dismissal"`
	DismissDelay   string             `json:"dismiss_delay"`
}

// simulateInteractions replays the page's scripted behaviour on a virtual
// clock: components are initialised, every form is submitted and the clock is
// advanced past the alert dismissal delay.
func (c *command) simulateInteractions(ctx context.Context) int {
	doc, err := dom.Load(ctx, c.input())
	if err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return 1
	}

	clock := schedule.NewVirtual(time.Unix(0, 0).UTC())
	page, err := notify.NewPage(doc.HTML(), notify.Config{
		Scheduler:    clock,
		DismissDelay: c.cfg.DismissDelay,
		Logger:       c.logger,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "simulate: %v\n", err)
		return 1
	}

	sim := Simulation{
		Components:   page.InitComponents(),
		Events:       page.SubmitAll(),
		DismissDelay: c.cfg.DismissDelay.String(),
	}
	sim.AfterSubmit = page.Alerts()
	clock.Advance(c.cfg.DismissDelay)
	sim.AfterDismissal = page.Alerts()

	if c.cfg.Format == config.FormatJSON {
		if err := report.NewEncoder(c.stdout).Encode(sim); err != nil {
			fmt.Fprintf(c.stderr, "encode simulation: %v\n", err)
			return 1
		}
		return 0
	}

	for _, comp := range sim.Components {
		fmt.Fprintf(c.stdout, "%s on %s: %s\n", comp.Kind, comp.Trigger, comp.Content)
	}
	for _, ev := range sim.Events {
		fmt.Fprintf(c.stdout, "%s %s (default prevented: %v)\n", ev.Type, ev.Target, ev.DefaultPrevented)
	}
	for _, a := range sim.AfterSubmit {
		fmt.Fprintf(c.stdout, "alert %s: %s\n", a.Kind, a.Message)
	}
	fmt.Fprintf(c.stdout, "%d alert(s) left after %s\n", len(sim.AfterDismissal), sim.DismissDelay)
	return 0
}
