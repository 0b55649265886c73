// Command labcheck checks a Bootstrap lab page against the layouts and
// components rule set and prints a report.
//
// Usage (check a page):
//
//	labcheck --page lab/index.html
//
// Usage (stdin, JSON report):
//
//	cat index.html | labcheck -p - --json
//
// Usage (directory mode, one JSON report per file):
//
//	labcheck --dir ./submissions
//
// Debug (print matches of a selector as text or Markdown):
//
//	labcheck -p index.html --selector '#about [class*="col"]' --text
//
// Re-check on every save:
//
//	labcheck -p lab/index.html --watch
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"labcheck/internal/bootstrap"
	"labcheck/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds parsed command-line values.
type flags struct {
	configPath string
	selector   string
	dir        string
	text       bool
	markdown   bool
	watch      bool
	simulate   bool
}

// run is split out from main so the command can be tested without spawning
// an OS process.
//
// It returns a Unix-style exit code:
//   - 0 when every rule passed
//   - 1 when a rule failed or on runtime errors
//   - 2 for usage/config errors
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("labcheck", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: labcheck [options] [page]\n\n")
		fmt.Fprintf(stderr, "Checks a Bootstrap lab page and reports each rule as PASS or FAIL.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	var f flags
	page := fs.StringP("page", "p", "", `Page to check ("-" for stdin; default from config)`)
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	asJSON := fs.BoolP("json", "j", false, "Print the report as JSON")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.StringVar(&f.dir, "dir", "", "Check every .html/.htm file in a directory (JSON array)")
	fs.StringVarP(&f.selector, "selector", "s", "", "Debug: print matches of a selector instead of checking")
	fs.BoolVar(&f.text, "text", false, "Debug: print the text of --selector matches")
	fs.BoolVar(&f.markdown, "markdown", false, "Debug: print --selector matches as Markdown")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Re-check the page whenever it changes")
	fs.BoolVar(&f.simulate, "simulate", false, "Run the page's scripted interactions and print the outcome")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default from config)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "too many arguments: %v\n", fs.Args())
		return 2
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}
	switch {
	case fs.Changed("page"):
		cfg.Page = *page
	case fs.NArg() == 1:
		cfg.Page = fs.Arg(0)
	}
	if *asJSON {
		cfg.Format = config.FormatJSON
	}
	if *noColor {
		off := false
		cfg.Color = &off
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	if f.text && f.markdown {
		fmt.Fprintf(stderr, "--text and --markdown are mutually exclusive\n")
		return 2
	}
	if (f.text || f.markdown) && f.selector == "" {
		fmt.Fprintf(stderr, "--text and --markdown require --selector\n")
		return 2
	}

	lvl, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))

	cat := bootstrap.LabCatalog(bootstrap.Options{
		Placeholder: cfg.Placeholder,
		BrandWords:  cfg.BrandWords,
		Logger:      logger,
	})

	c := &command{
		cfg:    cfg,
		flags:  f,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: logger,
		cat:    cat,
	}

	switch {
	case f.selector != "":
		return c.debugSelector(ctx)
	case f.dir != "":
		return c.checkDir(ctx)
	case f.simulate:
		return c.simulateInteractions(ctx)
	case f.watch:
		return c.watchPage(ctx)
	default:
		return c.checkPage(ctx)
	}
}
