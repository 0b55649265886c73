// Package dom loads static HTML pages into queryable documents.
package dom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrLoad is the kind of every LoadError; test with errors.Is.
var ErrLoad = errors.New("load markup")

// LoadError reports markup that could not be read. It is the only fatal error
// of a check run.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", ErrLoad, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Input describes where markup should come from.
type Input struct {
	// Path is read from disk. Empty or "-" means Stdin.
	Path string

	// Stdin is used when Path is empty or "-". If nil, stdin reads as empty.
	Stdin io.Reader
}

// FromStdin reports whether in reads standard input.
func (in Input) FromStdin() bool {
	p := strings.TrimSpace(in.Path)
	return p == "" || p == "-"
}

// Load reads the markup described by in and parses it. Read failures are
// returned as *LoadError; parsing itself never fails.
func Load(ctx context.Context, in Input) (*Document, error) {
	markup, source, err := read(ctx, in)
	if err != nil {
		return nil, err
	}
	return parseNamed(markup, source), nil
}

func read(ctx context.Context, in Input) (markup, source string, err error) {
	source = "-"
	if !in.FromStdin() {
		source = in.Path
	}
	if err := ctx.Err(); err != nil {
		return "", source, &LoadError{Source: source, Err: err}
	}

	if in.FromStdin() {
		if in.Stdin == nil {
			return "", source, nil
		}
		b, err := io.ReadAll(in.Stdin)
		if err != nil {
			return "", source, &LoadError{Source: source, Err: fmt.Errorf("read stdin: %w", err)}
		}
		return string(b), source, nil
	}

	b, err := os.ReadFile(in.Path)
	if err != nil {
		return "", source, &LoadError{Source: source, Err: err}
	}
	return string(b), source, nil
}
