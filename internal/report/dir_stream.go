package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"labcheck/internal/dom"
	"labcheck/internal/rules"
)

// StreamDir checks every .html/.htm file in dir and streams a single JSON
// array of reports to w, one per file.
//
// Behavior:
//   - stable ordering by filename
//   - Source is the file's base name
//   - an unreadable file yields a report with a single failed "load" result
//     instead of aborting the batch
//
// It returns the number of reports with at least one failure.
func StreamDir(ctx context.Context, w io.Writer, dir string, cat *rules.Catalog, enc *json.Encoder) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if _, err := io.WriteString(w, "["); err != nil {
		return 0, fmt.Errorf("write [: %w", err)
	}

	failed := 0
	first := true
	for _, e := range entries {
		if e.IsDir() || !isMarkup(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		var rep rules.Report
		doc, err := dom.Load(ctx, dom.Input{Path: filepath.Join(dir, e.Name())})
		if err != nil {
			rep = rules.LoadFailure(e.Name(), err)
		} else {
			rep = cat.Run(doc)
			rep.Source = e.Name()
		}
		if !rep.OK() {
			failed++
		}

		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return failed, fmt.Errorf("write comma: %w", err)
			}
		}
		first = false
		if err := enc.Encode(rep); err != nil {
			return failed, fmt.Errorf("encode report: %w", err)
		}
	}

	if _, err := io.WriteString(w, "]"); err != nil {
		return failed, fmt.Errorf("write ]: %w", err)
	}
	return failed, nil
}

func isMarkup(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
