package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"labcheck/internal/selector"
)

// DebugMode selects how PrintMatches renders each match.
type DebugMode int

const (
	DebugOuterHTML DebugMode = iota
	DebugText
	DebugMarkdown
)

// PrintMatches prints every match of sel, each followed by a blank line.
// This backs the command's "--selector" debug mode, used while authoring
// rules.
func PrintMatches(w io.Writer, doc *Document, sel *selector.Selector, mode DebugMode) error {
	var conv *converter.Converter
	if mode == DebugMarkdown {
		conv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)
	}

	for _, n := range doc.Query(sel) {
		var out string
		switch mode {
		case DebugText:
			out = n.Text()
		case DebugMarkdown:
			md, err := conv.ConvertString(n.OuterHTML())
			if err != nil {
				return fmt.Errorf("markdown %s: %w", sel, err)
			}
			out = strings.TrimSpace(md)
		default:
			out = n.OuterHTML()
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", out); err != nil {
			return err
		}
	}
	return nil
}
