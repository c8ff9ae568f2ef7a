// Package compare lines up each level's original SQL with its dbt
// conversion.
package compare

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Dallionking/levelchain/internal/chain"
	"github.com/Dallionking/levelchain/internal/pipeline"
)

// Fallbacks shown when the converter returned nothing for a level.
const (
	NoFilePath   = "No file path available"
	NoConversion = "No conversion available"
)

// Row is one level of the comparison.
type Row struct {
	Index       int
	OriginalSQL string
	DBT         string
	FilePath    string
}

// Rows builds one row per visible level that carries data, in index order.
func Rows(s chain.State, res pipeline.Result) []Row {
	rows := make([]Row, 0, len(s.Visible))
	for _, i := range s.Visible {
		if _, ok := s.Level(i); !ok {
			continue
		}
		r := Row{
			Index:       i,
			OriginalSQL: s.Levels[i].Query,
			DBT:         res.Models[i],
			FilePath:    res.FilePaths[i],
		}
		if r.DBT == "" {
			r.DBT = NoConversion
		}
		if r.FilePath == "" {
			r.FilePath = NoFilePath
		}
		rows = append(rows, r)
	}
	return rows
}

// Markdown renders rows as a markdown document with fenced SQL blocks.
func Markdown(rows []Row) string {
	var b strings.Builder
	b.WriteString("# dbt Model Comparison\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n## Level %d\n\n", r.Index)
		b.WriteString("### Original SQL\n\n")
		writeFence(&b, r.OriginalSQL)
		fmt.Fprintf(&b, "\n### %s\n\n", r.FilePath)
		writeFence(&b, r.DBT)
	}
	return b.String()
}

// writeFence wraps body in a fence one backtick longer than the longest
// backtick run inside it.
func writeFence(b *strings.Builder, body string) {
	fence := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	b.WriteString(fence + "sql\n")
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n" + fence + "\n")
}

func longestRun(s string, c rune) int {
	longest, run := 0, 0
	for _, r := range s {
		if r != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

// Render turns markdown into terminal output wrapped at width. With color
// disabled the notty style is used. On renderer failure the markdown is
// returned unchanged.
func Render(md string, width int, color bool) string {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
