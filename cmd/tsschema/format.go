package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/k0kubun/pp/v3"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/jward/tsschema"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "yaml", "text", "pretty"}

// validateFormat checks that the --format value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return errors.Errorf("invalid format %q: must be one of %s", format, strings.Join(validFormats, ", "))
}

// printer writes command results in one output format.
type printer struct {
	w      io.Writer
	format string
}

// items writes a gathered mapping. The text format lists every Item and its
// members, one per line.
func (p *printer) items(items *tsschema.Items) error {
	switch p.format {
	case "text":
		tw := newTable(p.w)
		for _, it := range items.All() {
			it.Walk("", func(_ string, m *tsschema.Item) {
				writeItemLine(tw, m.ID, string(m.Kind), m.Type, m.Loc)
			})
		}
		return tw.Flush()
	case "pretty":
		// pp prints maps sorted by key, so the mapping goes through its
		// generic form.
		var v any
		data, err := json.Marshal(items)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.WithStack(err)
		}
		return p.value(v)
	}
	return p.value(items)
}

// rows writes saved Items.
func (p *printer) rows(rows []*tsschema.Row) error {
	if p.format == "text" {
		tw := newTable(p.w)
		for _, r := range rows {
			var loc *tsschema.Loc
			if r.File != "" {
				loc = &tsschema.Loc{File: r.File, Line: r.Line, Column: r.Column}
			}
			writeItemLine(tw, r.ItemID, r.Kind, r.Type, loc)
		}
		return tw.Flush()
	}
	out := make([]CLIItem, 0, len(rows))
	for _, r := range rows {
		ci, err := rowToCLI(r)
		if err != nil {
			return err
		}
		out = append(out, ci)
	}
	return p.value(out)
}

// summary writes a run summary.
func (p *printer) summary(s *CLISummary) error {
	if p.format != "text" {
		return p.value(s)
	}
	fmt.Fprintf(p.w, "Entry: %s\n", s.Entry)
	fmt.Fprintf(p.w, "Run: %d (%s)\n", s.RunID, s.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(p.w, "Items: %d\n", s.Total)
	fmt.Fprintln(p.w)
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOUNT")
	for _, k := range s.Kinds {
		fmt.Fprintf(tw, "%s\t%d\n", k.Kind, k.Count)
	}
	return tw.Flush()
}

// value writes v in a structured format.
func (p *printer) value(v any) error {
	switch p.format {
	case "yaml":
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.WithStack(err)
		}
		return enc.Close()
	case "pretty":
		pr := pp.New()
		pr.SetColoringEnabled(false)
		pr.SetExportedOnly(true)
		_, err := pr.Fprintln(p.w, v)
		return err
	default:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTYPE\tLOCATION")
	return tw
}

func writeItemLine(w io.Writer, id, kind, typ string, loc *tsschema.Loc) {
	where := "-"
	if loc != nil {
		where = fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
	}
	if kind == "" {
		kind = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, kind, typ, where)
}
