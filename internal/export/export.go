// Package export renders extraction results as CSV, JSON or a text table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/avana/avana/internal/extract"
)

// Format is an output format
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (must be table, csv or json)", s)
	}
}

// Write renders the result in the given format
func Write(w io.Writer, f Format, res *extract.Result) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res.Selected)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatTable, "":
		return WriteTable(w, res)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteCSV writes selected entries as Domain,Email,Type rows with a header
func WriteCSV(w io.Writer, selected []extract.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Domain", "Email", "Type"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range selected {
		if err := cw.Write([]string{e.Domain, e.Email, string(e.Type)}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSkippedCSV writes skipped addresses under an Email header
func WriteSkippedCSV(w io.Writer, skipped []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Email"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, s := range skipped {
		if err := cw.Write([]string{s}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full result as indented JSON
func WriteJSON(w io.Writer, res *extract.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// WriteTable writes selected entries, a per-domain breakdown and the totals
func WriteTable(w io.Writer, res *extract.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "DOMAIN\tEMAIL\tTYPE")
	fmt.Fprintln(tw, "------\t-----\t----")
	for _, e := range res.Selected {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Domain, e.Email, e.Type)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "DOMAIN\tTOTAL\tPRIORITY\tSELECTED\tSKIPPED")
	fmt.Fprintln(tw, "------\t-----\t-------\t--------\t-------")
	for _, d := range res.Domains {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", d.Domain, d.Total, d.Priority, d.Selected, d.Skipped)
	}
	fmt.Fprintln(tw)

	s := res.Summary
	fmt.Fprintf(tw, "Uploaded emails:\t%d\n", s.UniqueTotal)
	fmt.Fprintf(tw, "Selected:\t%d (%d priority)\n", s.SelectedCount, s.PriorityCount)
	fmt.Fprintf(tw, "Skipped:\t%d\n", s.SkippedCount)

	return tw.Flush()
}
