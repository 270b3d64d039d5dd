package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/blockedby/flight-stats/internal/view"
)

// writeModel prints m the way the dashboard panel shows it.
func writeModel(out io.Writer, m view.Model) error {
	if _, err := fmt.Fprintf(out, "%s\n\n", m.Title); err != nil {
		return err
	}

	switch {
	case m.Loading:
		_, err := fmt.Fprintln(out, view.LoadingMessage)
		return err
	case m.Error != nil:
		_, err := fmt.Fprintf(out, "%s\n%s\n", m.Error.Title, m.Error.Message)
		return err
	case m.Empty:
		_, err := fmt.Fprintln(out, view.EmptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tTotal flights\tPaid\tPaid total\tCanceled\tCanceled total\t")
	for _, r := range m.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\t\n",
			r.Label, r.TotalFlights, r.PaidCount, r.PaidTotal, r.CanceledCount, r.CanceledTotal)
	}
	if s := m.Summary; s != nil {
		fmt.Fprintf(tw, "Total\t%d\t%d\t\t%d\t\t\n", s.TotalFlights, s.PaidCount, s.CanceledCount)
	}
	return tw.Flush()
}
