package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/you/subwayviz/aggregate"
	"github.com/you/subwayviz/models"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals <station>",
	Short: "Fetches realtime arrivals for a station and prints the aggregates",
	Args:  cobra.ExactArgs(1),
	RunE:  printArrivals,
}

func printArrivals(cmd *cobra.Command, args []string) error {
	records, err := newFetcher().Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	writeReport(cmd.OutOrStdout(), records)
	return nil
}

func writeReport(w io.Writer, records []models.ArrivalRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "%s - %s\n", r.LineName, r.ArrivalMessage)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Minutes:", aggregate.Minutes(records))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arrivals by line:")
	for _, c := range aggregate.CountByLine(records).Lines {
		fmt.Fprintf(w, "  %s: %d\n", c.Line, c.Count)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arrival histogram:")
	for _, b := range aggregate.BucketizeMinutes(records).Buckets {
		fmt.Fprintf(w, "  %s: %d\n", b.Label(), b.Count)
	}
}
