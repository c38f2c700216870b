package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

func init() {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate two years of sample history when the store is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), current.Vitals, cmd.OutOrStdout())
		},
	}
	rootCmd.AddCommand(seedCmd)

	var kind, view, month string
	var day int
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Print an aggregated series of one vital",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeries(cmd.Context(), current.Vitals, cmd.OutOrStdout(), kind, view, month, day)
		},
	}
	seriesCmd.Flags().StringVarP(&kind, "kind", "k", "sugar", "vital kind, e.g. bp, hr, sugar, spo2, temp")
	seriesCmd.Flags().StringVarP(&view, "view", "v", "month", "day, month or year")
	seriesCmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (defaults to the newest)")
	seriesCmd.Flags().IntVarP(&day, "day", "d", 1, "day of month for the day view")
	rootCmd.AddCommand(seriesCmd)
}

func runSeed(ctx context.Context, svc interfaces.VitalsServiceInterface, w io.Writer) error {
	seeded, err := svc.SeedIfEmpty(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		_, err = fmt.Fprintln(w, "store already has samples, nothing to do")
		return err
	}
	all, err := svc.Samples(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "seeded %d samples\n", len(all))
	return err
}

func runSeries(ctx context.Context, svc interfaces.VitalsServiceInterface, w io.Writer, kind, view, month string, day int) error {
	k, err := vitals.ParseKind(kind)
	if err != nil {
		return err
	}
	points, err := svc.Series(ctx, k, vitals.ParseView(view), month, day)
	if err != nil {
		return err
	}
	return printJSON(w, points)
}
