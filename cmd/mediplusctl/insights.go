package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

func init() {
	var kind, view, month string
	var day int
	var local bool
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Print month insights, or insights for one vital with --kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsights(cmd.Context(), current.Insights, cmd.OutOrStdout(), kind, view, month, day, local)
		},
	}
	insightsCmd.Flags().StringVarP(&kind, "kind", "k", "", "vital kind; empty for the month overview")
	insightsCmd.Flags().StringVarP(&view, "view", "v", "month", "day, month or year")
	insightsCmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (defaults to the newest)")
	insightsCmd.Flags().IntVarP(&day, "day", "d", 1, "day of month for the day view")
	insightsCmd.Flags().BoolVar(&local, "local", false, "print the local month headline without calling the assistant")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(ctx context.Context, svc interfaces.InsightServiceInterface, w io.Writer, kind, view, month string, day int, local bool) error {
	if kind == "" {
		lookup := svc.MonthInsights
		if local {
			lookup = svc.LocalMonthInsights
		}
		res, err := lookup(ctx, month)
		if err != nil {
			return err
		}
		return printJSON(w, res)
	}
	k, err := vitals.ParseKind(kind)
	if err != nil {
		return err
	}
	res, err := svc.VitalInsights(ctx, k, month, vitals.ParseView(view), day)
	if err != nil {
		return err
	}
	return printJSON(w, res)
}
