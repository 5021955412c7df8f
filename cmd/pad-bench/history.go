package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-liveness/internal/history"
	"github.com/jamesainslie/go-liveness/internal/report"
	"github.com/jamesainslie/go-liveness/internal/ui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sweep runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.Open(a.cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, ui.Dim.Render("no runs recorded"))
				return nil
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				id := r.ID
				if len(id) > 8 {
					id = id[:8]
				}
				rows[i] = []string{
					humanize.Time(r.CreatedAt),
					r.Dataset,
					r.Layout,
					humanize.Comma(int64(r.Samples)),
					fmt.Sprintf("%.4f @ %.3f", r.EER, r.EERThreshold),
					fmt.Sprintf("%.4f", r.MinACER),
					fmt.Sprintf("%.2f%%", r.Accuracy*100),
					id,
				}
			}
			fmt.Fprintln(a.out, report.Table(
				[]string{"When", "Dataset", "Layout", "Samples", "EER", "Min ACER", "Accuracy", "Run"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	return cmd
}
