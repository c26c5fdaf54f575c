package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func runsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent reminder runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			if a.journal == nil {
				return errors.New("journal.path is not configured")
			}

			out := cmd.OutOrStdout()
			cycles, err := a.journal.CountCycles(a.cfg.Channels.Training)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "cycles created in %s: %d\n", a.cfg.Channels.Training, cycles)

			runs, err := a.journal.RecentRuns(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %-8s delivered=%d skipped=%d\n",
					r.StartedAt.Format("02.01.2006 15:04"), r.RunID, r.Trigger, r.Delivered, r.Skipped)
				for _, o := range r.Outcomes {
					fmt.Fprintf(out, "    %-20s %-9s %-7s %s %s\n", o.MemberName, o.Outcome, o.Via, o.Missing, o.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
