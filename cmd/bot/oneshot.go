package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-training-bot/internal/bot"
	"go-training-bot/internal/utils"
)

func trainingCmd(configPath *string) *cobra.Command {
	var test bool
	cmd := &cobra.Command{
		Use:   "training",
		Short: "Publish next week's training posts once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			channelID := a.cfg.Channels.Training
			if test {
				channelID = a.cfg.Channels.TestTraining
			}
			cycle, err := a.bot.CreateCycle(cmd.Context(), channelID, bot.TriggerCLI)
			if err != nil {
				return err
			}
			for _, it := range cycle.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  message %s\n", it.Day.Label, it.Date.Format("02.01.2006"), it.MessageID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&test, "test", false, "publish in the test channel")
	return cmd
}

func remindCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remind [member]",
		Short: "Run one reminder pass, optionally for a single member",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID := ""
			if len(args) == 1 {
				id, ok := utils.ParseUserRef(args[0])
				if !ok {
					return fmt.Errorf("not a member id or mention: %q", args[0])
				}
				targetID = id
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.bot.Remind(cmd.Context(), targetID, bot.TriggerCLI)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if report.RunID == "" {
				fmt.Fprintln(out, "no current training posts")
				return nil
			}
			fmt.Fprintf(out, "run %s: %s\n", report.RunID, report)
			for _, res := range report.Results {
				fmt.Fprintf(out, "  %-20s %-9s %-7s %s %s\n", res.MemberName, res.Outcome, res.Via, strings.Join(res.Missing, ","), res.Reason)
			}
			return nil
		},
	}
}

func missingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "missing <weekday>",
		Short: "List members who have not voted for a training day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			day, ok := a.bot.DayByLabel(args[0])
			if !ok {
				return fmt.Errorf("%q is not a configured training day", args[0])
			}
			members, err := a.bot.Missing(cmd.Context(), day.Weekday)
			if err != nil {
				return err
			}
			for _, m := range members {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.ID, m.Name)
			}
			if len(members) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "everyone voted for %s\n", day.Label)
			}
			return nil
		},
	}
}
