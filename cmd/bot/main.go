package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configPath string
	rootCmd := &cobra.Command{
		Use:     "training-bot",
		Short:   "Weekly training polls, reminders and private channels for a Discord guild",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to bot.yaml")

	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(trainingCmd(&configPath))
	rootCmd.AddCommand(remindCmd(&configPath))
	rootCmd.AddCommand(missingCmd(&configPath))
	rootCmd.AddCommand(runsCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
