package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "grouptasks",
	Short: "Recurring group task scheduler",
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
