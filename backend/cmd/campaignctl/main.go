package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "campaignctl",
		Short:        "Administer the campaign graph",
		SilenceUsage: true,
	}
	root.AddCommand(schemaCmd())
	root.AddCommand(seedCmd())
	return root
}
