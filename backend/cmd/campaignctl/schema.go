package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"loremaster/backend/internal/graph"
	"loremaster/backend/pkg/logger"
)

func schemaCmd() *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create id constraints and name indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				for _, stmt := range graph.SchemaStatements() {
					fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
				}
				return nil
			}
			return runSchema(cmd)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the statements instead of applying them")
	return cmd
}

func runSchema(cmd *cobra.Command) error {
	ctx := context.Background()

	exec, _, err := openGraph(ctx)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)
	defer logger.Sync()

	applied, err := graph.SchemaApplied(ctx, exec)
	if err != nil {
		return err
	}
	if err := graph.EnsureSchema(ctx, exec, logger.Named("schema")); err != nil {
		return err
	}
	if applied {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema %s re-applied.\n", graph.SchemaVersion)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema %s applied.\n", graph.SchemaVersion)
	}
	return nil
}
