package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"loremaster/backend/internal/repository"
	"loremaster/backend/internal/seed"
	"loremaster/backend/pkg/logger"
)

func seedCmd() *cobra.Command {
	var file string
	var actor string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create worlds and campaign content from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, file, actor, dryRun)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Seed file to load")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded as created_by")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSeed(cmd *cobra.Command, file, actor string, dryRun bool) error {
	f, err := seed.Load(file)
	if err != nil {
		return err
	}
	if dryRun {
		printSummary(cmd.OutOrStdout(), "Would create", plan(f))
		return nil
	}

	ctx := context.Background()
	exec, cfg, err := openGraph(ctx)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)
	defer logger.Sync()

	repos := repository.NewRepositories(exec,
		repository.WithGraphLimits(cfg.GraphMaxDepth, cfg.GraphSampleLimit),
		repository.WithPageLimits(cfg.DefaultPageSize, cfg.MaxPageSize),
	)
	sum, err := seed.Apply(ctx, repos, f, actor)
	printSummary(cmd.OutOrStdout(), "Created", sum)
	return err
}

// plan counts what Apply would create
func plan(f *seed.File) seed.Summary {
	var sum seed.Summary
	for _, w := range f.Worlds {
		sum.Worlds++
		for _, c := range w.Campaigns {
			sum.Campaigns++
			sum.Sessions += len(c.Sessions)
			sum.Locations += len(c.Locations)
			sum.Characters += len(c.Characters)
		}
	}
	return sum
}

func printSummary(w io.Writer, verb string, sum seed.Summary) {
	fmt.Fprintf(w, "%s %d worlds, %d campaigns, %d sessions, %d locations, %d characters.\n",
		verb, sum.Worlds, sum.Campaigns, sum.Sessions, sum.Locations, sum.Characters)
}
