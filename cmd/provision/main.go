package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ai-chatbot-be/internal/bootstrap"
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Register catalog personas with the assistant backend",
		Long: "Syncs every persona in the catalog into the assistants table and creates a " +
			"backend assistant for each one that has no handle yet. --force recreates all of them.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "recreate backend assistants even if a handle exists")
	return cmd
}

func runProvision(cmd *cobra.Command, force bool) error {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := container.PersonaProvisioner.Provision(ctx, force)
	printSummary(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}
	if failed := countOutcome(results, service.ProvisionFailed); failed > 0 {
		return fmt.Errorf("%d persona(s) failed to provision", failed)
	}
	return nil
}

func printSummary(w io.Writer, results []service.ProvisionResult) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	for _, r := range results {
		switch r.Outcome {
		case service.ProvisionCreated:
			green.Fprintf(w, "created  %-22s %s\n", r.ModeId, r.Handle)
		case service.ProvisionUpdated:
			cyan.Fprintf(w, "updated  %-22s %s\n", r.ModeId, r.Handle)
		case service.ProvisionSkipped:
			yellow.Fprintf(w, "skipped  %-22s %s\n", r.ModeId, r.Handle)
		case service.ProvisionFailed:
			red.Fprintf(w, "failed   %-22s %v\n", r.ModeId, r.Err)
		}
	}

	fmt.Fprintf(w, "\n%d created, %d updated, %d skipped, %d failed\n",
		countOutcome(results, service.ProvisionCreated),
		countOutcome(results, service.ProvisionUpdated),
		countOutcome(results, service.ProvisionSkipped),
		countOutcome(results, service.ProvisionFailed),
	)
}

func countOutcome(results []service.ProvisionResult, outcome service.ProvisionOutcome) int {
	n := 0
	for _, r := range results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
