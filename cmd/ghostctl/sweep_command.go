package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/pipeline"
	"github.com/timmy/ghostline/internal/repository"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var (
		staleAfter time.Duration
		action     string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Resolve processing items whose lease has expired",
		Long: "Fails or requeues items that have been in processing longer than the stale threshold.\n" +
			"Defaults come from pipeline.stale_after and pipeline.stale_action.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, items *repository.ItemRepository) error {
				policy := pipeline.SweepPolicy{
					StaleAfter: cfg.Pipeline.StaleAfter,
					Action:     cfg.Pipeline.StaleAction,
				}
				if cmd.Flags().Changed("stale-after") {
					policy.StaleAfter = staleAfter
				}
				if cmd.Flags().Changed("action") {
					policy.Action = action
				}
				switch policy.Action {
				case config.StaleActionFail, config.StaleActionRequeue:
				default:
					return fmt.Errorf("--action: want %q or %q, got %q",
						config.StaleActionFail, config.StaleActionRequeue, policy.Action)
				}

				sweeper := pipeline.NewSweeper(items, policy)
				if !sweeper.Enabled() {
					return fmt.Errorf("sweep disabled: set --stale-after or pipeline.stale_after")
				}
				res, err := sweeper.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Swept leases older than %s: %d failed, %d requeued, %d lost to a concurrent writer\n",
					policy.StaleAfter, res.Failed, res.Requeued, res.Lost)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "Lease age after which a processing item is stale")
	cmd.Flags().StringVar(&action, "action", "", "fail or requeue")
	return cmd
}
