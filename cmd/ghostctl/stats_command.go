package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/repository"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count work items per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, items *repository.ItemRepository) error {
				counts, err := items.CountByStatus(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, counts)
				}

				var total int64
				rows := make([][]string, 0, len(domain.ItemLifecycle.States())+1)
				for _, status := range domain.ItemLifecycle.States() {
					total += counts[status]
					rows = append(rows, []string{string(status), formatCount(counts[status])})
				}
				rows = append(rows, []string{"total", formatCount(total)})
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}
