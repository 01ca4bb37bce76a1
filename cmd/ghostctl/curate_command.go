package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/curation"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/repository"
)

func newCurateCommand(ctx *commandContext) *cobra.Command {
	var candidate domain.Candidate
	var category string

	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Dry-run the admission gate for a candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate.Category = domain.Category(category)

			return ctx.withStore(func(cfg *config.Config, items *repository.ItemRepository) error {
				gate := curation.NewGate(items, curation.PolicyFromConfig(cfg.Curation))
				decision, err := gate.Evaluate(cmd.Context(), candidate)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, decision)
				}

				verdict := "denied"
				if decision.Admitted {
					verdict = "admitted as " + string(decision.EntryStatus)
				}
				rows := [][]string{{"Verdict", verdict}}
				if decision.Rule != "" {
					rows = append(rows, []string{"Rule", decision.Rule}, []string{"Reason", decision.Reason})
				}
				if decision.MatchedTitle != "" {
					rows = append(rows,
						[]string{"Matched title", decision.MatchedTitle},
						[]string{"Similarity", fmt.Sprintf("%.1f", decision.Similarity)},
					)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&candidate.Source, "source", "oracle", "Source the candidate comes from")
	cmd.Flags().StringVar(&category, "category", "", "prompt_pack, automation_kit or bundle")
	cmd.Flags().StringVar(&candidate.Niche, "niche", "", "Target niche")
	cmd.Flags().StringVar(&candidate.Title, "title", "", "Candidate title")
	cmd.Flags().Float64Var(&candidate.Confidence, "confidence", 1, "Producer confidence in [0,1]")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
