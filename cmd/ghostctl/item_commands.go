package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/pipeline"
	"github.com/timmy/ghostline/internal/repository"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter domain.ItemStatus
			if status != "" {
				parsed, err := domain.ParseItemStatus(status)
				if err != nil {
					return err
				}
				filter = parsed
			}

			return ctx.withStore(func(_ *config.Config, items *repository.ItemRepository) error {
				list, err := items.ListByStatus(cmd.Context(), filter, limit, offset)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if list == nil {
						list = []domain.WorkItem{}
					}
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No items")
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, it := range list {
					created := it.CreatedAt
					rows = append(rows, []string{
						it.ID,
						string(it.Status),
						it.Category.Label(),
						formatPrice(it.Price, it.Currency),
						truncate(it.Title, 48),
						formatTime(&created),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Category", "Price", "Title", "Created"}, rows, 3))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only items in this status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of items")
	cmd.Flags().IntVar(&offset, "offset", 0, "Items to skip")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, items *repository.ItemRepository) error {
				item, err := items.GetByID(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("item %s: %w", args[0], err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, item)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, itemRows(item)))
				return nil
			})
		},
	}
}

func itemRows(it *domain.WorkItem) [][]string {
	created := it.CreatedAt
	updated := it.UpdatedAt
	rows := [][]string{
		{"ID", it.ID},
		{"Status", string(it.Status)},
		{"Source", it.Source},
		{"Title", it.Title},
		{"Category", it.Category.Label()},
		{"Niche", it.Niche},
		{"Price", formatPrice(it.Price, it.Currency)},
		{"Confidence", fmt.Sprintf("%.2f", it.Confidence)},
		{"Tags", strings.Join(it.Tags, ", ")},
		{"External ID", it.ExternalID},
		{"Image", it.ImageURL},
		{"Image source", string(it.ImageSource)},
		{"Description source", string(it.DescriptionSource)},
		{"Has content", fmt.Sprintf("%t", it.HasContent)},
		{"Created", formatTime(&created)},
		{"Updated", formatTime(&updated)},
		{"Processing since", formatTime(it.ProcessingStartedAt)},
		{"Published", formatTime(it.PublishedAt)},
		{"Failed", formatTime(it.FailedAt)},
	}
	if it.Metrics != nil {
		rows = append(rows,
			[]string{"Est. cost", fmt.Sprintf("%.2f", it.Metrics.EstimatedCost)},
			[]string{"Est. profit", fmt.Sprintf("%.2f - %.2f", it.Metrics.EstimatedProfitLow, it.Metrics.EstimatedProfitHigh)},
			[]string{"Popularity days", fmt.Sprintf("%d", it.Metrics.PopularityDays)},
		)
	}
	if it.ErrorDetail != nil {
		rows = append(rows, []string{"Error", fmt.Sprintf("[%s] %s", it.ErrorDetail.Step, it.ErrorDetail.Message)})
	}
	return rows
}

type itemAction func(ctx context.Context, id string) (*domain.WorkItem, error)

// newOperatorCommands builds the manual transition commands.
func newOperatorCommands(ctx *commandContext) []*cobra.Command {
	specs := []struct {
		use   string
		short string
		pick  func(*pipeline.Operator) itemAction
	}{
		{"approve", "Approve a draft (draft -> qa_passed)", func(o *pipeline.Operator) itemAction { return o.Approve }},
		{"reset", "Requeue a failed or stuck item (-> qa_passed)", func(o *pipeline.Operator) itemAction { return o.Reset }},
		{"release", "Release an item held for review (pending_review -> pending)", func(o *pipeline.Operator) itemAction { return o.Release }},
		{"archive", "Archive an item before it reaches qa_passed", func(o *pipeline.Operator) itemAction { return o.Archive }},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		spec := spec
		cmds = append(cmds, &cobra.Command{
			Use:   spec.use + " <id>",
			Short: spec.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withStore(func(_ *config.Config, items *repository.ItemRepository) error {
					action := spec.pick(pipeline.NewOperator(items))
					item, err := action(cmd.Context(), args[0])
					if err != nil {
						return fmt.Errorf("%s %s: %w", spec.use, args[0], err)
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, item)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is now %s\n", item.ID, item.Status)
					return nil
				})
			},
		})
	}
	return cmds
}
