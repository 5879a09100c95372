package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"conveyor/internal/config"
	"conveyor/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item's drafts, publications, metrics, and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				item, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("no item with id %s", args[0])
				}

				fmt.Fprintf(out, "Item:    %s\n", item.ID)
				fmt.Fprintf(out, "Title:   %s\n", item.Title)
				fmt.Fprintf(out, "Status:  %s\n", item.Status)
				fmt.Fprintf(out, "Source:  %s\n", item.SourcePath)
				fmt.Fprintf(out, "Stage:   %s (%s, %.0f%%)\n", item.ProgressStage, item.ProgressMessage, item.ProgressPercent)
				if item.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:   %s\n", item.ErrorMessage)
				}

				drafts, err := store.DraftsForItem(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				if len(drafts) > 0 {
					rows := make([][]string, 0, len(drafts))
					for _, draft := range drafts {
						rows = append(rows, []string{
							draft.Platform,
							truncate(draft.Title, 36),
							string(draft.Outcome),
							fmt.Sprintf("%.2f", draft.AggregateScore()),
							draft.RenderState,
						})
					}
					fmt.Fprintln(out, "\nDrafts:")
					fmt.Fprintln(out, renderTable([]string{"Platform", "Title", "Outcome", "Score", "Render"}, rows, 3))
				}

				publications, err := store.PublicationsForItem(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				if len(publications) > 0 {
					rows := make([][]string, 0, len(publications))
					for _, pub := range publications {
						detail := pub.ExternalRef
						if pub.LastError != "" {
							detail = pub.LastError
						}
						rows = append(rows, []string{
							pub.Platform,
							string(pub.Status),
							fmt.Sprintf("%d", pub.Attempts),
							truncate(detail, 48),
						})
					}
					fmt.Fprintln(out, "\nPublications:")
					fmt.Fprintln(out, renderTable([]string{"Platform", "State", "Attempts", "Ref / Error"}, rows, 2))
				}

				snapshots, err := store.MetricsForItem(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				if len(snapshots) > 0 {
					rows := make([][]string, 0, len(snapshots))
					for _, snap := range snapshots {
						rows = append(rows, []string{
							snap.Platform,
							fmt.Sprintf("%d", snap.Views),
							fmt.Sprintf("%.3f", snap.Engagement),
							snap.FetchedAt.Local().Format(time.DateTime),
						})
					}
					fmt.Fprintln(out, "\nMetrics:")
					fmt.Fprintln(out, renderTable([]string{"Platform", "Views", "Engagement", "Collected"}, rows, 1, 2))
				}

				records, err := store.AuditForItem(cmd.Context(), item.ID)
				if err != nil {
					return err
				}
				if len(records) > 0 {
					rows := make([][]string, 0, len(records))
					for _, record := range records {
						rows = append(rows, []string{
							record.CreatedAt.Local().Format(time.DateTime),
							string(record.Stage),
							record.Outcome,
							record.Reason,
						})
					}
					fmt.Fprintln(out, "\nHistory:")
					fmt.Fprintln(out, renderTable([]string{"Time", "Stage", "Outcome", "Reason"}, rows))
				}
				return nil
			})
		},
	}
}
