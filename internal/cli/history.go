package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/storage"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent data panel fetches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewStore(cfg.Storage.Path, cfg.Storage.HistoryMaxEntries)
			if err != nil {
				return fmt.Errorf("failed to open state store: %w", err)
			}
			defer store.Close()

			entries, err := store.RecentFetches(limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")

	return cmd
}

func renderHistory(w io.Writer, entries []models.FetchEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No fetches recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time", "Kind", "Datasource", "Rows", "Duration", "Status"})

	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = e.ErrorMessage
		}
		t.AppendRow(table.Row{
			e.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			e.Kind.String(),
			e.Datasource,
			e.RowCount,
			e.Duration.String(),
			status,
		})
	}

	t.Render()
}
