package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/logging"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/querydef"
	"github.com/rebeliceyang/lazychart/internal/ui/components"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	var (
		kinds  []string
		format string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print a query's results and samples without the TUI",
		Example: `  # Print both tabs as tables
  lazychart fetch -q query.yaml

  # Only samples, filtered, as JSON
  lazychart fetch --kind samples --filter CA --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formData, err := querydef.Load(cfg.General.QueryFile)
			if err != nil {
				return err
			}
			parsed := make([]models.ResultKind, 0, len(kinds))
			for _, k := range kinds {
				kind, err := models.ParseResultKind(k)
				if err != nil {
					return err
				}
				parsed = append(parsed, kind)
			}
			logger := logging.NewConsole(cfg.Log.Level)
			return runFetch(cmd.Context(), cmd.OutOrStdout(), newClient(logger), formData, parsed, filter, format)
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", []string{"results", "samples"}, "result kinds to fetch (results,samples)")
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format (table|json)")
	cmd.Flags().StringVar(&filter, "filter", "", "only print rows containing this text")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

type fetched struct {
	kind    models.ResultKind
	columns []models.ColumnDescriptor
	rows    []models.Record
}

// runFetch requests every kind concurrently and prints them in the given order.
// Column order comes from the chart's full response for every kind, the same
// source the TUI uses.
func runFetch(ctx context.Context, w io.Writer, fetcher chartdata.Fetcher, formData models.FormData, kinds []models.ResultKind, filter, format string) error {
	results := make([]fetched, len(kinds))
	rows := make([][]models.Record, len(kinds))
	var colNames []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := fetcher.Fetch(gctx, chartdata.Request{
			FormData:     formData,
			ResultFormat: chartdata.ResultFormatJSON,
			ResultType:   chartdata.ResultTypeFull,
		})
		if err != nil {
			return fmt.Errorf("columns: %s", chartdata.Normalize(err))
		}
		if len(res.Queries) > 0 {
			colNames = res.Queries[0].ColNames
		}
		return nil
	})
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			res, err := fetcher.Fetch(gctx, chartdata.NewRequest(formData, kind, nil))
			if err != nil {
				return fmt.Errorf("%s: %s", kind, chartdata.Normalize(err))
			}
			rows[i] = chartdata.MergeResults(res.Queries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, kind := range kinds {
		results[i] = fetched{
			kind:    kind,
			columns: datapanel.Columns(colNames, rows[i]),
			rows:    datapanel.FilterRows(filter, rows[i]),
		}
	}

	if format == "json" {
		out := make(map[string][]models.Record, len(results))
		for _, r := range results {
			out[r.kind.String()] = r.rows
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, r := range results {
		renderTable(w, r)
	}
	return nil
}

func renderTable(w io.Writer, r fetched) {
	_, _ = fmt.Fprintln(w, components.TabLabel(r.kind))
	if len(r.rows) == 0 {
		_, _ = fmt.Fprintln(w, "No data")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(r.columns))
	for i, col := range r.columns {
		header[i] = col.Header
	}
	t.AppendHeader(header)

	for _, rec := range r.rows {
		row := make(table.Row, len(r.columns))
		for i, col := range r.columns {
			row[i] = datapanel.FormatValue(rec[col.Key])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(r.rows))
}
