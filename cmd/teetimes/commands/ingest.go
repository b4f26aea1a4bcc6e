package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/pipeline"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/serviceutil"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"
)

var (
	ingestDays    int
	ingestSources []string
	ingestTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().IntVar(&ingestDays, "days", 7, "days of availability to ingest, starting today")
	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil, "restrict the run to these source ids")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "bound on the adapter phase")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass across the source fleet and reconcile the store.",
	Run: func(cmd *cobra.Command, args []string) {
		reg, err := loadRegistry()
		if err != nil {
			serviceutil.Fatal("failed to load registry", err)
		}
		store, err := openStore()
		if err != nil {
			serviceutil.Fatal("failed to open store", err)
		}
		defer store.Close()

		fleet, err := buildFleet(reg, store, ingestSources)
		if err != nil {
			serviceutil.Fatal("failed to build source fleet", err)
		}

		summary, err := pipeline.New(store).Run(cmd.Context(), pipeline.Options{
			Adapters: fleet,
			Courses:  reg.Courses,
			Dates:    timezone.DateRange(timezone.Now(), ingestDays),
			Timeout:  ingestTimeout,
		})
		if err != nil {
			serviceutil.Fatal("ingestion run failed", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"source", "status", "records", "skipped", "dropped", "elapsed", "error"})
		for _, outcome := range summary.Outcomes {
			errText := ""
			if outcome.Err != nil {
				errText = outcome.Err.Error()
			}
			t.AppendRow(table.Row{
				outcome.Source, outcome.Status, outcome.Records,
				outcome.Skipped, outcome.Dropped, outcome.Elapsed.Round(time.Millisecond), errText,
			})
		}
		t.AppendFooter(table.Row{
			"run " + summary.RunID, summary.State, "", "",
			"", summary.Elapsed.Round(time.Millisecond),
			fmt.Sprintf("deleted %d", summary.Deleted.Total()),
		})
		t.Render()

		if summary.Succeeded() == 0 {
			os.Exit(1)
		}
	},
}
