package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
)

var (
	configFile string
	dbFile     string
	dbUrl      string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "teetimes",
	Short: "teetimes aggregates tee-time availability across Bay Area golf booking sites.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "teetimes.json5", "course registry and source fleet file")
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "teetimes.db", "sqlite database file")
	rootCmd.PersistentFlags().StringVar(&dbUrl, "db-url", "", "remote libsql database url (overrides --db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadRegistry() (registry.Registry, error) {
	return registry.Load(configFile)
}

func openStore() (slotstore.Store, error) {
	return slotstore.Open(slotstore.Config{File: dbFile, Url: dbUrl})
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
