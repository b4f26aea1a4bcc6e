package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/serviceutil"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the configured courses and which sources cover them.",
	Run: func(cmd *cobra.Command, args []string) {
		reg, err := loadRegistry()
		if err != nil {
			serviceutil.Fatal("failed to load registry", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"course", "name", "city", "price window", "sources"})
		for _, course := range reg.Courses {
			var sources []string
			for id := range course.Sources {
				sources = append(sources, id)
			}
			sort.Strings(sources)
			min, max := course.PriceWindow()
			t.AppendRow(table.Row{
				course.ID, course.Name, course.City,
				formatWindow(min, max), strings.Join(sources, ", "),
			})
		}
		t.Render()
	},
}

func formatWindow(min, max float64) string {
	return "$" + strconv.FormatFloat(min, 'f', -1, 64) + " - $" + strconv.FormatFloat(max, 'f', -1, 64)
}
