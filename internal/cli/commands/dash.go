package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smartconvert/leadcrm/internal/models"
)

// NewDashCmd creates the dash command
func NewDashCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:     "dash",
		Aliases: []string{"dashboard"},
		Short:   "Show the lead scoring dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/"); err != nil {
				return err
			}

			stats, err := app.Client.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}

			printDashboard(app.Out, stats)
			return nil
		},
	}
}

func printDashboard(out io.Writer, stats *models.DashboardStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tHIGH\tMEDIUM\tLOW\tCONVERSION")
	fmt.Fprintln(w, "─────\t────\t──────\t───\t──────────")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.2f%%\n",
		stats.TotalLeads,
		stats.HighPotential,
		stats.MediumPotential,
		stats.LowPotential,
		stats.ConversionRateEstimate,
	)
	w.Flush()

	printDistribution(out, "Score distribution", stats.ScoreDist)
	printDistribution(out, "Jobs", stats.JobDist)
	printDistribution(out, "Education", stats.EducationDist)
	printDistribution(out, "Marital status", stats.MaritalDist)
}

func printDistribution(out io.Writer, title string, dist []models.NameValue) {
	if len(dist) == 0 {
		return
	}

	var peak float64
	for _, nv := range dist {
		peak = max(peak, nv.Value)
	}

	fmt.Fprintf(out, "\n%s:\n", title)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, nv := range dist {
		bar := 0
		if peak > 0 {
			bar = int(nv.Value / peak * 30)
		}
		fmt.Fprintf(w, "  %s\t%g\t%s\n", nv.Name, nv.Value, strings.Repeat("█", bar))
	}
	w.Flush()
}
