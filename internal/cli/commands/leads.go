package commands

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smartconvert/leadcrm/internal/cli/leadselect"
	"github.com/smartconvert/leadcrm/internal/gateway"
	"github.com/smartconvert/leadcrm/internal/models"
)

// NewLeadsCmd creates the leads command group
func NewLeadsCmd(provider AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Browse and follow up on scored leads",
	}

	cmd.AddCommand(newLeadsListCmd(provider))
	cmd.AddCommand(newLeadsShowCmd(provider))
	cmd.AddCommand(newLeadsNoteCmd(provider))
	cmd.AddCommand(newLeadsUploadCmd(provider))

	return cmd
}

func newLeadsListCmd(provider AppProvider) *cobra.Command {
	var query gateway.LeadQuery

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List leads, one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/leads"); err != nil {
				return err
			}

			leads, err := app.Client.ListLeads(cmd.Context(), query)
			if err != nil {
				return err
			}

			printLeads(app.Out, leads, query.Page)
			return nil
		},
	}

	cmd.Flags().IntVar(&query.Page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&query.Limit, "limit", gateway.DefaultPageSize, "Leads per page")
	cmd.Flags().StringVar(&query.SortBy, "sort", "", "Sort field (prediction_score, age, id, created_at)")
	cmd.Flags().BoolVar(&query.Desc, "desc", false, "Sort descending")

	return cmd
}

func newLeadsShowCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a lead with its score explanation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				picked, err := pickLead(cmd, app)
				if err != nil {
					return err
				}
				id = strconv.Itoa(picked)
			}

			leadID, err := visitLead(app, id)
			if err != nil {
				return err
			}

			lead, err := app.Client.GetLead(cmd.Context(), leadID)
			if err != nil {
				return err
			}

			printLead(app.Out, lead)
			return nil
		},
	}
}

func newLeadsNoteCmd(provider AppProvider) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Record a follow-up note on a lead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			leadID, err := visitLead(app, args[0])
			if err != nil {
				return err
			}

			update := models.LeadUpdate{Status: status, Notes: args[1]}
			if _, err := app.Client.UpdateLead(cmd.Context(), leadID, update); err != nil {
				return err
			}

			// Re-fetch so the view shows what the backend stored
			lead, err := app.Client.GetLead(cmd.Context(), leadID)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "✓ Lead #%d updated\n\n", leadID)
			printLead(app.Out, lead)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Follow-up status (new, contacted, converted, rejected)")

	return cmd
}

func newLeadsUploadCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV of leads for scoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/leads"); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			result, err := app.Client.UploadCSV(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "✓ %s\n\n", result.Message)

			leads, err := app.Client.ListLeads(cmd.Context(), gateway.LeadQuery{})
			if err != nil {
				return err
			}
			printLeads(app.Out, leads, 0)
			return nil
		},
	}
}

// visitLead navigates to the detail view of id and returns the numeric id
// captured by the route
func visitLead(app *App, id string) (int, error) {
	d, err := app.visit("/leads/" + id)
	if err != nil {
		return 0, err
	}
	leadID, err := strconv.Atoi(d.Vars["id"])
	if err != nil {
		return 0, fmt.Errorf("invalid lead id %q", id)
	}
	return leadID, nil
}

// pickLead lets the user choose from the first page of leads
func pickLead(cmd *cobra.Command, app *App) (int, error) {
	f, ok := app.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, fmt.Errorf("lead id is required in non-interactive mode")
	}

	if _, err := app.visit("/leads"); err != nil {
		return 0, err
	}

	leads, err := app.Client.ListLeads(cmd.Context(), gateway.LeadQuery{})
	if err != nil {
		return 0, err
	}

	lead, err := leadselect.PromptLeadSelection(leads)
	if err != nil {
		return 0, err
	}
	return lead.ID, nil
}

func printLeads(out io.Writer, leads []models.Lead, page int) {
	if len(leads) == 0 {
		fmt.Fprintln(out, "No leads found.")
		if page == 0 {
			fmt.Fprintln(out, "\nUpload some with: leadcrm leads upload <file.csv>")
		}
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGE\tJOB\tSCORE\tLABEL\tSTATUS")
	fmt.Fprintln(w, "──\t───\t───\t─────\t─────\t──────")

	for _, lead := range leads {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			lead.ID,
			intOrDash(lead.Age),
			orDash(lead.Job),
			scoreOrDash(lead.PredictionScore),
			orDash(lead.PredictionLabel),
			orDash(lead.Status),
		)
	}

	w.Flush()
	fmt.Fprintf(out, "\nPage %d\n", page)
}

func printLead(out io.Writer, lead *models.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Lead\t#%d\n", lead.ID)
	fmt.Fprintf(w, "Score\t%s\n", scoreOrDash(lead.PredictionScore))
	fmt.Fprintf(w, "Label\t%s\n", orDash(lead.PredictionLabel))
	fmt.Fprintf(w, "Status\t%s\n", orDash(lead.Status))
	fmt.Fprintf(w, "Age\t%s\n", intOrDash(lead.Age))
	fmt.Fprintf(w, "Job\t%s\n", orDash(lead.Job))
	fmt.Fprintf(w, "Marital\t%s\n", orDash(lead.Marital))
	fmt.Fprintf(w, "Education\t%s\n", orDash(lead.Education))
	fmt.Fprintf(w, "Contact\t%s\n", orDash(lead.Contact))
	fmt.Fprintf(w, "Campaign calls\t%s\n", intOrDash(lead.Campaign))
	fmt.Fprintf(w, "Previous outcome\t%s\n", orDash(lead.POutcome))
	fmt.Fprintf(w, "Notes\t%s\n", orDash(lead.Notes))
	w.Flush()

	if lead.Explanation == nil {
		return
	}

	impacts := append([]models.FeatureImpact(nil), lead.Explanation.ShapValues...)
	sort.SliceStable(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].Impact) > math.Abs(impacts[j].Impact)
	})

	if len(impacts) > 0 {
		fmt.Fprintln(out, "\nWhy this score:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, fi := range impacts {
			fmt.Fprintf(w, "  %s\t%+.3f\n", fi.Feature, fi.Impact)
		}
		w.Flush()
	}
	if lead.Explanation.Recommendation != "" {
		fmt.Fprintf(out, "\nRecommendation: %s\n", lead.Explanation.Recommendation)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func scoreOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
