package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smartconvert/leadcrm/internal/models"
)

// NewProfileCmd creates the profile command
func NewProfileCmd(provider AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your sales profile and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/profile"); err != nil {
				return err
			}

			profile, err := app.Client.GetProfile(cmd.Context())
			if err != nil {
				return err
			}

			printProfile(app.Out, profile)
			return nil
		},
	}

	cmd.AddCommand(newProfileUpdateCmd(provider))

	return cmd
}

func newProfileUpdateCmd(provider AppProvider) *cobra.Command {
	var update models.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if update == (models.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update (use --name, --role or --target)")
			}

			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/profile"); err != nil {
				return err
			}

			if err := app.Client.UpdateProfile(cmd.Context(), update); err != nil {
				return err
			}

			profile, err := app.Client.GetProfile(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(app.Out, "✓ Profile updated")
			fmt.Fprintln(app.Out)
			printProfile(app.Out, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&update.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&update.Role, "role", "", "Role")
	cmd.Flags().IntVar(&update.MonthlyTarget, "target", 0, "Monthly lead target")

	return cmd
}

func printProfile(out io.Writer, p *models.Profile) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s\n", p.Name)
	fmt.Fprintf(w, "Role\t%s\n", orDash(p.Role))
	fmt.Fprintf(w, "Employee ID\t%s\n", orDash(p.EmployeeID))
	fmt.Fprintf(w, "Email\t%s\n", orDash(p.Email))
	fmt.Fprintf(w, "Joined\t%s (%d days)\n", orDash(p.JoinedDate), p.ActiveDays)
	fmt.Fprintf(w, "Monthly target\t%d\n", p.MonthlyTarget)
	fmt.Fprintf(w, "Leads processed\t%d\n", p.Stats.LeadsProcessed)
	fmt.Fprintf(w, "Conversion rate\t%.1f%%\n", p.Stats.ConversionRate)
	fmt.Fprintf(w, "Progress\t%d%%\n", p.Stats.CurrentProgress)
	w.Flush()

	if len(p.RecentActivities) == 0 {
		return
	}
	fmt.Fprintln(out, "\nRecent activity:")
	for _, a := range p.RecentActivities {
		fmt.Fprintf(out, "  %s  %s\n", a.Time, a.Content)
	}
}
