package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartconvert/leadcrm/internal/navigation"
)

// NewOpenCmd creates the open command
func NewOpenCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Show where navigating to a path ends up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			// a redirect is the answer here, not a failure
			d, _ := app.visit(args[0])

			for _, hop := range app.Controller.History() {
				fmt.Fprintf(app.Out, "%-10s %s\n", hop.State, hop.To)
			}
			fmt.Fprintf(app.Out, "\nRendered %s", d.Path)
			if d.Route != "" {
				fmt.Fprintf(app.Out, " (%s)", d.Route)
			}
			fmt.Fprintln(app.Out)
			printVars(app, d)
			return nil
		},
	}
}

func printVars(app *App, d navigation.Decision) {
	for k, v := range d.Vars {
		fmt.Fprintf(app.Out, "  %s = %s\n", k, v)
	}
}
