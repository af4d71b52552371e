package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartconvert/leadcrm/internal/logger"
	"github.com/smartconvert/leadcrm/internal/navigation"
	"github.com/smartconvert/leadcrm/internal/session"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(provider AppProvider) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow session changes made by other terminals",
		Long: `Keeps a view open and re-evaluates it whenever another leadcrm process
logs in or out. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if app.SessionFile == "" {
				return fmt.Errorf("watch needs the file session backend (LEADCRM_SESSION_BACKEND=file)")
			}

			watcher := session.NewWatcher(app.SessionFile, app.Store, logger.WithComponent(app.Log, "watcher"))
			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}
			defer watcher.Close()

			app.Controller.OnStateChange(func(s navigation.State) {
				fmt.Fprintf(app.Out, "%s  session is now %s, showing %s\n",
					time.Now().Format(time.TimeOnly), s, app.Controller.Location())
			})

			d := app.Controller.Start(view)
			fmt.Fprintf(app.Out, "Watching %s (%s), showing %s\n", app.SessionFile, app.Controller.State(), d.Path)

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "/", "View to keep open")

	return cmd
}
