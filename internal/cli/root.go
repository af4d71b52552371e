package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartconvert/leadcrm/internal/cli/commands"
	"github.com/smartconvert/leadcrm/internal/config"
	"github.com/smartconvert/leadcrm/internal/gateway"
	"github.com/smartconvert/leadcrm/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. provider is called by each command
// when it runs.
func NewRootCmd(provider commands.AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leadcrm",
		Short: "SmartConvert CRM - lead scoring from the terminal",
		Long: `leadcrm is the command-line client of the SmartConvert lead-scoring CRM.

Every command opens a view. Views other than login and register need a
session; run 'leadcrm login' first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "leadcrm version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(provider))
	rootCmd.AddCommand(commands.NewRegisterCmd(provider))
	rootCmd.AddCommand(commands.NewLogoutCmd(provider))
	rootCmd.AddCommand(commands.NewWhoamiCmd(provider))
	rootCmd.AddCommand(commands.NewDashCmd(provider))
	rootCmd.AddCommand(commands.NewLeadsCmd(provider))
	rootCmd.AddCommand(commands.NewProfileCmd(provider))
	rootCmd.AddCommand(commands.NewOpenCmd(provider))
	rootCmd.AddCommand(commands.NewWatchCmd(provider))

	return rootCmd
}

// DefaultProvider loads configuration from the environment and initializes
// logging on stderr
func DefaultProvider() commands.AppProvider {
	return func() (*commands.App, error) {
		cfg, err := config.Load("warn")
		if err != nil {
			return nil, err
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		return commands.NewApp(cfg, logger.GetLogger())
	}
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(DefaultProvider()).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		return err
	}
	return nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, gateway.ErrUnauthorized) {
		fmt.Fprintln(w, "Your session has expired or was revoked. Run 'leadcrm login' to sign in again.")
	}
}
