package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd(provider AppProvider) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the CRM",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()
			return runLogin(cmd, app, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set LEADCRM_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set LEADCRM_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, app *App, username, password string) error {
	if _, err := app.visit("/login"); err != nil {
		return err
	}

	username, password, err := credentials(app, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Logging in to %s as %s...\n", app.Client.BaseURL(), username)

	sess, err := app.Auth.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Out, "✓ Login successful!")
	fmt.Fprintf(app.Out, "  User: %s\n", sess.Username)
	fmt.Fprintf(app.Out, "  View: %s\n", app.Controller.Location())
	return nil
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(provider AppProvider) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.visit("/register"); err != nil {
				return err
			}

			username, password, err := credentials(app, username, password)
			if err != nil {
				return err
			}

			if err := app.Client.Register(cmd.Context(), username, password); err != nil {
				return err
			}

			// Registration does not sign in
			app.Controller.Navigate("/login")
			fmt.Fprintf(app.Out, "✓ Account %s created\n", username)
			fmt.Fprintf(app.Out, "  Log in with: leadcrm login --username %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set LEADCRM_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set LEADCRM_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			wasAuthenticated := app.Store.IsAuthenticated()
			if err := app.Auth.Logout(); err != nil {
				return err
			}

			if wasAuthenticated {
				fmt.Fprintln(app.Out, "✓ Logged out")
			} else {
				fmt.Fprintln(app.Out, "Not logged in")
			}
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider()
			if err != nil {
				return err
			}
			defer app.Close()

			sess := app.Store.Current()
			if !sess.Authenticated() {
				fmt.Fprintln(app.Out, "Not logged in")
				return nil
			}

			// The username is whatever was typed at login; only the token is
			// checked by the backend
			name := sess.Username
			if name == "" {
				name = "(unknown user)"
			}
			fmt.Fprintf(app.Out, "Logged in as %s\n", name)
			fmt.Fprintf(app.Out, "  API: %s\n", app.Client.BaseURL())
			return nil
		},
	}
}

// credentials fills in missing credentials from the environment or an
// interactive prompt
func credentials(app *App, username, password string) (string, string, error) {
	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("LEADCRM_USERNAME")
	}
	if password == "" {
		password = os.Getenv("LEADCRM_PASSWORD")
	}

	interactive := false
	fd := 0
	if f, ok := app.In.(*os.File); ok {
		fd = int(f.Fd())
		interactive = term.IsTerminal(fd)
	}

	if username == "" {
		if !interactive {
			return "", "", fmt.Errorf("username is required (use --username flag or LEADCRM_USERNAME env var)")
		}
		fmt.Fprint(app.Out, "Username: ")
		line, err := bufio.NewReader(app.In).ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	if password == "" {
		if !interactive {
			return "", "", fmt.Errorf("password is required in non-interactive mode (use --password flag or LEADCRM_PASSWORD env var)")
		}
		fmt.Fprint(app.Out, "Password: ")
		bytePassword, err := term.ReadPassword(fd)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(app.Out) // New line after password input
	}

	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}
