package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ve11yn/dochi"
	"github.com/ve11yn/dochi/internal/config"
)

var (
	debug   bool
	timeout time.Duration
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Str("kind", dochi.KindOf(err).String()).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dochictl",
		Short:         "dochictl drives the dochi calendar, focus, todo and profile services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLogger()
			applyDebugFlag()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout for one command")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newFocusCmd())
	rootCmd.AddCommand(newTodoCmd())
	rootCmd.AddCommand(newNoteCmd())
	return rootCmd
}

// withApp builds the App from the environment, restores the stored session
// and runs fn under the command timeout.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *dochi.App) error) error {
	cfg, err := dochi.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Init()
	applyDebugFlag()
	app, err := dochi.New(cfg, dochi.WithDebugLogging(debug))
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	if err := app.Initialize(ctx); err != nil {
		return err
	}

	start := time.Now()
	err = fn(ctx, app)
	log.Debug().Str("command", cmd.CommandPath()).Dur("elapsed", time.Since(start)).Err(err).Msg("command finished")
	return err
}

// applyDebugFlag lets --debug override DOCHI_LOG_LEVEL.
func applyDebugFlag() {
	if debug {
		config.SetLogLevel(zerolog.DebugLevel)
		log.Debug().Msg("debug logging enabled")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in through the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				res := app.Login(ctx)
				if !res.Success {
					return res.Err
				}
				if res.Err != nil {
					log.Warn().Err(res.Err).Msg("logged in, but the profile could not be loaded")
				}
				if res.IsFirstTime {
					fmt.Fprintln(cmd.OutOrStdout(), "Logged in. No profile yet: run `dochictl profile create --name <name>`.")
					return nil
				}
				if res.User != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", res.User.Name, res.User.Principal)
				}
				return nil
			})
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				return app.Logout(ctx)
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the principal of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				id, ok := app.CallerID(ctx)
				if !ok {
					return dochi.ErrUnauthenticated
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the profile with appointment and focus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *dochi.App) error {
				data, err := app.Summary.ProfileData(ctx)
				if err != nil {
					return err
				}
				for section, err := range data.SectionErrors {
					log.Warn().Err(err).Str("section", section).Msg("section unavailable")
				}
				return printJSON(cmd.OutOrStdout(), struct {
					User  dochi.User  `json:"user"`
					Stats dochi.Stats `json:"stats"`
				}{data.User, data.Stats})
			})
		},
	}
}
