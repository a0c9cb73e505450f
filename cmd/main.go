package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/discipline-backend/internal/app"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "discipline",
		Short:         "Self-discipline tracker backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedUsersCmd())
	root.AddCommand(newRebuildRollupsCmd())
	root.AddCommand(newVerifyRollupsCmd())
	root.AddCommand(newStatsCmd())
	return root
}

// loadApp reads configuration and wires the application. The caller closes it.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return printJSON(cmd, map[string]any{"migrated": true, "driver": a.Store.Driver()})
		},
	}
}

func newSeedUsersCmd() *cobra.Command {
	var count int
	var password string
	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create the demo accounts user1..userN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("count") {
				count = a.Cfg.SeedUserCount
			}
			if !cmd.Flags().Changed("password") {
				password = a.Cfg.SeedUserPassword
			}
			n, err := a.Services.Auth.SeedUsers(cmd.Context(), count, password)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"requested": count, "created": n})
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of users")
	cmd.Flags().StringVar(&password, "password", "", "password for every seeded user")
	return cmd
}

func newRebuildRollupsCmd() *cobra.Command {
	var usernames []string
	cmd := &cobra.Command{
		Use:   "rebuild-rollups",
		Short: "Rewrite daily rollups from the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			rows, err := a.Services.Rollup.RebuildUsers(cmd.Context(), usernames)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"rebuilt": rows})
		},
	}
	cmd.Flags().StringSliceVar(&usernames, "username", nil, "limit to these users (repeatable)")
	return cmd
}

func newVerifyRollupsCmd() *cobra.Command {
	var usernames []string
	cmd := &cobra.Command{
		Use:   "verify-rollups",
		Short: "Compare rollup focus time against recorded sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			drift, err := a.Services.Rollup.VerifyUsers(cmd.Context(), usernames)
			if err != nil {
				return err
			}
			ok := true
			for _, d := range drift {
				if len(d) > 0 {
					ok = false
				}
			}
			if err := printJSON(cmd, map[string]any{"ok": ok, "drift": drift}); err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("rollup drift detected")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&usernames, "username", nil, "limit to these users (repeatable)")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var username, period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics report for one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, err := a.AsUser(cmd.Context(), username)
			if err != nil {
				return err
			}
			report, err := a.Services.Stats.GetStats(ctx, period)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user to report on")
	cmd.Flags().StringVar(&period, "period", "day", "day, week or month")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
