// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cli implements the edubadge command-line tool: one-shot migration,
// verification and badge listing over the same stack the server uses.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/edubadge/internal/bootstrap"
	"github.com/taibuivan/edubadge/internal/platform/config"
	"github.com/taibuivan/edubadge/internal/platform/constants"
	"github.com/taibuivan/edubadge/internal/users/profile"
)

// Runtime is what a command operates on.
type Runtime struct {
	Facade    *profile.Facade
	Migration *profile.MigrationService
}

// Opener builds a [Runtime] and returns the function that releases it.
type Opener func(context context.Context) (Runtime, func() error, error)

// DefaultOpener loads the configuration from the environment and opens every
// configured backend. Logs go to stderr so stdout stays machine readable.
func DefaultOpener(context context.Context) (Runtime, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return Runtime{}, nil, err
	}

	app, err := bootstrap.New(context, cfg, bootstrap.NewLogger(os.Stderr, cfg.Debug))
	if err != nil {
		return Runtime{}, nil, err
	}
	return Runtime{Facade: app.Facade, Migration: app.Migration}, app.Close, nil
}

// NewRootCommand builds the command tree.
func NewRootCommand(out io.Writer, open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Profile and badge persistence tools",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.AddCommand(newMigrateCommand(out, open))
	cmd.AddCommand(newVerifyCommand(out, open))
	cmd.AddCommand(newBadgesCommand(out, open))
	return cmd
}

func newMigrateCommand(out io.Writer, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [username]",
		Short: "Copy device-local badges to the remote store (all users when no username is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), open, func(runtime Runtime) error {
				if len(args) == 1 {
					result := runtime.Migration.MigrateUserData(cmd.Context(), args[0])
					if err := writeJSON(out, result); err != nil {
						return err
					}
					return failedIf(!result.Success, result.Message)
				}

				results := runtime.Migration.MigrateAllUsers(cmd.Context())
				if err := writeJSON(out, results); err != nil {
					return err
				}
				failed := 0
				for _, result := range results {
					if !result.Success {
						failed++
					}
				}
				return failedIf(failed > 0, fmt.Sprintf("%d of %d users failed to migrate", failed, len(results)))
			})
		},
	}
}

func newVerifyCommand(out io.Writer, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <username>",
		Short: "Compare local and remote badge counts for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), open, func(runtime Runtime) error {
				result := runtime.Migration.VerifyMigration(cmd.Context(), args[0])
				if err := writeJSON(out, result); err != nil {
					return err
				}
				return failedIf(!result.Success, result.Message)
			})
		},
	}
}

func newBadgesCommand(out io.Writer, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "badges <username>",
		Short: "List a user's badges in earn order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), open, func(runtime Runtime) error {
				badges, err := runtime.Facade.Badges(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(out, badges)
			})
		},
	}
}

func withRuntime(ctx context.Context, open Opener, run func(Runtime) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runtime, closeRuntime, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeRuntime() }()

	return run(runtime)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// ExitError carries a process exit code for a command that ran but reported failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// ExitCode implements the exit code contract read by main.
func (e *ExitError) ExitCode() int { return e.Code }

func failedIf(failed bool, message string) error {
	if !failed {
		return nil
	}
	return &ExitError{Code: 2, Message: message}
}
