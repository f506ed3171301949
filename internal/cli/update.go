package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cbout22/lat/internal/config"
	"github.com/cbout22/lat/internal/selfupdate"
)

// updater is the part of *selfupdate.Updater the command needs.
type updater interface {
	Check(ctx context.Context) (*selfupdate.Check, error)
	Apply(ctx context.Context, binDir string) (*selfupdate.Outcome, error)
}

var _ updater = (*selfupdate.Updater)(nil)

// newUpdateCmd creates the `update` command.
func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace lat with the latest published build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(s *config.Settings, u *selfupdate.Updater) error {
				return runUpdateWith(cmd.Context(), opts.stdout, u, s.BinDir, checkOnly)
			})
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	return cmd
}

func runUpdateWith(ctx context.Context, out io.Writer, u updater, binDir string, checkOnly bool) error {
	if checkOnly {
		check, err := u.Check(ctx)
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		fmt.Fprintf(out, "🔍 %s\n", check.Message)
		return nil
	}

	fmt.Fprintf(out, "🔄 Updating lat %s...\n", muted.Render(version))

	outcome, err := u.Apply(ctx, binDir)
	if err != nil {
		var broken *selfupdate.BrokenInstallError
		if errors.As(err, &broken) {
			fmt.Fprintf(out, "❌ %s\n", bold.Render("lat is no longer installed at "+broken.ExecPath))
			fmt.Fprintf(out, "   Finish the update by hand:\n     %s\n", accent.Render(broken.RecoveryCommand()))
		}
		return fmt.Errorf("update failed: %w", err)
	}

	if !outcome.Updated {
		fmt.Fprintf(out, "✅ %s\n", outcome.Message)
		return nil
	}
	fmt.Fprintf(out, "✅ %s (%s)\n", outcome.Message, accent.Render(outcome.ExecPath))
	return nil
}
