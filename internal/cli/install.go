package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbout22/lat/internal/alias"
	"github.com/cbout22/lat/internal/config"
	"github.com/cbout22/lat/internal/injector"
	"github.com/cbout22/lat/internal/resolver"
)

// newInstallCmd creates the `install` command.
// Usage: lat install <reference>
func newInstallCmd(opts *rootOptions) *cobra.Command {
	var (
		onConflict string
		force      bool
		dir        string
	)

	cmd := &cobra.Command{
		Use:     "install <reference>",
		Aliases: []string{"i"},
		Short:   "Download a style (and its snippets) into the current directory",
		Long: `Downloads the style file of a GitHub repository, or a single file, into the
current directory. When the repository also has a snippets file it is written
to .vscode/<name>.code-snippets.

Examples:
  lat install owner/repo
  lat install https://github.com/owner/repo
  lat install https://github.com/owner/repo/blob/main/styles/house.sty
  lat install rt                  # a short saved with 'lat short new'`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeReferences(cmd.Context(), opts, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := injector.PolicyOverwrite
			if !force {
				p, err := injector.ParsePolicy(onConflict)
				if err != nil {
					return err
				}
				policy = p
			}

			return opts.invoke(func(s *config.Settings, src resolver.Source, store *alias.Store, inj *injector.Injector) error {
				target := dir
				if target == "" {
					target = s.WorkDir
				}
				return runInstallWith(cmd.Context(), opts.stdout, src, store, inj, target, args[0], policy)
			})
		},
	}

	cmd.Flags().StringVar(&onConflict, "on-conflict", injector.PolicyPrompt.String(),
		"What to do when a file already exists: "+strings.Join(injector.PolicyNames(), ", "))
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files without asking")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to write the style file to (default: current directory)")
	cmd.MarkFlagsMutuallyExclusive("force", "on-conflict")
	_ = cmd.RegisterFlagCompletionFunc("on-conflict", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return injector.PolicyNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInstallWith resolves input and writes the result under dir.
func runInstallWith(ctx context.Context, out io.Writer, src resolver.Source, store *alias.Store, inj *injector.Injector, dir, input string, policy injector.ConflictPolicy) error {
	ref, err := expandReference(store, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "📦 Installing %s...\n", accent.Render(ref.String()))

	resolved, err := src.Resolve(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", input, err)
	}

	outcome, err := inj.Write(dir, resolved, policy)
	if err != nil {
		return err
	}

	switch {
	case outcome.ImportWritten:
		fmt.Fprintf(out, "✅ Wrote %s\n", accent.Render(outcome.ImportPath))
	case outcome.ImportSkipped:
		fmt.Fprintf(out, "⏭️  Kept existing %s\n", accent.Render(outcome.ImportPath))
	}

	switch {
	case outcome.SnippetsErr != nil:
		logger.Warnf("Snippets not written: %v", outcome.SnippetsErr)
		fmt.Fprintf(out, "⚠️  Snippets not written: %v\n", outcome.SnippetsErr)
	case outcome.SnippetsWritten:
		fmt.Fprintf(out, "✅ Wrote %s\n", accent.Render(outcome.SnippetsPath))
	case outcome.SnippetsSkipped:
		fmt.Fprintf(out, "⏭️  Kept existing %s\n", accent.Render(outcome.SnippetsPath))
	default:
		fmt.Fprintln(out, muted.Render("   no snippets for this import"))
	}

	return nil
}

// expandReference classifies input and replaces a short name by the
// reference stored under it. A stored value must itself be a repository or
// file reference.
func expandReference(store *alias.Store, input string) (config.Reference, error) {
	ref := config.Classify(input)
	if ref.Kind != config.KindAlias {
		return ref, nil
	}
	if ref.UnsupportedURL() {
		return ref, fmt.Errorf("%w: %s is not a GitHub repository or file URL (expected github.com/owner/repo or a blob URL)",
			resolver.ErrResolutionNotFound, ref.Input)
	}

	long, ok, err := store.Get(ref.Name)
	if err != nil {
		return ref, err
	}
	if !ok {
		return ref, fmt.Errorf("%w: no short named %q (see 'lat short list')", resolver.ErrResolutionNotFound, ref.Name)
	}

	expanded := config.Classify(long)
	if expanded.Kind == config.KindAlias {
		return ref, fmt.Errorf("%w: short %q points to %q, which is not a repository or file reference",
			resolver.ErrResolutionNotFound, ref.Name, long)
	}

	logger.Debugf("[cli] Short %s -> %s (%s)", ref.Name, long, expanded.Kind)
	return expanded, nil
}
