package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cbout22/lat/internal/alias"
	"github.com/cbout22/lat/internal/config"
)

// newShortCmd creates the `short` command group. Each subcommand operates on
// the shorts document next to the lat executable.
func newShortCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "short",
		Short: "Manage short names for references",
		Long:  "Save, list and remove short names that 'lat install' expands to full references.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "new <name> <reference>",
		Aliases: []string{"n"},
		Short:   "Save a short name for a reference",
		Example: "  lat short new rt owner/repo",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(store *alias.Store) error {
				return runShortNew(opts.stdout, store, args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved short names",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(store *alias.Store) error {
				return runShortList(opts.stdout, store)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved short name",
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeShortNames(opts, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(store *alias.Store) error {
				return runShortRemove(opts.stdout, store, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "empty",
		Short: "Remove every saved short name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.invoke(func(store *alias.Store) error {
				return runShortEmpty(opts.stdout, store)
			})
		},
	})

	return cmd
}

func runShortNew(out io.Writer, store *alias.Store, name, reference string) error {
	ref := config.Classify(reference)
	if ref.Kind == config.KindAlias {
		return fmt.Errorf("%q is not a repository or file reference (expected owner/repo or a github.com URL)", reference)
	}

	if err := store.Put(name, ref.Input); err != nil {
		return err
	}

	fmt.Fprintf(out, "🔖 Saved %s → %s\n", bold.Render(name), accent.Render(ref.Input))
	return nil
}

func runShortList(out io.Writer, store *alias.Store) error {
	records, err := store.List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "📋 No shorts saved. Add one with 'lat short new <name> <reference>'.")
		return nil
	}

	width := 0
	for _, r := range records {
		width = max(width, len(r.Name))
	}
	for _, r := range records {
		fmt.Fprintf(out, "  %-*s  %s\n", width, r.Name, accent.Render(r.Reference))
	}
	return nil
}

func runShortRemove(out io.Writer, store *alias.Store, name string) error {
	if err := store.Remove(name); err != nil {
		return err
	}
	fmt.Fprintf(out, "🗑️  Removed %s\n", bold.Render(name))
	return nil
}

func runShortEmpty(out io.Writer, store *alias.Store) error {
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(out, "🧹 Removed every short")
	return nil
}
