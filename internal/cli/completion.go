package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbout22/lat/internal/alias"
	"github.com/cbout22/lat/internal/resolver"
)

const (
	// completionTimeout keeps shell completion from blocking on the network.
	completionTimeout = time.Second
	// maxDescriptionRunes caps a repository description in completions.
	maxDescriptionRunes = 60
)

// completeReferences offers saved shorts and, once an owner is typed,
// matching GitHub repositories.
func completeReferences(ctx context.Context, opts *rootOptions, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ctx == nil {
		ctx = context.Background()
	}

	completions, _ := completeShortNames(opts, toComplete)
	if !strings.Contains(toComplete, "/") || strings.Contains(toComplete, "://") {
		return completions, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	_ = opts.invoke(func(r *resolver.Resolver) error {
		hits, err := r.SearchRepositories(ctx, toComplete)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			desc := hit.Description
			if desc == "" {
				desc = "Repository"
			}
			completions = append(completions, formatCompletionLine(hit.FullName, truncateDescription(desc, maxDescriptionRunes)))
		}
		return nil
	})

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeShortNames offers the saved shorts starting with toComplete.
func completeShortNames(opts *rootOptions, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	_ = opts.invoke(func(store *alias.Store) error {
		records, err := store.List()
		if err != nil {
			return err
		}
		for _, r := range records {
			if strings.HasPrefix(r.Name, toComplete) {
				completions = append(completions, formatCompletionLine(r.Name, r.Reference))
			}
		}
		return nil
	})
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// formatCompletionLine joins a value and its description the way cobra
// expects for described completions.
func formatCompletionLine(value, desc string) string {
	return value + "\t" + desc
}

// truncateDescription shortens desc to at most n runes, ending in "...".
func truncateDescription(desc string, n int) string {
	runes := []rune(desc)
	if len(runes) <= n {
		return desc
	}
	return string(runes[:n-3]) + "..."
}
