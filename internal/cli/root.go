package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// rootOptions carries the global flags and the streams commands write to.
type rootOptions struct {
	configPath string
	verbose    bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd creates the top-level `lat` command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	root := &cobra.Command{
		Use:   "lat",
		Short: "Import LaTeX styles and editor snippets from GitHub",
		Long: `lat downloads a style file (and its editor snippets, when the repository
has them) from GitHub into the current project.

A reference can be an owner/repo pair, a repository URL, a file URL, or a
short name saved with 'lat short new'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.stderr, opts.verbose || os.Getenv("LAT_DEBUG") == "true")
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to config file (default: config.toml next to the lat executable)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newInstallCmd(opts))
	root.AddCommand(newShortCmd(opts))
	root.AddCommand(newUpdateCmd(opts))

	return root
}

// setupLogging configures logrus for diagnostics on stderr. Results meant for
// the user go to stdout instead.
func setupLogging(w io.Writer, debug bool) {
	logger.SetOutput(w)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)
	if debug {
		logger.SetLevel(logger.DebugLevel)
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := fang.Execute(context.Background(), root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
