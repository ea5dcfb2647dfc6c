package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
)

var (
	projectDir string
	configFile string
	debug      bool
	verbose    bool
	jsonLogs   bool
	quiet      bool
	strict     bool
	parallel   int
	version    = "v0.1.0"

	rootCmd = &cobra.Command{
		Use:   "assetflow [task...]",
		Short: "Build the static assets of a web project",
		Long: `Compiles stylesheets, bundles and transpiles scripts, compresses images
and copies fonts and pages into the distribution directory.

Without arguments the default task runs. Named tasks run one after another,
each after its prerequisites.

Example:
assetflow
assetflow clean default
assetflow -C site --parallel 4 javascript js-pages
assetflow watch
`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(verbose || debug, jsonLogs, quiet)
		},
		RunE: runTasks,
	}
)

// Execute runs the root command. Errors have been printed when it returns.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
	}
	return err
}

// errorMessage renders graph, configuration and compile errors with their
// troubleshooting steps and everything else as a single line.
func errorMessage(err error) string {
	if aferrors.IsUserError(err) {
		return aferrors.FormatForCLI(err)
	}
	return "Error: " + err.Error()
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: assetflow.toml, assetflow.yaml or assetflow.yml in the project root)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit with an error when a stage fails")
	rootCmd.PersistentFlags().IntVar(&parallel, "parallel", 0, "Maximum tasks started concurrently (0 = config value)")

	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(configCmd)
}
