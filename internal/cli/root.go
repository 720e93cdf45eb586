package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command and its subcommands. Each call
// returns an independent tree with its own settings.
func NewRootCommand() *cobra.Command {
	v := newSettings()

	rootCmd := &cobra.Command{
		Use:   "ocfl-tools",
		Short: "Index and validate RO-Crate metadata in OCFL repositories",
		Long: color.CyanString(`ocfl-tools - RO-Crate metadata indexing for OCFL repositories

Walks an OCFL storage root, resolves the RO-Crate of every object, validates
it against the schemas of its domain and indexes it, with its transcriptions,
into the search engine.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadSettings(v, cmd.Flags())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(keyConfig, "", "Path to a config file (yaml, json or toml).")
	flags.String(keyLogLevel, "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String(keyLogFormat, "json", "Log output format. Options: 'text' or 'json'.")
	flags.String(keyDomains, "", "Path to an HCL file or directory of domain definitions.")

	rootCmd.AddCommand(newIndexCommand(v))
	rootCmd.AddCommand(newValidateCommand(v))
	rootCmd.AddCommand(newStampCommand(v))

	return rootCmd
}
