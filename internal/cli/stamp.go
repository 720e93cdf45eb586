package cli

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/ocfltools/internal/app"
	"github.com/vk/ocfltools/internal/sidecar"
)

const (
	flagCrateDir             = "crate-dir"
	flagRepositoryIdentifier = "repository-identifier"
	flagDomain               = "domain"
	flagIdentifier           = "identifier"
)

func newStampCommand(v *viper.Viper) *cobra.Command {
	var dir, repository, domain, id string

	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Write repository metadata into a crate before import",
		Long: `Writes the repository metadata sidecar of an import into the crate
directory and references it, with the domain and identifier properties,
from the crate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := appConfig(v, 1)
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.OutOrStdout(), cfg, nil)
			if err != nil {
				return failed(err)
			}
			m := sidecar.NewMetadata(repository, domain, id)
			if err := a.Stamp(cmd.Context(), dir, m); err != nil {
				return failed(err)
			}
			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Crate stamped: %s\n", filepath.Join(dir, m.File()))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dir, flagCrateDir, "", "Directory holding the crate file.")
	f.StringVar(&repository, flagRepositoryIdentifier, "", "Identifier of the target repository.")
	f.StringVar(&domain, flagDomain, "", "Domain of the object.")
	f.StringVar(&id, flagIdentifier, "", "Identifier of the object within its domain.")
	for _, name := range []string{flagCrateDir, flagRepositoryIdentifier, flagDomain, flagIdentifier} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
