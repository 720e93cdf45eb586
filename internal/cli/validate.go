package cli

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/ocfltools/internal/app"
	"github.com/vk/ocfltools/internal/hcl"
	"github.com/vk/ocfltools/internal/validate"
)

const flagPathToObject = "path-to-object"

func newValidateCommand(v *viper.Viper) *cobra.Command {
	var objectPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the crate of one OCFL object",
		Long: `Resolves the crate in the head version of the object and reports every
schema error found. An invalid crate is reported, not treated as a failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := appConfig(v, 1)
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.OutOrStdout(), cfg, hcl.NewLoader())
			if err != nil {
				return failed(err)
			}
			checked, err := a.Validate(cmd.Context(), objectPath)
			if err != nil {
				return failed(err)
			}
			printResult(cmd.OutOrStdout(), checked.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&objectPath, flagPathToObject, "", "Path to the OCFL object.")
	_ = cmd.MarkFlagRequired(flagPathToObject)

	return cmd
}

func printResult(w io.Writer, r validate.Result) {
	if r.Valid {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "Crate is valid")
		return
	}
	bad := color.New(color.FgRed)
	for _, e := range r.Errors {
		if e.Kind == validate.KindForbiddenCharacter {
			bad.Fprintf(w, "Domain property contains an invalid character \"%s\": %s\n", e.Char, r.Domain)
			continue
		}
		bad.Fprintln(w, e.String())
	}
}
