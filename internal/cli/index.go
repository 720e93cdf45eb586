package cli

import (
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/ocfltools/internal/app"
	"github.com/vk/ocfltools/internal/executor"
	"github.com/vk/ocfltools/internal/hcl"
)

func newIndexCommand(v *viper.Viper) *cobra.Command {
	var objectID string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the objects of an OCFL repository",
		Long: `Walks the storage root with a pool of workers and indexes every object
whose crate validates. Invalid and failed objects are counted and logged;
they do not stop the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := appConfig(v, v.GetInt(keyWorkers))
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.OutOrStdout(), cfg, hcl.NewLoader())
			if err != nil {
				return failed(err)
			}
			summary, err := a.Index(cmd.Context(), objectID)
			if err != nil {
				return failed(err)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	f := cmd.Flags()
	f.String(keySource, "", "Path to the OCFL storage root.")
	f.String(keySearch, "", "URL of the search engine.")
	f.String(keyUsername, "", "Search engine username.")
	f.String(keyPassword, "", "Search engine password.")
	f.Int(keyWorkers, runtime.NumCPU()*4, "Number of concurrent workers.")
	f.Int(keyHealthcheckPort, 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	f.Bool(keyDryRun, false, "Index into memory instead of the search engine.")
	f.StringVar(&objectID, "id", "", "Index only the object with this inventory id.")

	return cmd
}

func printSummary(w io.Writer, s executor.Summary) {
	c := color.New(color.FgGreen, color.Bold)
	if s.Failed > 0 {
		c = color.New(color.FgYellow, color.Bold)
	}
	c.Fprintf(w, "Indexed %d of %d packages (%d invalid, %d failed, %d segments)\n",
		s.Indexed, s.Packages, s.Invalid, s.Failed, s.Segments)
}
