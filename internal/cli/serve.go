package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/api"
)

// serveCommand creates the serve command, which exposes one data file over
// the query API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a data file over HTTP",
		Long: `Load a data file and answer queries about it over HTTP: the summary,
lineages, positions per time point, cell fates and tracking problems, plus
the lineage tree as SVG. Error markers can be set and dismissed with POST
requests; they are kept in memory only.

Stop the server with Ctrl+C.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			exp, err := c.loadExperiment(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			printInfo("Listening on %s", StyleLink.Render("http://"+addr+"/api/summary"))
			return api.New(exp, runner, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config, localhost:8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
