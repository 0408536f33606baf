// cmd/scrape.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiflow/internal/scrape"
)

func newScrapeCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect sample tests from a documentation site into a JSON file",
		Long: `Fetches the index page, follows every link in its navigation menu and
records the sample tests found in each page's content section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := state.cfg.Scrape, state.logger

			pages, err := scrape.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scrape failed: %w", err)
			}
			if err := scrape.WriteJSON(cfg.Output, pages); err != nil {
				return err
			}

			logger.Info("Scrape complete.", zap.Int("pages", len(pages)), zap.String("output", cfg.Output))
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Output)
			return nil
		},
	}

	cmd.Flags().String("url", "", "index page to start from")
	cmd.Flags().String("base", "", "base URL that menu links resolve against")
	cmd.Flags().String("out", "", "path of the JSON output file")
	cmd.Flags().Int("concurrency", 0, "pages fetched in parallel")
	return cmd
}
