package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/camdenv/website/internal/config"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the post store from the content repository",
	Long: `resync lists every file under posts/ in the content repository,
fetches and parses each one, and replaces the entire store contents in a
single transaction. Run it for cold starts and backfills; day-to-day updates
arrive through the push webhook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}

		deps, err := buildServices(cfg)
		if err != nil {
			return err
		}
		defer deps.close()

		log.Info().Str("repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo).Msg("Starting full resync")
		return deps.posts.FullResync(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}
