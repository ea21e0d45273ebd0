package main

import (
	"errors"
	"fmt"

	"github.com/bobchat/cli/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var to storage.Options

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the stored token and conversations to another storage backend",
		Example: `  bobchat migrate --to sqlite --to-path ~/.bobchat/bobchat.sqlite
  bobchat migrate --to postgres --to-dsn postgres://localhost/bobchat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			src, err := storage.Open(ctx, cfg.StorageOptions())
			if err != nil {
				return fmt.Errorf("failed to open source storage: %w", err)
			}
			defer src.Close()

			dst, err := storage.Open(ctx, to)
			if err != nil {
				return fmt.Errorf("failed to open target storage: %w", err)
			}
			defer dst.Close()

			n, err := storage.Copy(ctx, dst, src, storage.KeyToken, storage.KeyConversations)
			if err != nil {
				return err
			}
			log.Info().Str("from", cfg.Storage.Driver).Str("to", to.Driver).Int("keys", n).Msg("migrated storage")
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d keys from %s to %s\n", n, cfg.Storage.Driver, to.Driver)
			if n == 0 {
				return errors.New("nothing to migrate")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to.Driver, "to", "", "target driver: bolt, sqlite, postgres, redis")
	cmd.Flags().StringVar(&to.Path, "to-path", "", "target bolt or sqlite file")
	cmd.Flags().StringVar(&to.DSN, "to-dsn", "", "target postgres connection string")
	cmd.Flags().StringVar(&to.RedisAddr, "to-redis-addr", "", "target redis address")
	cmd.Flags().StringVar(&to.RedisPrefix, "to-redis-prefix", "bobchat:", "target redis key prefix")
	cobra.CheckErr(cmd.MarkFlagRequired("to"))
	return cmd
}
