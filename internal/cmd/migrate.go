package cmd

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle-with-friends/internal/config"
	"github.com/robalobadob/wordle-with-friends/internal/store"
)

func newMigrateCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			applied, err := migrate(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			if !applied {
				log.Info().Str("driver", cfg.Store.Driver).Msg("store has no schema, nothing to migrate")
				return nil
			}
			log.Info().Str("driver", cfg.Store.Driver).Msg("migrations applied")
			return nil
		},
	}
}

// migrate opens the store, which applies pending migrations, and closes it.
// It reports false for the memory driver, which keeps no schema.
func migrate(ctx context.Context, cfg store.Config) (bool, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return false, nil
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return false, err
	}
	return true, st.Close()
}
