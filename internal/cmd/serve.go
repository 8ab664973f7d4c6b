package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle-with-friends/internal/bot"
	"github.com/robalobadob/wordle-with-friends/internal/config"
	"github.com/robalobadob/wordle-with-friends/internal/httpserver"
	"github.com/robalobadob/wordle-with-friends/internal/metrics"
	"github.com/robalobadob/wordle-with-friends/internal/store"
	"github.com/robalobadob/wordle-with-friends/internal/telegram"
	"github.com/robalobadob/wordle-with-friends/internal/words"
)

func newServeCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	dict, err := words.Load(cfg.Words.File)
	if err != nil {
		return err
	}
	legal, answers := dict.Stats()
	log.Info().Int("legal", legal).Int("answers", answers).Msg("word list loaded")

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()
	ctrl := bot.NewController(st, dict, m)

	var (
		tg      *telegram.Bot
		webhook http.Handler
	)
	if cfg.Telegram.Mode != config.ModeOff {
		api, err := telegram.Connect(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		handler := bot.NewHandler(ctrl, bot.NewPending(cfg.Pending.Size, cfg.Pending.TTL),
			bot.Links{BotUsername: api.Self.UserName})
		tg = telegram.New(api, handler, telegram.Config{
			Rate:          cfg.Telegram.Rate,
			WebhookSecret: cfg.Telegram.WebhookSecret,
		})
		if cfg.Telegram.Mode == config.ModeWebhook {
			if err := tg.RegisterWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
				return err
			}
			webhook = tg.WebhookHandler()
		}
	}

	srv := httpserver.New(httpserver.Options{
		Games:        ctrl,
		Dict:         dict,
		Metrics:      m,
		Webhook:      webhook,
		ClientOrigin: cfg.HTTP.CORSOrigin,
		HideGames:    !cfg.HTTP.GamesAPI,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, cfg.HTTP.Addr) })
	if tg != nil && cfg.Telegram.Mode == config.ModePoll {
		g.Go(func() error { return tg.Poll(ctx) })
	}
	log.Info().Str("mode", cfg.Telegram.Mode).Str("store", cfg.Store.Driver).Msg("wordlebot running")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	log.Info().Msg("wordlebot stopped")
	return nil
}
