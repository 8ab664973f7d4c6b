package cmd

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle-with-friends/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates the wordlebot command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "wordlebot",
		Short: "Wordle with Friends chat bot",
		Long: `wordlebot runs Wordle with Friends: one player picks a word in a
private chat with the bot and a group chat tries to guess it in six tries.`,
		Version:      Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		setupLogging(cfg.Log.Level)
		return cfg, nil
	}

	cmd.AddCommand(newServeCommand(load))
	cmd.AddCommand(newMigrateCommand(load))
	cmd.AddCommand(newPlayCommand(load))

	return cmd
}

// setupLogging configures the global zerolog logger.
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
