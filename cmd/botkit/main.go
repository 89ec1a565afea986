package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speechbubble/botkit/internal/client"
	"github.com/speechbubble/botkit/internal/config"
	"github.com/speechbubble/botkit/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath     string
		flagCfg     config.Config
		noReconnect bool
	)

	cmd := &cobra.Command{
		Use:     "botkit",
		Short:   "SpeechBubble chat bot client",
		Long:    "Connects to a SpeechBubble chat server, keeps the session alive and logs channel activity.",
		Version: client.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(flagCfg.LogLevel)

			cfg, path, err := config.Load(logger, cfgPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(flagCfg)
			if noReconnect {
				cfg.Reconnect = false
			}
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("server", cfg.URL()).Msg("starting botkit")

			cli := client.New(cfg, logger)
			defer cli.Close()

			cli.On(client.EventLogin, func(client.Event) {
				logger.Info().Msg("session established")
			})
			cli.On(client.EventClose, func(ev client.Event) {
				logger.Warn().Int("code", int(ev.Code)).Str("reason", ev.Reason).Msg("disconnected")
			})
			cli.On("said", func(ev client.Event) {
				if ev.Chat == nil {
					return
				}
				logger.Info().
					Str("channel", ev.Chat.ChannelID).
					Str("from", ev.Chat.Username).
					Str("type", ev.Chat.Type).
					Bool("admin", ev.Chat.IsAdmin).
					Msg(ev.Chat.Text)
			})
			cli.OnAny(func(ev client.Event) {
				logger.Debug().Str("event", ev.Name).RawJSON("data", ev.Data).Msg("server event")
			})

			cli.Connect()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info().Msg("shutting down")
			cli.Disconnect()
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&flagCfg.Host, "host", "", "chat server host")
	cmd.Flags().IntVar(&flagCfg.Port, "port", 0, "chat server port")
	cmd.Flags().BoolVar(&flagCfg.SSL, "ssl", false, "use a secure transport")
	cmd.Flags().StringVarP(&flagCfg.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&flagCfg.Password, "password", "p", "", "account password")
	cmd.Flags().StringSliceVar(&flagCfg.Autojoin, "join", nil, "channels to join after login")
	cmd.Flags().BoolVar(&noReconnect, "no-reconnect", false, "disable automatic reconnect")
	cmd.Flags().StringVar(&flagCfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}
