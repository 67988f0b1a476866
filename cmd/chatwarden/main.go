package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatwarden/internal/config"
	"chatwarden/internal/economy"
	"chatwarden/internal/engine"
	"chatwarden/internal/logutil"
	"chatwarden/internal/platform"
	"chatwarden/internal/storage"
	"chatwarden/internal/version"

	_ "chatwarden/internal/extension/customcmd"
	_ "chatwarden/internal/extension/general"
	_ "chatwarden/internal/extension/points"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log := logutil.New(cfg.LogPath, cfg.LogLevel)
	log.Info().Str("version", version.AppVersion).Msgf("Starting %s", version.AppName)

	store, err := storage.New(cfg.StoragePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}

	connector := platform.NewTwitch(cfg.BotName, cfg.OAuthToken, cfg.Channel, cfg.SendRate, log)

	var live economy.LiveChecker
	if cfg.HelixClientID != "" && cfg.HelixClientSecret != "" {
		checker, err := platform.NewHelixLive(cfg.HelixClientID, cfg.HelixClientSecret, cfg.Channel, log)
		if err != nil {
			log.Error().Err(err).Msg("Stream API unavailable, payouts fall back to offline rates")
		} else {
			live = checker
		}
	}

	eng := engine.New(cfg.BotName, cfg.Channel, store, connector, live, log)
	if err := eng.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Engine initialization failed")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	if err := eng.Disconnect(); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
