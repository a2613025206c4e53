// Package main provides the entry point for the SeeLayer application.
package main

import (
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"

	"seelayer/internal/config"
	"seelayer/internal/store"
	"seelayer/internal/version"
	"seelayer/ui/gallery"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	log.Info().Str("version", version.Version).Str("data_dir", cfg.DataDir).Msg("starting seelayer")

	db, err := store.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	drafts, err := store.NewDrafts(cfg.DraftDir)
	if err != nil {
		log.Fatal().Err(err).Msg("open draft store")
	}

	fyneApp := app.NewWithID("io.seelayer.app")
	win := gallery.New(fyneApp, cfg, db, drafts, log)
	win.ShowAndRun()
}
