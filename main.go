package main

import (
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/whoamaiii/jenjenmonster/internal/cards"
	"github.com/whoamaiii/jenjenmonster/internal/genai"
	"github.com/whoamaiii/jenjenmonster/internal/httpserver"
	"github.com/whoamaiii/jenjenmonster/internal/session"
	"github.com/whoamaiii/jenjenmonster/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("dbPath", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	kv := store.NewSQLite(db)
	cache := cards.NewCache(db)

	var client *genai.Client
	if cfg.OpenAIKey != "" {
		client = genai.NewClient(genai.ClientConfig{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIKey,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImageModel,
		})
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set; pack generation uses the fallback set")
	}
	gen := genai.NewService(client, rand.New(rand.NewSource(time.Now().UnixNano())))

	srv := httpserver.New(httpserver.Options{
		DB:               db,
		KV:               kv,
		Sessions:         session.New(kv),
		Cards:            cache,
		Gen:              gen,
		JWTSecret:        cfg.JWTSecret,
		JWTExpiresIn:     time.Duration(cfg.JWTExpiresDay) * 24 * time.Hour,
		ClientOrigin:     cfg.ClientOrigin,
		DailySalt:        cfg.DailySalt,
		Production:       cfg.production(),
		AutosaveInterval: cfg.Autosave,
	})

	log.Info().Str("port", cfg.Port).Str("dbPath", cfg.DBPath).Msg("starting jenjenmonster-go")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
