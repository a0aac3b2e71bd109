// cmd/seeduser/main.go creates or refreshes the operator accounts.
// Uso: SEED_ADMIN_PASSWORD=... go run ./cmd/seeduser
// Accounts whose password variable is empty are skipped.
package main

import (
	"context"
	"os"
	"time"

	"cantina/internal/access"
	"cantina/internal/config"
	"cantina/internal/infra"
	"cantina/internal/model"
	"cantina/internal/repository"
	"cantina/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type seed struct {
	username, name, role, password string
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	store := repository.NewEntityStore(db)
	defer store.Close()

	seeds := []seed{
		{"admin", "Administrador", access.RoleAdmin, cfg.SeedAdminPassword},
		{"wizard", "Cantina Wizard", access.RoleWizard, cfg.SeedWizardPassword},
		{"wizkids", "Cantina WizKids", access.RoleWizKids, cfg.SeedWizKidsPassword},
	}

	ctx := context.Background()
	created := 0
	for _, s := range seeds {
		if s.password == "" {
			log.Warn().Str("username", s.username).Msg("no password set, skipping")
			continue
		}
		hash, err := service.HashPassword(s.password)
		if err != nil {
			log.Fatal().Err(err).Msg("bcrypt error")
		}
		u := &model.User{
			Username:     s.username,
			Name:         s.name,
			PasswordHash: hash,
			Role:         s.role,
			Active:       true,
		}
		if err := store.Users.Upsert(ctx, u); err != nil {
			log.Fatal().Err(err).Str("username", s.username).Msg("upsert error")
		}
		log.Info().Str("username", s.username).Str("role", s.role).Msg("user created/updated")
		created++
	}
	if created == 0 {
		log.Fatal().Msg("no accounts seeded: set SEED_ADMIN_PASSWORD, SEED_WIZARD_PASSWORD or SEED_WIZKIDS_PASSWORD")
	}
}
