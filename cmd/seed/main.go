package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/scent-recommender/config"
	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/kvdriver"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/userstore"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	handles, err := kvdriver.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open kv store: %v", err)
	}
	defer handles.Close()

	repo := userstore.NewUserRepository(handles.KV, cfg.KVUsersKey)
	auth := application.NewAuthService(repo, helpers.DefaultJWT(), handles.Redis, nil, logger)

	user := "demoUser"
	password := "password123"
	if _, err := auth.Register(ctx, user, password, password); err != nil {
		if !errors.Is(err, application.ErrUsernameTaken) {
			log.Fatalf("failed to seed user: %v", err)
		}
		fmt.Printf("user %s already exists\n", user)
	} else {
		fmt.Printf("seeded user: username=%s password=%s\n", user, password)
	}

	// Give the demo user a starting preference so recommendations work immediately.
	rec, err := repo.Update(ctx, user, func(p *entity.PreferenceRecord) error {
		if p.Scents == "" {
			p.Scents = "bergamot, vetiver, amber"
		}
		return nil
	})
	if err != nil {
		log.Fatalf("failed to seed preferences: %v", err)
	}
	fmt.Printf("preferences: scents=%q\n", rec.Scents)
}
