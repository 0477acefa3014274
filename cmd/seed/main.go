package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/docflow/modules/core/domain/aggregates/user"
	"github.com/iota-uz/docflow/modules/core/infrastructure/persistence"
	"github.com/iota-uz/docflow/pkg/composables"
	"github.com/iota-uz/docflow/pkg/configuration"
)

var demoUsers = []struct {
	email string
	name  string
}{
	{"alice@example.com", "Alice Creator"},
	{"bob@example.com", "Bob Reviewer"},
	{"carol@example.com", "Carol Approver"},
}

// Seeds demo accounts for local development. Idempotent: existing emails
// are left alone.
func main() {
	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	ctx = composables.WithPool(ctx, pool)
	repo := persistence.NewUserRepository()

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		for _, demo := range demoUsers {
			if _, err := repo.GetByEmail(txCtx, demo.email); err == nil {
				logger.WithField("email", demo.email).Info("user already seeded")
				continue
			}
			entity := user.New(demo.email, demo.name)
			if err := entity.SetPassword("password123"); err != nil {
				return err
			}
			if _, err := repo.Create(txCtx, entity); err != nil {
				return err
			}
			logger.WithField("email", demo.email).Info("seeded user")
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
}
