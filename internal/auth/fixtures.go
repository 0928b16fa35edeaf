package auth

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fixtureUsers interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*users.User, error)
}

type fixtureHasher interface {
	Hash(password string) (string, error)
}

// LoadFixtures creates the bootstrap administrator when the users collection
// is empty. It reports whether an account was created.
func LoadFixtures(ctx context.Context, repo fixtureUsers, hasher fixtureHasher, admin config.AdminConfig, logg *logger.Logger) (bool, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	count, err := repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logg.Info(ctx, "fixtures.users.skipped")
		return false, nil
	}

	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	created, err := repo.Create(ctx, users.CreateUserDTO{
		Email:        admin.Email,
		Username:     admin.Username,
		Firstname:    admin.Firstname,
		PasswordHash: hash,
		Role:         enums.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	ctx = logg.WithUserID(ctx, created.ID)
	logg.Info(ctx, "fixtures.users.admin_created")
	return true, nil
}
