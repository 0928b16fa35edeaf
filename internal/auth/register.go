package auth

import (
	"context"
	"net/mail"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const registeredMessage = "User created successfully"

// Register creates a ROLE_USER account. Admin accounts only come from
// LoadFixtures, whatever email is registered here.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        req.Email,
		Username:     req.Username,
		Firstname:    req.Firstname,
		PasswordHash: hash,
		Role:         enums.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, user.ID)
	s.logg.Info(ctx, "auth.register.created")

	return &RegisterResponse{
		Message: registeredMessage,
		User: RegisteredUser{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	}, nil
}

// validateRegister runs the checks that survive a request that bypassed the
// HTTP validator: blank fields and email syntax.
func validateRegister(req RegisterRequest) error {
	fields := []struct {
		name  string
		value string
	}{
		{"email", req.Email},
		{"username", req.Username},
		{"firstname", req.Firstname},
		{"password", req.Password},
	}
	var empty []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			empty = append(empty, f.name)
		}
	}
	if len(empty) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Fields cannot be empty").
			WithDetails(map[string]any{"empty_fields": empty})
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid email format")
	}
	return nil
}
