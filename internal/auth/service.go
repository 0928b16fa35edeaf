package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo   userRepository
	Hasher     passwordHasher
	JWTConfig  config.JWTConfig
	AdminEmail string
	Logger     *logger.Logger
}

type service struct {
	users      userRepository
	hasher     passwordHasher
	jwtCfg     config.JWTConfig
	adminEmail string
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the account service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:      params.UserRepo,
		hasher:     params.Hasher,
		jwtCfg:     params.JWTConfig,
		adminEmail: params.AdminEmail,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	role := user.ResolveRole(s.adminEmail)
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwtCfg.TTL().Seconds()),
		User:      users.FromModel(user, s.adminEmail),
	}, nil
}

// authenticate matches the email exactly, as stored.
func (s *service) authenticate(ctx context.Context, email, password string) (*users.User, error) {
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email and password are required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		ctx = s.logg.WithUserID(ctx, user.ID)
		s.logg.Warn(ctx, "auth.login.unreadable_hash")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	s.upgradeHash(ctx, user, password)
	return user, nil
}

// upgradeHash re-encodes legacy or outdated hashes after a successful login.
// Failures are logged and do not block the login.
func (s *service) upgradeHash(ctx context.Context, user *users.User, password string) {
	if !s.hasher.NeedsRehash(user.Password) {
		return
	}
	ctx = s.logg.WithUserID(ctx, user.ID)
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logg.Error(ctx, "auth.login.rehash_failed", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logg.Error(ctx, "auth.login.rehash_failed", err)
		return
	}
	user.Password = hash
	s.logg.Info(ctx, "auth.login.rehashed")
}

var _ passwordHasher = (*security.Hasher)(nil)
