package auth

import "github.com/angelmondragon/storefront-backend/internal/users"

// LoginRequest captures the user credentials sent to the token endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed access token.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int            `json:"expiresIn"`
	User      *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required to open an account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	Firstname string `json:"firstname" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// RegisteredUser is the subset of the account echoed back after registration.
type RegisteredUser struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// RegisterResponse is returned with 201 Created.
type RegisterResponse struct {
	Message string         `json:"message"`
	User    RegisteredUser `json:"user"`
}
