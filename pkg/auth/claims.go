package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int
	Email  string
	Role   enums.Role
}

// AccessTokenClaims represents the typed JWT issued to clients. The user id
// is carried both as the registered subject and as a numeric claim.
type AccessTokenClaims struct {
	UserID int        `json:"uid"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
