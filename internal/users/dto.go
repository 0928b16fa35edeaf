package users

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Firstname string     `json:"firstname"`
	Email     string     `json:"email"`
	Role      enums.Role `json:"role"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Username     string
	Firstname    string
	PasswordHash string
	Role         enums.Role
}

// FromModel builds the public view of u with its resolved role.
func FromModel(u *User, adminEmail string) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Email:     u.Email,
		Role:      u.ResolveRole(adminEmail),
	}
}

func (c CreateUserDTO) toModel(id int) User {
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleUser
	}
	return User{
		ID:        id,
		Username:  c.Username,
		Firstname: c.Firstname,
		Email:     c.Email,
		Password:  c.PasswordHash,
		Role:      role,
	}
}
