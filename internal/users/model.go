package users

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CollectionName is the storage collection holding accounts.
const CollectionName = "users"

// User is an account as stored in users.json. Password holds the hash.
type User struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Firstname string     `json:"firstname"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      enums.Role `json:"role,omitempty"`
}

type userFields User

// UnmarshalJSON accepts an id written as a numeric string.
func (u *User) UnmarshalJSON(data []byte) error {
	var wire struct {
		userFields
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id, err := types.DecodeInt(wire.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*u = User(wire.userFields)
	u.ID = id
	return nil
}

// ResolveRole returns the stored role. Records written before roles were
// stored resolve to admin only when their email is the bootstrap admin email.
func (u *User) ResolveRole(adminEmail string) enums.Role {
	if u.Role.IsValid() {
		return u.Role
	}
	if adminEmail != "" && u.Email == adminEmail {
		return enums.RoleAdmin
	}
	return enums.RoleUser
}

func userID(u User) int {
	return u.ID
}

// storedEmail reads the email of a record that did not decode into User.
func storedEmail(raw json.RawMessage) (string, bool) {
	var wire struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return "", false
	}
	return wire.Email, wire.Email != ""
}
