package users

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage/jsonfile"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	coll *jsonfile.Collection[User]
}

// NewRepository constructs a users repo bound to the provided store.
func NewRepository(store *jsonfile.Store) (*Repository, error) {
	coll, err := jsonfile.NewCollection(store, CollectionName, userID)
	if err != nil {
		return nil, fmt.Errorf("users collection: %w", err)
	}
	return &Repository{coll: coll}, nil
}

// Create appends a new user. The email must not already be taken, even by a
// record that no longer decodes; the comparison is exact and case-sensitive. The check and the id allocation
// happen under the same collection lock.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	var created User
	err := r.coll.Update(ctx, func(tx *jsonfile.Tx[User]) error {
		for _, existing := range tx.Records {
			if existing.Email == dto.Email {
				return pkgerrors.New(pkgerrors.CodeDuplicateEmail, "Email already exists")
			}
		}
		for _, raw := range tx.Opaque() {
			if email, ok := storedEmail(raw); ok && email == dto.Email {
				return pkgerrors.New(pkgerrors.CodeDuplicateEmail, "Email already exists")
			}
		}
		created = dto.toModel(tx.NextID())
		tx.Records = append(tx.Records, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByEmail returns the first user with the exact email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findFirst(ctx, func(u User) bool { return u.Email == email })
}

// FindByUsername returns the first user with the exact username, or nil.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findFirst(ctx, func(u User) bool { return u.Username == username })
}

// FindByID returns the user with id, or nil.
func (r *Repository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findFirst(ctx, func(u User) bool { return u.ID == id })
}

// Count returns how many users are stored.
func (r *Repository) Count(ctx context.Context) (int, error) {
	all, err := r.coll.Read(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// UpdatePassword replaces the stored hash of user id.
func (r *Repository) UpdatePassword(ctx context.Context, id int, hash string) error {
	return r.coll.Update(ctx, func(tx *jsonfile.Tx[User]) error {
		for i := range tx.Records {
			if tx.Records[i].ID == id {
				tx.Records[i].Password = hash
				return nil
			}
		}
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	})
}

func (r *Repository) findFirst(ctx context.Context, pred func(User) bool) (*User, error) {
	found, ok, err := r.coll.Find(ctx, pred)
	if err != nil || !ok {
		return nil, err
	}
	return &found, nil
}
