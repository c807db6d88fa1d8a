package domain

import (
	"context"
	"time"
)

// Identity is a credential record owned by the user store.
type Identity struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type IdentityStore interface {
	IdentityLookup
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, identity Identity) (*Identity, error)
}
