package flows

import (
	"context"
)

type LogoutStore interface {
	ClearRefreshToken(ctx context.Context, id string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store LogoutStore
}

// RunLogout clears the stored refresh token. Logging out an already
// logged-out or unknown account succeeds.
func RunLogout(ctx context.Context, accountID string, deps LogoutDeps) error {
	return deps.Store.ClearRefreshToken(ctx, accountID)
}
