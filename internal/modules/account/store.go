// README: Store contract for accounts and driver profiles.
package account

import (
	"context"

	"cityride/internal/types"
)

type Store interface {
	// CreateUser inserts the user, returning false when the email or
	// phone is already registered.
	CreateUser(ctx context.Context, u *User) (bool, error)
	GetUser(ctx context.Context, id types.ID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateDriverProfile(ctx context.Context, p *DriverProfile) error
	GetDriverProfile(ctx context.Context, userID types.ID) (*DriverProfile, error)
	SetVerification(ctx context.Context, userID types.ID, status VerificationStatus) (bool, error)
	PendingDrivers(ctx context.Context) ([]*DriverProfile, error)
}
