// README: User and driver-profile definitions.
package account

import (
	"time"

	"cityride/internal/types"
)

type User struct {
	ID           types.ID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         types.Role
	CreatedAt    time.Time
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// DriverProfile carries the driver-only fields; a driver row always pairs
// with a users row of role driver.
type DriverProfile struct {
	UserID        types.ID
	LicenseNumber string
	VehicleInfo   string
	Verification  VerificationStatus
	CreatedAt     time.Time
}
