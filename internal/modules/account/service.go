// README: Account service: registration, login, and driver verification.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cityride/internal/types"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrExists             = errors.New("email or phone already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("missing or malformed account fields")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type RegisterPassengerCommand struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type RegisterDriverCommand struct {
	Name          string
	Email         string
	Phone         string
	Password      string
	LicenseNumber string
	VehicleInfo   string
}

func (s *Service) RegisterPassenger(ctx context.Context, cmd RegisterPassengerCommand) (*User, error) {
	return s.register(ctx, cmd.Name, cmd.Email, cmd.Phone, cmd.Password, types.RolePassenger)
}

// RegisterDriver creates the user plus a pending driver profile. The
// profile stays pending until an admin approves it; unapproved drivers
// cannot accept rides.
func (s *Service) RegisterDriver(ctx context.Context, cmd RegisterDriverCommand) (*User, error) {
	if strings.TrimSpace(cmd.LicenseNumber) == "" || strings.TrimSpace(cmd.VehicleInfo) == "" {
		return nil, ErrValidation
	}
	u, err := s.register(ctx, cmd.Name, cmd.Email, cmd.Phone, cmd.Password, types.RoleDriver)
	if err != nil {
		return nil, err
	}
	profile := &DriverProfile{
		UserID:        u.ID,
		LicenseNumber: strings.TrimSpace(cmd.LicenseNumber),
		VehicleInfo:   strings.TrimSpace(cmd.VehicleInfo),
		Verification:  VerificationPending,
		CreatedAt:     u.CreatedAt,
	}
	if err := s.store.CreateDriverProfile(ctx, profile); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) register(ctx context.Context, name, email, phone, password string, role types.Role) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if name == "" || email == "" || phone == "" {
		return nil, ErrValidation
	}
	if !PasswordStrong(password) {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           types.ID(uuid.NewString()),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	ok, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExists
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Unknown email and wrong password are indistinguishable.
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id types.ID) (*User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) DriverProfile(ctx context.Context, userID types.ID) (*DriverProfile, error) {
	return s.store.GetDriverProfile(ctx, userID)
}

// IsApprovedDriver is the verification check the ride surface runs before
// letting a driver browse or accept rides.
func (s *Service) IsApprovedDriver(ctx context.Context, userID types.ID) (bool, error) {
	p, err := s.store.GetDriverProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.Verification == VerificationApproved, nil
}

func (s *Service) ApproveDriver(ctx context.Context, userID types.ID) error {
	return s.setVerification(ctx, userID, VerificationApproved)
}

func (s *Service) RejectDriver(ctx context.Context, userID types.ID) error {
	return s.setVerification(ctx, userID, VerificationRejected)
}

func (s *Service) setVerification(ctx context.Context, userID types.ID, status VerificationStatus) error {
	ok, err := s.store.SetVerification(ctx, userID, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) PendingDrivers(ctx context.Context) ([]*DriverProfile, error) {
	return s.store.PendingDrivers(ctx)
}

const passwordSymbols = "!@#$%^&*()_+-=,."

// PasswordStrong requires at least 8 characters with a digit and a symbol.
func PasswordStrong(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var hasDigit, hasSymbol bool
	for _, c := range pw {
		switch {
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, c):
			hasSymbol = true
		}
	}
	return hasDigit && hasSymbol
}
