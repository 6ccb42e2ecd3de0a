// README: Account store backed by PostgreSQL.
package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cityride/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, u *User) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, role, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM users WHERE email = $3 OR phone = $4
		)`,
		string(u.ID), u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) GetUser(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, role, created_at
		FROM users WHERE id = $1`, string(id),
	)
	return scanUser(row)
}

func (s *PGStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, role, created_at
		FROM users WHERE email = $1`, email,
	)
	return scanUser(row)
}

func (s *PGStore) CreateDriverProfile(ctx context.Context, p *DriverProfile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (user_id, license_number, vehicle_info, verification_status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(p.UserID), p.LicenseNumber, p.VehicleInfo, string(p.Verification), p.CreatedAt,
	)
	return err
}

func (s *PGStore) GetDriverProfile(ctx context.Context, userID types.ID) (*DriverProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, license_number, vehicle_info, verification_status, created_at
		FROM drivers WHERE user_id = $1`, string(userID),
	)
	var p DriverProfile
	err := row.Scan(&p.UserID, &p.LicenseNumber, &p.VehicleInfo, &p.Verification, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) SetVerification(ctx context.Context, userID types.ID, status VerificationStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET verification_status = $1 WHERE user_id = $2`,
		string(status), string(userID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) PendingDrivers(ctx context.Context) ([]*DriverProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, license_number, vehicle_info, verification_status, created_at
		FROM drivers
		WHERE verification_status = 'pending'
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DriverProfile
	for rows.Next() {
		var p DriverProfile
		if err := rows.Scan(&p.UserID, &p.LicenseNumber, &p.VehicleInfo, &p.Verification, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
