// README: Ride store backed by PostgreSQL; all transitions are single conditional statements.
package ride

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cityride/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const rideColumns = `
	id, passenger_id, driver_id, pickup_address, dropoff_address,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	notes, status, estimated_fare, estimated_time_minutes, created_at`

func (s *PGStore) CreateIfNoActive(ctx context.Context, r *Ride) (bool, error) {
	var pickupLat, pickupLng, dropoffLat, dropoffLng *float64
	if r.Pickup != nil {
		pickupLat, pickupLng = &r.Pickup.Lat, &r.Pickup.Lng
	}
	if r.Dropoff != nil {
		dropoffLat, dropoffLng = &r.Dropoff.Lat, &r.Dropoff.Lng
	}
	// The WHERE NOT EXISTS guard makes insert-vs-insert races resolve to a
	// single winner without a prior read.
	tag, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, passenger_id, pickup_address, dropoff_address,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			notes, status, estimated_fare, estimated_time_minutes, created_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		WHERE NOT EXISTS (
			SELECT 1 FROM rides
			WHERE passenger_id = $2
			  AND status IN ('requested','waiting','accepted','picked_up')
		)`,
		string(r.ID),
		string(r.PassengerID),
		r.PickupAddress,
		r.DropoffAddress,
		pickupLat, pickupLng, dropoffLat, dropoffLng,
		r.Notes,
		string(r.Status),
		r.EstimatedFare,
		r.EstimatedTime,
		r.CreatedAt,
	)
	if err != nil {
		// Two truly concurrent inserts can both pass the NOT EXISTS guard
		// under READ COMMITTED; the partial unique index then rejects the
		// loser, which is the same outcome as losing the guard.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	return scanRide(row)
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AcceptWaiting(ctx context.Context, id types.ID, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = 'accepted', driver_id = $1
		WHERE id = $2 AND status = 'waiting'
		  AND NOT EXISTS (
			SELECT 1 FROM rides
			WHERE driver_id = $1 AND status IN ('accepted','picked_up')
		  )`,
		string(driverID), string(id),
	)
	if err != nil {
		// Same driver racing two different waiting rides: both updates can
		// pass the NOT EXISTS guard and the driver-active unique index
		// rejects the second. Report it as a lost conditional write.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ActiveByPassenger(ctx context.Context, passengerID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE passenger_id = $1
		  AND status IN ('requested','waiting','accepted','picked_up')
		ORDER BY created_at DESC
		LIMIT 1`, string(passengerID),
	)
	return scanRide(row)
}

func (s *PGStore) ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE driver_id = $1
		  AND status IN ('accepted','picked_up')
		LIMIT 1`, string(driverID),
	)
	return scanRide(row)
}

func (s *PGStore) OpenRides(ctx context.Context) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE status = 'waiting'
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (s *PGStore) History(ctx context.Context, role HistoryRole, id types.ID, limit int) ([]*Ride, error) {
	col := "passenger_id"
	if role == HistoryDriver {
		col = "driver_id"
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE `+col+` = $1
		  AND status IN ('completed','cancelled')
		ORDER BY created_at DESC
		LIMIT $2`, string(id), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_events (
			ride_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtrToString(e.ActorID),
		e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var driverID, notes sql.NullString
	var pickupLat, pickupLng, dropoffLat, dropoffLng sql.NullFloat64
	var estimatedTime sql.NullInt64

	err := row.Scan(
		&r.ID, &r.PassengerID, &driverID, &r.PickupAddress, &r.DropoffAddress,
		&pickupLat, &pickupLng, &dropoffLat, &dropoffLng,
		&notes, &r.Status, &r.EstimatedFare, &estimatedTime, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	if notes.Valid {
		r.Notes = notes.String
	}
	if pickupLat.Valid && pickupLng.Valid {
		r.Pickup = &types.Point{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	if dropoffLat.Valid && dropoffLng.Valid {
		r.Dropoff = &types.Point{Lat: dropoffLat.Float64, Lng: dropoffLng.Float64}
	}
	if estimatedTime.Valid {
		n := int(estimatedTime.Int64)
		r.EstimatedTime = &n
	}
	return &r, nil
}

func scanRides(rows pgx.Rows) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func idPtrToString(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
