// README: Ride lifecycle engine; every transition is one conditional store write.
package ride

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"cityride/internal/modules/estimate"
	"cityride/internal/types"
)

var (
	ErrNotFound     = errors.New("ride not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("caller already has an active ride")
	ErrAlreadyTaken = errors.New("ride already taken by another driver")
	ErrValidation   = errors.New("missing or malformed ride fields")
)

// Estimator seeds a new ride's displayed fare and ETA. Pure; the engine
// persists the result as its own explicit write.
type Estimator interface {
	Estimate(pickup, dropoff *types.Point) estimate.Estimate
}

// Notifier pushes a status change to connected clients. Optional.
type Notifier interface {
	RideChanged(r *Ride)
}

// Publisher broadcasts transition events to external consumers. Optional.
type Publisher interface {
	PublishTransition(ctx context.Context, e Event) error
}

type Service struct {
	store     Store
	estimator Estimator
	notifier  Notifier
	publisher Publisher
}

func NewService(store Store, estimator Estimator, notifier Notifier, publisher Publisher) *Service {
	return &Service{store: store, estimator: estimator, notifier: notifier, publisher: publisher}
}

// casAttempts bounds the re-read/re-issue loop for transitions that lose a
// status race. The loop retries the single conditional update, never the
// surrounding flow.
const casAttempts = 3

type CreateCommand struct {
	PassengerID    types.ID
	PickupAddress  string
	DropoffAddress string
	Notes          string
	Pickup         *types.Point
	Dropoff        *types.Point
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.PassengerID == "" ||
		strings.TrimSpace(cmd.PickupAddress) == "" ||
		strings.TrimSpace(cmd.DropoffAddress) == "" {
		return nil, ErrValidation
	}

	r := &Ride{
		ID:             types.ID(uuid.NewString()),
		PassengerID:    cmd.PassengerID,
		PickupAddress:  strings.TrimSpace(cmd.PickupAddress),
		DropoffAddress: strings.TrimSpace(cmd.DropoffAddress),
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		Notes:          cmd.Notes,
		Status:         StatusRequested,
		CreatedAt:      time.Now().UTC(),
	}
	if s.estimator != nil {
		est := s.estimator.Estimate(cmd.Pickup, cmd.Dropoff)
		minutes := est.DurationMin
		r.EstimatedFare = est.Fare.Total
		r.EstimatedTime = &minutes
	}

	ok, err := s.store.CreateIfNoActive(ctx, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.afterTransition(ctx, r, StatusNone, "passenger", &r.PassengerID)
	return r, nil
}

// Confirm releases a requested ride into the waiting pool.
func (s *Service) Confirm(ctx context.Context, rideID, passengerID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusWaiting, "passenger", &passengerID, func(r *Ride) error {
		if r.PassengerID != passengerID {
			return ErrNotFound
		}
		if r.Status != StatusRequested {
			return ErrInvalidState
		}
		return nil
	})
}

// Accept binds a driver to a waiting ride. Exactly one of N concurrent
// callers wins; the store's conditional update is the arbiter.
func (s *Service) Accept(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	if driverID == "" {
		return nil, ErrValidation
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := acceptableFrom(r.Status); err != nil {
		return nil, err
	}

	ok, err := s.store.AcceptWaiting(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the conditional update. Re-read once to report the right
		// cause: another driver won, the ride left the pool, or this
		// driver is still bound elsewhere.
		cur, err := s.store.Get(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusWaiting {
			return nil, ErrConflict
		}
		return nil, acceptableFrom(cur.Status)
	}

	d := driverID
	updated := *r
	updated.Status = StatusAccepted
	updated.DriverID = &d
	s.afterTransition(ctx, &updated, StatusWaiting, "driver", &d)
	return &updated, nil
}

func acceptableFrom(st Status) error {
	switch st {
	case StatusWaiting:
		return nil
	case StatusAccepted, StatusPickedUp:
		return ErrAlreadyTaken
	default:
		return ErrInvalidState
	}
}

// Reject lets a driver decline a waiting ride. The ride is cancelled, not
// re-queued; the passenger sees the cancellation and requests again.
func (s *Service) Reject(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusCancelled, "driver", &driverID, func(r *Ride) error {
		if r.Status != StatusWaiting {
			return ErrInvalidState
		}
		return nil
	})
}

func (s *Service) MarkPickedUp(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusPickedUp, "driver", &driverID, func(r *Ride) error {
		if err := ownedByDriver(r, driverID); err != nil {
			return err
		}
		if r.Status != StatusAccepted {
			return ErrInvalidState
		}
		return nil
	})
}

func (s *Service) Complete(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusCompleted, "driver", &driverID, func(r *Ride) error {
		if err := ownedByDriver(r, driverID); err != nil {
			return err
		}
		if r.Status != StatusAccepted && r.Status != StatusPickedUp {
			return ErrInvalidState
		}
		return nil
	})
}

func (s *Service) CancelByPassenger(ctx context.Context, rideID, passengerID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusCancelled, "passenger", &passengerID, func(r *Ride) error {
		if r.PassengerID != passengerID {
			return ErrNotFound
		}
		switch r.Status {
		case StatusRequested, StatusWaiting, StatusAccepted:
			return nil
		default:
			return ErrInvalidState
		}
	})
}

func (s *Service) CancelByDriver(ctx context.Context, rideID, driverID types.ID) (*Ride, error) {
	return s.transition(ctx, rideID, StatusCancelled, "driver", &driverID, func(r *Ride) error {
		if err := ownedByDriver(r, driverID); err != nil {
			return err
		}
		if r.Status != StatusAccepted && r.Status != StatusPickedUp {
			return ErrInvalidState
		}
		return nil
	})
}

// Get returns a ride visible to the caller: its passenger or its bound
// driver. Anyone else gets ErrNotFound, same as a missing ride.
func (s *Service) Get(ctx context.Context, rideID, callerID types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.PassengerID == callerID {
		return r, nil
	}
	if r.DriverID != nil && *r.DriverID == callerID {
		return r, nil
	}
	return nil, ErrNotFound
}

// OpenRides is the waiting pool, oldest request first.
func (s *Service) OpenRides(ctx context.Context) ([]*Ride, error) {
	return s.store.OpenRides(ctx)
}

func (s *Service) ActiveForPassenger(ctx context.Context, passengerID types.ID) (*Ride, error) {
	return s.store.ActiveByPassenger(ctx, passengerID)
}

func (s *Service) ActiveForDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	return s.store.ActiveByDriver(ctx, driverID)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (s *Service) History(ctx context.Context, role HistoryRole, id types.ID, limit int) ([]*Ride, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.History(ctx, role, id, limit)
}

// transition runs the shared read → check → conditional-update loop. The
// check closure sees a fresh record on every attempt, so ownership and
// state rules are re-evaluated after a lost race.
func (s *Service) transition(ctx context.Context, rideID types.ID, to Status, actorType string, actorID *types.ID, check func(*Ride) error) (*Ride, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		r, err := s.store.Get(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if err := check(r); err != nil {
			return nil, err
		}
		ok, err := s.store.UpdateStatus(ctx, rideID, r.Status, to)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		from := r.Status
		updated := *r
		updated.Status = to
		s.afterTransition(ctx, &updated, from, actorType, actorID)
		return &updated, nil
	}
	return nil, ErrConflict
}

func (s *Service) afterTransition(ctx context.Context, r *Ride, from Status, actorType string, actorID *types.ID) {
	e := Event{
		RideID:     r.ID,
		FromStatus: from,
		ToStatus:   r.Status,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	}
	// The transition itself is already durable; audit and fan-out are
	// best effort.
	_ = s.store.AppendEvent(ctx, &e)
	if s.publisher != nil {
		_ = s.publisher.PublishTransition(ctx, e)
	}
	if s.notifier != nil {
		s.notifier.RideChanged(r)
	}
}

func ownedByDriver(r *Ride, driverID types.ID) error {
	if driverID == "" || r.DriverID == nil || *r.DriverID != driverID {
		return ErrNotFound
	}
	return nil
}
