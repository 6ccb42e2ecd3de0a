// README: Ride aggregate, status definitions, and the transition table.
package ride

import (
	"time"

	"cityride/internal/types"
)

type Status string

const (
	// StatusNone is only used as the from-state of a creation event.
	StatusNone Status = "none"

	StatusRequested Status = "requested"
	StatusWaiting   Status = "waiting"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the states that count against the one-active-ride
// rule for passengers.
var ActiveStatuses = []Status{StatusRequested, StatusWaiting, StatusAccepted, StatusPickedUp}

// DriverActiveStatuses are the states that bind a driver exclusively.
var DriverActiveStatuses = []Status{StatusAccepted, StatusPickedUp}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Ride struct {
	ID             types.ID
	PassengerID    types.ID
	DriverID       *types.ID
	PickupAddress  string
	DropoffAddress string
	Pickup         *types.Point
	Dropoff        *types.Point
	Notes          string
	Status         Status
	EstimatedFare  float64
	EstimatedTime  *int // minutes, written when estimation runs
	CreatedAt      time.Time
}

// Event records a single observed transition for the audit trail.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow (diagram) as code.
// A driver reject cancels outright; the ride is not re-queued and the
// passenger has to react to the cancellation.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusWaiting, StatusCancelled},
	StatusWaiting:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusPickedUp, StatusCompleted, StatusCancelled},
	StatusPickedUp:  {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
