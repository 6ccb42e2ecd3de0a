// README: Store contract for durable ride records with conditional updates.
package ride

import (
	"context"

	"cityride/internal/types"
)

// HistoryRole selects which side of a ride the history query filters on.
type HistoryRole string

const (
	HistoryPassenger HistoryRole = "passenger"
	HistoryDriver    HistoryRole = "driver"
)

// Store is the durable record store behind the lifecycle engine. Every
// mutating method is a single atomic conditional write; the engine never
// issues a separate read-then-write pair for a transition.
type Store interface {
	// CreateIfNoActive inserts the ride in one conditional statement,
	// returning false when the passenger already has a ride in an active
	// status.
	CreateIfNoActive(ctx context.Context, r *Ride) (bool, error)

	Get(ctx context.Context, id types.ID) (*Ride, error)

	// UpdateStatus performs a compare-and-swap keyed on the current
	// status. It returns false when the ride was not in `from` anymore.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)

	// AcceptWaiting atomically moves a waiting ride to accepted and binds
	// the driver, guarded so a driver holding another accepted/picked_up
	// ride cannot win. Returns false when the guard or the status check
	// fails; the caller re-reads to tell the two cases apart.
	AcceptWaiting(ctx context.Context, id types.ID, driverID types.ID) (bool, error)

	ActiveByPassenger(ctx context.Context, passengerID types.ID) (*Ride, error)
	ActiveByDriver(ctx context.Context, driverID types.ID) (*Ride, error)
	OpenRides(ctx context.Context) ([]*Ride, error)
	History(ctx context.Context, role HistoryRole, id types.ID, limit int) ([]*Ride, error)

	AppendEvent(ctx context.Context, e *Event) error
}
