// README: Concurrency tests for ride transitions (run with -race).
package ride

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cityride/internal/types"
)

func TestConcurrentAcceptSameRide(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r := mustCreateRide(t, svc, "p_multi_accept")
	mustConfirm(t, svc, r.ID, "p_multi_accept")

	const attempts = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan acceptResult, attempts)

	for i := 0; i < attempts; i++ {
		driverID := types.ID(fmt.Sprintf("d%d", i))
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			<-start
			got, err := svc.Accept(ctx, r.ID, did)
			results <- acceptResult{driverID: did, ride: got, err: err}
		}(driverID)
	}

	close(start)
	wg.Wait()
	close(results)

	var winner types.ID
	success := 0
	for res := range results {
		if res.err == nil {
			success++
			winner = res.driverID
			continue
		}
		if res.err != ErrAlreadyTaken {
			t.Fatalf("loser got %v, want ErrAlreadyTaken", res.err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}

	final, err := svc.Get(ctx, r.ID, winner)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if final.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", final.Status)
	}
	if final.DriverID == nil || *final.DriverID != winner {
		t.Fatalf("expected driver_id %s, got %v", winner, final.DriverID)
	}
}

type acceptResult struct {
	driverID types.ID
	ride     *Ride
	err      error
}

func TestConcurrentAcceptVsPassengerCancel(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r := mustCreateRide(t, svc, "p_accept_cancel")
	mustConfirm(t, svc, r.ID, "p_accept_cancel")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Accept(ctx, r.ID, "d1")
		errs <- err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.CancelByPassenger(ctx, r.ID, "p_accept_cancel")
		errs <- err
	}()

	wg.Wait()
	close(errs)

	// Cancel is permitted both before and after accept, so either both
	// succeed (accept, then cancel of the accepted ride) or the accept
	// loses to the cancel.
	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrInvalidState && err != ErrAlreadyTaken && err != ErrConflict {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success < 1 || success > 2 {
		t.Fatalf("expected 1 or 2 successes, got %d", success)
	}

	final, err := svc.Get(ctx, r.ID, "p_accept_cancel")
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if success == 2 && final.Status != StatusCancelled {
		t.Fatalf("expected cancelled after accept+cancel, got %s", final.Status)
	}
	if final.Status != StatusAccepted && final.Status != StatusCancelled {
		t.Fatalf("unexpected final status: %s", final.Status)
	}
}

func TestConcurrentDoubleBookingSingleDriver(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first := mustCreateRide(t, svc, "p_db_1")
	mustConfirm(t, svc, first.ID, "p_db_1")
	second := mustCreateRide(t, svc, "p_db_2")
	mustConfirm(t, svc, second.ID, "p_db_2")

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 2)

	for _, rideID := range []types.ID{first.ID, second.ID} {
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			<-start
			_, err := svc.Accept(ctx, id, "d_greedy")
			errs <- err
		}(rideID)
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("expected ErrConflict for second booking, got %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}

	// Exactly one of the two rides holds the driver.
	bound := 0
	for _, p := range []struct{ rideID, passengerID types.ID }{
		{first.ID, "p_db_1"},
		{second.ID, "p_db_2"},
	} {
		r, err := svc.Get(ctx, p.rideID, p.passengerID)
		if err != nil {
			t.Fatalf("get ride: %v", err)
		}
		if r.DriverID != nil && *r.DriverID == "d_greedy" {
			bound++
		}
	}
	if bound != 1 {
		t.Fatalf("expected driver bound to exactly 1 ride, got %d", bound)
	}
}

func TestConcurrentCreateSamePassenger(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const attempts = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Create(ctx, CreateCommand{
				PassengerID:    "p_concurrent_create",
				PickupAddress:  "Tahrir Square",
				DropoffAddress: "Maadi",
			})
			errs <- err
		}()
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 created ride, got %d", success)
	}
}
