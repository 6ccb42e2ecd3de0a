// README: Estimator tests (fallback, clamp, determinism).
package estimate

import (
	"math"
	"testing"

	"cityride/internal/types"
)

func TestEstimateFallbackWithoutCoordinates(t *testing.T) {
	svc := NewService(DefaultConfig())

	for _, tc := range []struct {
		name    string
		pickup  *types.Point
		dropoff *types.Point
	}{
		{"both_missing", nil, nil},
		{"pickup_missing", nil, &types.Point{Lat: 30.0626, Lng: 31.2497}},
		{"dropoff_missing", &types.Point{Lat: 30.0444, Lng: 31.2357}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			est := svc.Estimate(tc.pickup, tc.dropoff)
			if est.DistanceKm != 7.0 {
				t.Errorf("expected fallback distance 7.0, got %v", est.DistanceKm)
			}
			if est.DurationMin != 26 {
				t.Errorf("expected duration 26, got %d", est.DurationMin)
			}
		})
	}
}

func TestEstimateShortTripClamped(t *testing.T) {
	svc := NewService(DefaultConfig())

	// Downtown Cairo to Zamalek, roughly 2.3 km straight line.
	pickup := &types.Point{Lat: 30.0444, Lng: 31.2357}
	dropoff := &types.Point{Lat: 30.0626, Lng: 31.2497}

	est := svc.Estimate(pickup, dropoff)
	if est.DistanceKm < 1.0 || est.DistanceKm > 40.0 {
		t.Fatalf("distance %v outside clamp range [1, 40]", est.DistanceKm)
	}
	wantMin := int(math.Round(est.DistanceKm*3 + 5))
	if est.DurationMin != wantMin {
		t.Errorf("expected duration %d, got %d", wantMin, est.DurationMin)
	}
}

func TestEstimateMinimumDistanceClamp(t *testing.T) {
	svc := NewService(DefaultConfig())

	// Same point twice: zero straight-line distance clamps up to 1.0 km.
	p := &types.Point{Lat: 30.0444, Lng: 31.2357}
	est := svc.Estimate(p, p)
	if est.DistanceKm != 1.0 {
		t.Errorf("expected clamped distance 1.0, got %v", est.DistanceKm)
	}
}

func TestEstimateMaximumDistanceClamp(t *testing.T) {
	svc := NewService(DefaultConfig())

	// Cairo to Alexandria is far beyond the service area cap.
	pickup := &types.Point{Lat: 30.0444, Lng: 31.2357}
	dropoff := &types.Point{Lat: 31.2001, Lng: 29.9187}
	est := svc.Estimate(pickup, dropoff)
	if est.DistanceKm != 40.0 {
		t.Errorf("expected clamped distance 40.0, got %v", est.DistanceKm)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	svc := NewService(DefaultConfig())
	pickup := &types.Point{Lat: 30.0444, Lng: 31.2357}
	dropoff := &types.Point{Lat: 30.0626, Lng: 31.2497}

	first := svc.Estimate(pickup, dropoff)
	for i := 0; i < 10; i++ {
		again := svc.Estimate(pickup, dropoff)
		if again != first {
			t.Fatalf("estimate changed between identical calls: %+v vs %+v", first, again)
		}
	}
}

func TestEstimateFareComposition(t *testing.T) {
	cfg := DefaultConfig()
	svc := NewService(cfg)

	est := svc.Estimate(nil, nil)
	raw := cfg.BaseFare + est.DistanceKm*cfg.PerKmRate + float64(est.DurationMin)*cfg.PerMinuteRate + cfg.ServiceFee
	want := math.Round(raw*100) / 100
	if est.Fare.Total != want {
		t.Errorf("expected total %v, got %v", want, est.Fare.Total)
	}
	if est.Fare.Base != cfg.BaseFare || est.Fare.ServiceFee != cfg.ServiceFee {
		t.Errorf("fare breakdown does not echo config: %+v", est.Fare)
	}
	// Total is rounded to cents.
	if math.Abs(est.Fare.Total*100-math.Round(est.Fare.Total*100)) > 1e-9 {
		t.Errorf("total %v not rounded to 2 decimal places", est.Fare.Total)
	}
}
