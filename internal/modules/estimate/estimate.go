// README: Pure fare and ETA estimator; deterministic for fixed config and inputs.
package estimate

import (
	"math"

	"cityride/internal/types"
)

// Config holds the fixed pricing and distance-model constants. All values
// are plain numbers so an Estimate is reproducible from inputs alone.
type Config struct {
	BaseFare      float64
	PerKmRate     float64
	PerMinuteRate float64
	ServiceFee    float64

	// RoadFactor inflates the great-circle distance to approximate real
	// street travel. Distances are clamped to [MinKm, MaxKm]; FallbackKm
	// stands in when coordinates are missing.
	RoadFactor float64
	MinKm      float64
	MaxKm      float64
	FallbackKm float64

	PerKmMinutes    float64
	OverheadMinutes float64
}

func DefaultConfig() Config {
	return Config{
		BaseFare:        2.50,
		PerKmRate:       1.25,
		PerMinuteRate:   0.35,
		ServiceFee:      1.00,
		RoadFactor:      1.3,
		MinKm:           1.0,
		MaxKm:           40.0,
		FallbackKm:      7.0,
		PerKmMinutes:    3,
		OverheadMinutes: 5,
	}
}

// FareBreakdown itemises the estimate. Only Total is rounded; the
// components keep full precision so the terms still sum.
type FareBreakdown struct {
	Base         float64 `json:"base"`
	DistanceCost float64 `json:"distance_cost"`
	TimeCost     float64 `json:"time_cost"`
	ServiceFee   float64 `json:"service_fee"`
	Total        float64 `json:"total"`
}

type Estimate struct {
	DistanceKm  float64       `json:"distance_km"`
	DurationMin int           `json:"duration_min"`
	Fare        FareBreakdown `json:"fare"`
}

// Service evaluates estimates against one fixed Config.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Estimate never fails: absent coordinates degrade to the fallback
// distance rather than an error.
func (s *Service) Estimate(pickup, dropoff *types.Point) Estimate {
	cfg := s.cfg

	km := cfg.FallbackKm
	if pickup != nil && dropoff != nil {
		km = haversineKm(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng) * cfg.RoadFactor
		km = math.Min(math.Max(km, cfg.MinKm), cfg.MaxKm)
	}

	minutes := int(math.Round(km*cfg.PerKmMinutes + cfg.OverheadMinutes))

	distanceCost := km * cfg.PerKmRate
	timeCost := float64(minutes) * cfg.PerMinuteRate
	total := round2(cfg.BaseFare + distanceCost + timeCost + cfg.ServiceFee)

	return Estimate{
		DistanceKm:  km,
		DurationMin: minutes,
		Fare: FareBreakdown{
			Base:         cfg.BaseFare,
			DistanceCost: distanceCost,
			TimeCost:     timeCost,
			ServiceFee:   cfg.ServiceFee,
			Total:        total,
		},
	}
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
