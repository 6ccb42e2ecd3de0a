// README: Passenger-facing ride endpoints.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cityride/internal/http/middleware"
	"cityride/internal/modules/ride"
	"cityride/internal/types"
)

type requestRideRequest struct {
	PickupAddress  string     `json:"pickup_address" binding:"required"`
	DropoffAddress string     `json:"dropoff_address" binding:"required"`
	Notes          string     `json:"notes"`
	Pickup         *pointView `json:"pickup"`
	Dropoff        *pointView `json:"dropoff"`
}

func (s *Server) requestRide(c *gin.Context) {
	var req requestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ride.CreateCommand{
		PassengerID:    middleware.CallerID(c),
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Notes:          req.Notes,
	}
	if req.Pickup != nil {
		cmd.Pickup = &types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	}
	if req.Dropoff != nil {
		cmd.Dropoff = &types.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}
	}
	r, err := s.rides.Create(c.Request.Context(), cmd)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRideView(r))
}

func (s *Server) confirmRide(c *gin.Context) {
	r, err := s.rides.Confirm(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

// getRide serves both roles; the engine hides rides the caller is not
// part of. Passengers poll it on the wait-for-driver page.
func (s *Server) getRide(c *gin.Context) {
	r, err := s.rides.Get(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

// cancelRide dispatches on the caller's role: passengers cancel their own
// ride, drivers cancel a ride they are bound to.
func (s *Server) cancelRide(c *gin.Context) {
	ctx := c.Request.Context()
	rideID := types.ID(c.Param("id"))
	callerID := middleware.CallerID(c)

	var (
		r   *ride.Ride
		err error
	)
	switch middleware.CallerRole(c) {
	case types.RolePassenger:
		r, err = s.rides.CancelByPassenger(ctx, rideID, callerID)
	case types.RoleDriver:
		r, err = s.rides.CancelByDriver(ctx, rideID, callerID)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) passengerActiveRide(c *gin.Context) {
	r, err := s.rides.ActiveForPassenger(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) passengerHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rides, err := s.rides.History(c.Request.Context(), ride.HistoryPassenger, middleware.CallerID(c), limit)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": toRideViews(rides)})
}

type quoteRequest struct {
	Pickup  *pointView `json:"pickup"`
	Dropoff *pointView `json:"dropoff"`
}

// quote previews fare and ETA without creating a ride.
func (s *Server) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var pickup, dropoff *types.Point
	if req.Pickup != nil {
		pickup = &types.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	}
	if req.Dropoff != nil {
		dropoff = &types.Point{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}
	}
	est := s.estimates.Estimate(pickup, dropoff)
	c.JSON(http.StatusOK, gin.H{
		"distance_km":      est.DistanceKm,
		"duration_minutes": est.DurationMin,
		"fare":             est.Fare,
	})
}
