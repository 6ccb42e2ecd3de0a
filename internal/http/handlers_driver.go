// README: Driver-facing ride endpoints; verification-gated.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cityride/internal/http/middleware"
	"cityride/internal/modules/ride"
	"cityride/internal/types"
)

// requireApproved gates ride access on the driver's verification status.
// Returns false after writing the response when the driver is not approved.
func (s *Server) requireApproved(c *gin.Context) bool {
	approved, err := s.accounts.IsApprovedDriver(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return false
	}
	if !approved {
		c.JSON(http.StatusForbidden, gin.H{"error": "driver not approved"})
		return false
	}
	return true
}

func (s *Server) openRides(c *gin.Context) {
	if !s.requireApproved(c) {
		return
	}
	ctx := c.Request.Context()
	if s.presence != nil {
		online, err := s.presence.IsOnline(ctx, middleware.CallerID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !online {
			c.JSON(http.StatusOK, gin.H{"online": false, "rides": []rideView{}})
			return
		}
	}
	rides, err := s.rides.OpenRides(ctx)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": true, "rides": toRideViews(rides)})
}

func (s *Server) acceptRide(c *gin.Context) {
	if !s.requireApproved(c) {
		return
	}
	r, err := s.rides.Accept(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		if errors.Is(err, ride.ErrAlreadyTaken) || errors.Is(err, ride.ErrConflict) {
			middleware.AcceptRaces.Inc()
		}
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) rejectRide(c *gin.Context) {
	if !s.requireApproved(c) {
		return
	}
	r, err := s.rides.Reject(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) pickupRide(c *gin.Context) {
	r, err := s.rides.MarkPickedUp(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) completeRide(c *gin.Context) {
	r, err := s.rides.Complete(c.Request.Context(), types.ID(c.Param("id")), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) driverActiveRide(c *gin.Context) {
	r, err := s.rides.ActiveForDriver(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideView(r))
}

func (s *Server) driverHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rides, err := s.rides.History(c.Request.Context(), ride.HistoryDriver, middleware.CallerID(c), limit)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": toRideViews(rides)})
}

type availabilityRequest struct {
	Online *bool `json:"online" binding:"required"`
}

func (s *Server) setAvailability(c *gin.Context) {
	if s.presence == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability tracking disabled"})
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	driverID := middleware.CallerID(c)
	var err error
	if *req.Online {
		err = s.presence.SetOnline(ctx, driverID)
	} else {
		err = s.presence.SetOffline(ctx, driverID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": *req.Online})
}
