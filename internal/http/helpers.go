// README: Shared response helpers; maps domain errors to HTTP statuses.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cityride/internal/modules/account"
	"cityride/internal/modules/ride"
)

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ride.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ride.ErrAlreadyTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_taken"})
	case errors.Is(err, ride.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	case errors.Is(err, ride.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_state"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrValidation), errors.Is(err, account.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type pointView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type rideView struct {
	ID             string     `json:"id"`
	PassengerID    string     `json:"passenger_id"`
	DriverID       *string    `json:"driver_id,omitempty"`
	PickupAddress  string     `json:"pickup_address"`
	DropoffAddress string     `json:"dropoff_address"`
	Pickup         *pointView `json:"pickup,omitempty"`
	Dropoff        *pointView `json:"dropoff,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	EstimatedFare  float64    `json:"estimated_fare"`
	EstimatedTime  *int       `json:"estimated_time_minutes,omitempty"`
	CreatedAt      string     `json:"created_at"`
}

func toRideView(r *ride.Ride) rideView {
	v := rideView{
		ID:             string(r.ID),
		PassengerID:    string(r.PassengerID),
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DropoffAddress,
		Notes:          r.Notes,
		Status:         string(r.Status),
		EstimatedFare:  r.EstimatedFare,
		EstimatedTime:  r.EstimatedTime,
		CreatedAt:      r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.DriverID != nil {
		id := string(*r.DriverID)
		v.DriverID = &id
	}
	if r.Pickup != nil {
		v.Pickup = &pointView{Lat: r.Pickup.Lat, Lng: r.Pickup.Lng}
	}
	if r.Dropoff != nil {
		v.Dropoff = &pointView{Lat: r.Dropoff.Lat, Lng: r.Dropoff.Lng}
	}
	return v
}

func toRideViews(rides []*ride.Ride) []rideView {
	views := make([]rideView, len(rides))
	for i, r := range rides {
		views[i] = toRideView(r)
	}
	return views
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func toUserView(u *account.User) userView {
	return userView{
		ID:    string(u.ID),
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  string(u.Role),
	}
}
