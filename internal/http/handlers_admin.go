// README: Admin endpoints for driver verification.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cityride/internal/modules/account"
	"cityride/internal/types"
)

type driverProfileView struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	LicenseNumber string `json:"license_number"`
	VehicleInfo   string `json:"vehicle_info"`
	Verification  string `json:"verification_status"`
}

func (s *Server) pendingDrivers(c *gin.Context) {
	ctx := c.Request.Context()
	profiles, err := s.accounts.PendingDrivers(ctx)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	views := make([]driverProfileView, 0, len(profiles))
	for _, p := range profiles {
		v := driverProfileView{
			UserID:        string(p.UserID),
			LicenseNumber: p.LicenseNumber,
			VehicleInfo:   p.VehicleInfo,
			Verification:  string(p.Verification),
		}
		if u, err := s.accounts.GetUser(ctx, p.UserID); err == nil {
			v.Name = u.Name
			v.Email = u.Email
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"drivers": views})
}

func (s *Server) approveDriver(c *gin.Context) {
	s.setVerification(c, s.accounts.ApproveDriver, string(account.VerificationApproved))
}

func (s *Server) rejectDriver(c *gin.Context) {
	s.setVerification(c, s.accounts.RejectDriver, string(account.VerificationRejected))
}

func (s *Server) setVerification(c *gin.Context, apply func(ctx context.Context, id types.ID) error, status string) {
	if err := apply(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": c.Param("id"), "verification_status": status})
}
