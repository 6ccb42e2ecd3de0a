// README: Registration and login endpoints.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cityride/internal/modules/account"
)

type registerPassengerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerDriverRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Password      string `json:"password" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	VehicleInfo   string `json:"vehicle_info" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) registerPassenger(c *gin.Context) {
	var req registerPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.accounts.RegisterPassenger(c.Request.Context(), account.RegisterPassengerCommand{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	s.issueToken(c, u, http.StatusCreated)
}

func (s *Server) registerDriver(c *gin.Context) {
	var req registerDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.accounts.RegisterDriver(c.Request.Context(), account.RegisterDriverCommand{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Password:      req.Password,
		LicenseNumber: req.LicenseNumber,
		VehicleInfo:   req.VehicleInfo,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	s.issueToken(c, u, http.StatusCreated)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	s.issueToken(c, u, http.StatusOK)
}

func (s *Server) issueToken(c *gin.Context, u *account.User, status int) {
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": toUserView(u)})
}
