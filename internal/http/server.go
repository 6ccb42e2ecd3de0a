// README: HTTP surface; route registration and middleware wiring.
package http

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cityride/internal/auth"
	"cityride/internal/http/middleware"
	"cityride/internal/modules/account"
	"cityride/internal/modules/estimate"
	"cityride/internal/modules/ride"
	"cityride/internal/notify"
	"cityride/internal/types"
)

type ServerDeps struct {
	Rides     *ride.Service
	Accounts  *account.Service
	Estimates *estimate.Service
	Presence  *account.Presence
	Hub       *notify.Hub
	Tokens    *auth.Manager
	Log       *slog.Logger

	RateLimitPerSecond float64
	RateLimitBurst     int
}

type Server struct {
	rides     *ride.Service
	accounts  *account.Service
	estimates *estimate.Service
	presence  *account.Presence
	hub       *notify.Hub
	tokens    *auth.Manager
	log       *slog.Logger

	rateLimitPerSecond float64
	rateLimitBurst     int
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		rides:              deps.Rides,
		accounts:           deps.Accounts,
		estimates:          deps.Estimates,
		presence:           deps.Presence,
		hub:                deps.Hub,
		tokens:             deps.Tokens,
		log:                deps.Log,
		rateLimitPerSecond: deps.RateLimitPerSecond,
		rateLimitBurst:     deps.RateLimitBurst,
	}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(s.log))
	r.Use(middleware.Metrics())
	if s.rateLimitPerSecond > 0 {
		r.Use(middleware.RateLimit(s.rateLimitPerSecond, s.rateLimitBurst))
	}
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/register/passenger", s.registerPassenger)
	api.POST("/auth/register/driver", s.registerDriver)
	api.POST("/auth/login", s.login)

	authed := api.Group("")
	authed.Use(middleware.Auth(s.tokens))

	authed.GET("/ws", s.websocket)
	authed.POST("/estimates", s.quote)
	authed.GET("/rides/:id", s.getRide)
	authed.POST("/rides/:id/cancel", s.cancelRide)

	passenger := authed.Group("", middleware.RequireRole(types.RolePassenger))
	passenger.POST("/rides", s.requestRide)
	passenger.POST("/rides/:id/confirm", s.confirmRide)
	passenger.GET("/passenger/rides/active", s.passengerActiveRide)
	passenger.GET("/passenger/rides/history", s.passengerHistory)

	driver := authed.Group("", middleware.RequireRole(types.RoleDriver))
	driver.GET("/driver/rides/open", s.openRides)
	driver.GET("/driver/rides/active", s.driverActiveRide)
	driver.GET("/driver/rides/history", s.driverHistory)
	driver.PUT("/driver/availability", s.setAvailability)
	driver.POST("/rides/:id/accept", s.acceptRide)
	driver.POST("/rides/:id/reject", s.rejectRide)
	driver.POST("/rides/:id/pickup", s.pickupRide)
	driver.POST("/rides/:id/complete", s.completeRide)

	admin := authed.Group("/admin", middleware.RequireRole(types.RoleAdmin))
	admin.GET("/drivers/pending", s.pendingDrivers)
	admin.POST("/drivers/:id/approve", s.approveDriver)
	admin.POST("/drivers/:id/reject", s.rejectDriver)

	return r
}
