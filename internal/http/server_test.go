// README: End-to-end handler tests over an in-memory backing store.
package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cityride/internal/auth"
	cityhttp "cityride/internal/http"
	"cityride/internal/modules/account"
	"cityride/internal/modules/estimate"
	"cityride/internal/modules/ride"
	"cityride/internal/notify"
	"cityride/internal/types"
)

type testEnv struct {
	engine *gin.Engine
	tokens *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	estimator := estimate.NewService(estimate.DefaultConfig())
	hub := notify.NewHub(log)
	rides := ride.NewService(ride.NewMemStore(), estimator, hub, nil)
	accounts := account.NewService(account.NewMemStore())
	tokens := auth.NewManager("test-secret", time.Hour)

	server := cityhttp.NewServer(cityhttp.ServerDeps{
		Rides:     rides,
		Accounts:  accounts,
		Estimates: estimator,
		Hub:       hub,
		Tokens:    tokens,
		Log:       log,
	})
	return &testEnv{engine: server.Routes(), tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func (e *testEnv) registerPassenger(t *testing.T, email string) (token, userID string) {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/auth/register/passenger", "", map[string]any{
		"name":     "Test Passenger",
		"email":    email,
		"phone":    "+20100000001",
		"password": "pass1234!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register passenger: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	return extractToken(t, body)
}

func (e *testEnv) registerDriver(t *testing.T, email string) (token, userID string) {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/auth/register/driver", "", map[string]any{
		"name":           "Test Driver",
		"email":          email,
		"phone":          "+20100000002",
		"password":       "pass1234!",
		"license_number": "DL-4521",
		"vehicle_info":   "Toyota Corolla 2020, white",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register driver: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	return extractToken(t, body)
}

func extractToken(t *testing.T, body map[string]any) (token, userID string) {
	t.Helper()
	token, _ = body["token"].(string)
	if token == "" {
		t.Fatalf("expected token in response, got %v", body)
	}
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	if userID == "" {
		t.Fatalf("expected user id in response, got %v", body)
	}
	return token, userID
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue("admin-1", types.RoleAdmin)
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}
	return token
}

func TestRequestRideUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodPost, "/api/rides", "", map[string]any{
		"pickup_address":  "A",
		"dropoff_address": "B",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestPassengerCannotUseDriverEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerPassenger(t, "p1@example.com")
	w, _ := env.do(t, http.MethodGet, "/api/driver/rides/open", token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestUnapprovedDriverCannotBrowseOrAccept(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerDriver(t, "d1@example.com")

	w, _ := env.do(t, http.MethodGet, "/api/driver/rides/open", token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("open rides: expected 403, got %d", w.Code)
	}
	w, _ = env.do(t, http.MethodPost, "/api/rides/some-id/accept", token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("accept: expected 403, got %d", w.Code)
	}
}

func TestFullRideFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	passengerToken, _ := env.registerPassenger(t, "p2@example.com")
	driverToken, driverID := env.registerDriver(t, "d2@example.com")
	adminToken := env.adminToken(t)

	// Admin sees the pending driver and approves.
	w, body := env.do(t, http.MethodGet, "/api/admin/drivers/pending", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pending drivers: expected 200, got %d", w.Code)
	}
	drivers, _ := body["drivers"].([]any)
	if len(drivers) != 1 {
		t.Fatalf("expected 1 pending driver, got %d", len(drivers))
	}
	w, _ = env.do(t, http.MethodPost, "/api/admin/drivers/"+driverID+"/approve", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve driver: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// Passenger requests and confirms a ride.
	w, body = env.do(t, http.MethodPost, "/api/rides", passengerToken, map[string]any{
		"pickup_address":  "1 Tahrir Square",
		"dropoff_address": "Cairo Airport",
		"pickup":          map[string]float64{"lat": 30.0444, "lng": 31.2357},
		"dropoff":         map[string]float64{"lat": 30.1219, "lng": 31.4056},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("request ride: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	rideID, _ := body["id"].(string)
	if rideID == "" {
		t.Fatalf("expected ride id in response, got %v", body)
	}
	if fare, _ := body["estimated_fare"].(float64); fare <= 0 {
		t.Errorf("expected positive estimated fare, got %v", body["estimated_fare"])
	}

	w, body = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/confirm", passengerToken, nil)
	if w.Code != http.StatusOK || body["status"] != "waiting" {
		t.Fatalf("confirm: expected 200/waiting, got %d %v", w.Code, body["status"])
	}

	// Approved driver sees the ride in the pool and accepts it.
	w, body = env.do(t, http.MethodGet, "/api/driver/rides/open", driverToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open rides: expected 200, got %d", w.Code)
	}
	pool, _ := body["rides"].([]any)
	if len(pool) != 1 {
		t.Fatalf("expected 1 open ride, got %d", len(pool))
	}

	w, body = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/accept", driverToken, nil)
	if w.Code != http.StatusOK || body["status"] != "accepted" {
		t.Fatalf("accept: expected 200/accepted, got %d %v", w.Code, body)
	}
	if body["driver_id"] != driverID {
		t.Errorf("expected driver_id %s, got %v", driverID, body["driver_id"])
	}

	// Passenger polls the ride and sees the bound driver.
	w, body = env.do(t, http.MethodGet, "/api/rides/"+rideID, passengerToken, nil)
	if w.Code != http.StatusOK || body["driver_id"] != driverID {
		t.Fatalf("get ride: expected bound driver, got %d %v", w.Code, body)
	}

	w, body = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/pickup", driverToken, nil)
	if w.Code != http.StatusOK || body["status"] != "picked_up" {
		t.Fatalf("pickup: expected 200/picked_up, got %d %v", w.Code, body["status"])
	}

	w, body = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/complete", driverToken, nil)
	if w.Code != http.StatusOK || body["status"] != "completed" {
		t.Fatalf("complete: expected 200/completed, got %d %v", w.Code, body["status"])
	}

	// Both histories contain the completed ride.
	w, body = env.do(t, http.MethodGet, "/api/passenger/rides/history", passengerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("passenger history: expected 200, got %d", w.Code)
	}
	if rides, _ := body["rides"].([]any); len(rides) != 1 {
		t.Errorf("expected 1 ride in passenger history, got %d", len(rides))
	}
	w, body = env.do(t, http.MethodGet, "/api/driver/rides/history", driverToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("driver history: expected 200, got %d", w.Code)
	}
	if rides, _ := body["rides"].([]any); len(rides) != 1 {
		t.Errorf("expected 1 ride in driver history, got %d", len(rides))
	}
}

func TestCancelDispatchesByRole(t *testing.T) {
	env := newTestEnv(t)
	passengerToken, _ := env.registerPassenger(t, "p3@example.com")

	w, body := env.do(t, http.MethodPost, "/api/rides", passengerToken, map[string]any{
		"pickup_address":  "A",
		"dropoff_address": "B",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("request ride: expected 201, got %d", w.Code)
	}
	rideID, _ := body["id"].(string)

	w, body = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/cancel", passengerToken, nil)
	if w.Code != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("cancel: expected 200/cancelled, got %d %v", w.Code, body["status"])
	}

	// Cancelling again is an invalid transition.
	w, _ = env.do(t, http.MethodPost, "/api/rides/"+rideID+"/cancel", passengerToken, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double cancel: expected 409, got %d", w.Code)
	}
}

func TestSecondRequestWhileActiveConflicts(t *testing.T) {
	env := newTestEnv(t)
	passengerToken, _ := env.registerPassenger(t, "p4@example.com")

	newRide := map[string]any{"pickup_address": "A", "dropoff_address": "B"}
	w, _ := env.do(t, http.MethodPost, "/api/rides", passengerToken, newRide)
	if w.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", w.Code)
	}
	w, _ = env.do(t, http.MethodPost, "/api/rides", passengerToken, newRide)
	if w.Code != http.StatusConflict {
		t.Errorf("second request: expected 409, got %d", w.Code)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerPassenger(t, "p5@example.com")

	w, body := env.do(t, http.MethodPost, "/api/estimates", token, map[string]any{
		"pickup":  map[string]float64{"lat": 30.0444, "lng": 31.2357},
		"dropoff": map[string]float64{"lat": 30.0626, "lng": 31.2497},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("quote: expected 200, got %d", w.Code)
	}
	if km, _ := body["distance_km"].(float64); km < 1.0 {
		t.Errorf("expected clamped distance >= 1.0, got %v", body["distance_km"])
	}
	fare, _ := body["fare"].(map[string]any)
	if total, _ := fare["total"].(float64); total <= 0 {
		t.Errorf("expected positive fare total, got %v", body["fare"])
	}
}
