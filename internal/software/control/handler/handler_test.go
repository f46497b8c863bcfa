package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/domain/trip"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/jwt"
	"driver-link/internal/general/orderapi"
	"driver-link/internal/general/websocket"
	"driver-link/internal/ports"
	tripservice "driver-link/internal/software/trip/service"

	"github.com/gin-gonic/gin"
)

type fakeSupervisor struct {
	mu        sync.Mutex
	online    bool
	token     string
	positions []geo.Sample
	onlineErr error
}

func (f *fakeSupervisor) GoOnline(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = true
	return f.onlineErr
}

func (f *fakeSupervisor) GoOffline(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = false
	return nil
}

func (f *fakeSupervisor) UpdateToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	return nil
}

func (f *fakeSupervisor) UpdatePosition(s geo.Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, s)
	return nil
}

func (f *fakeSupervisor) Status() ports.SupervisorStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ports.SupervisorStatus{Online: f.online, Connection: "CONNECTED"}
}

type fakeTrips struct {
	ports.TripService
	result    trip.Result
	stepErr   error
	cancelErr error
	lastOTP   string
	lastPos   geo.Point
}

func (f *fakeTrips) ArrivedAtPickup(_ context.Context, pos geo.Point) (trip.Result, error) {
	f.lastPos = pos
	return f.result, f.stepErr
}

func (f *fakeTrips) StartTrip(_ context.Context, otp string, pos geo.Point) (trip.Result, error) {
	f.lastOTP, f.lastPos = otp, pos
	return f.result, f.stepErr
}

func (f *fakeTrips) Cancel(context.Context, string) (string, error) {
	return "Order cancelled", f.cancelErr
}

func (f *fakeTrips) Details(context.Context) (contracts.OrderDetails, error) {
	return contracts.OrderDetails{OrderID: 42, Status: "STARTED"}, nil
}

func (f *fakeTrips) Snapshot() ports.TripSnapshot {
	return ports.TripSnapshot{OrderID: 42, Checkpoint: "ASSIGNED", Results: map[string]trip.Result{}}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStepStatusMapping(t *testing.T) {
	trips := &fakeTrips{result: trip.Success("Arrived")}
	router := NewControlHandler(&fakeSupervisor{}, trips, nil, nil).Router()

	rec := do(t, router, http.MethodPost, "/trip/arrived-pickup", `{"lat":12.9,"lng":77.6}`, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Arrived") {
		t.Fatalf("success: %d %s", rec.Code, rec.Body.String())
	}
	if trips.lastPos != (geo.Point{Lat: 12.9, Lng: 77.6}) {
		t.Fatalf("position not forwarded: %+v", trips.lastPos)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}

	trips.result = trip.Failure("Invalid OTP")
	rec = do(t, router, http.MethodPost, "/trip/start", `{"lat":1,"lng":2,"otp":"0000"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity || trips.lastOTP != "0000" {
		t.Fatalf("failure: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "Invalid OTP" {
		t.Fatalf("error body: %s", rec.Body.String())
	}

	trips.stepErr = tripservice.ErrStepInProgress
	rec = do(t, router, http.MethodPost, "/trip/arrived-pickup", `{"lat":1,"lng":2}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("in progress: %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/trip/arrived-pickup", `{"lat":1}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing lng: %d", rec.Code)
	}
}

func TestCancelErrors(t *testing.T) {
	trips := &fakeTrips{}
	router := NewControlHandler(&fakeSupervisor{}, trips, nil, nil).Router()

	trips.cancelErr = tripservice.ErrNoActiveOrder
	if rec := do(t, router, http.MethodPost, "/trip/cancel", `{"reason":"x"}`, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("no order: %d", rec.Code)
	}
	trips.cancelErr = &orderapi.StepError{Status: 400, Message: "Too late"}
	rec := do(t, router, http.MethodPost, "/trip/cancel", `{"reason":"x"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Too late") {
		t.Fatalf("step error: %d %s", rec.Code, rec.Body.String())
	}
	trips.cancelErr = nil
	if rec := do(t, router, http.MethodPost, "/trip/cancel", `{"reason":"x"}`, nil); rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d", rec.Code)
	}
}

func TestOnlineTokenAndPosition(t *testing.T) {
	sup := &fakeSupervisor{}
	router := NewControlHandler(sup, &fakeTrips{}, nil, nil).Router()

	if rec := do(t, router, http.MethodPost, "/online", "", nil); rec.Code != http.StatusOK || !sup.online {
		t.Fatalf("online: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/token", `{"token":" abc "}`, nil); rec.Code != http.StatusNoContent || sup.token != "abc" {
		t.Fatalf("token: %d %q", rec.Code, sup.token)
	}
	if rec := do(t, router, http.MethodPut, "/token", `{}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty token: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/position", `{"lat":95,"lng":10}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad position: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPut, "/position", `{"lat":12.9,"lng":77.6}`, nil); rec.Code != http.StatusNoContent || len(sup.positions) != 1 {
		t.Fatalf("position: %d", rec.Code)
	}

	sup.onlineErr = websocket.ErrAuth
	if rec := do(t, router, http.MethodPost, "/online", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("auth failure: %d", rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"order_id":42`) {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, router, http.MethodPost, "/offline", "", nil); rec.Code != http.StatusOK || sup.online {
		t.Fatalf("offline: %d", rec.Code)
	}
}

func TestOperatorAuth(t *testing.T) {
	mgr := jwt.NewManager("test-secret", time.Hour)
	router := NewControlHandler(&fakeSupervisor{}, &fakeTrips{}, nil, mgr).Router()

	if rec := do(t, router, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/status", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	driverTok, _, err := mgr.IssueToken("driver-1", jwt.RoleDriver)
	if err != nil {
		t.Fatal(err)
	}
	h := http.Header{"Authorization": {jwt.BearerHeader(driverTok)}}
	if rec := do(t, router, http.MethodGet, "/status", "", h); rec.Code != http.StatusForbidden {
		t.Fatalf("driver token: %d", rec.Code)
	}

	opTok, _, err := mgr.IssueToken("operator", jwt.RoleOperator)
	if err != nil {
		t.Fatal(err)
	}
	h = http.Header{"Authorization": {jwt.BearerHeader(opTok)}}
	if rec := do(t, router, http.MethodGet, "/trip/details", "", h); rec.Code != http.StatusOK {
		t.Fatalf("operator token: %d", rec.Code)
	}
}
