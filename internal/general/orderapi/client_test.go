package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"driver-link/internal/domain/geo"
)

type staticToken string

func (s staticToken) SessionToken(context.Context) (string, error) { return string(s), nil }

type recorded struct {
	method, path, auth, requestID string
	body                          map[string]any
}

func newAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), requestID: r.Header.Get("X-Request-ID")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, staticToken("tok"), nil)
	return c, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func TestStepCallsHitCheckpointPaths(t *testing.T) {
	c, calls := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"message":"Arrived"}}`)
	})
	ctx := context.Background()
	pos := geo.Point{Lat: 12.9, Lng: 77.6}

	msg, err := c.ArrivedAtPickup(ctx, 42, pos)
	if err != nil || msg != "Arrived" {
		t.Fatalf("ArrivedAtPickup = %q, %v", msg, err)
	}
	if _, err := c.StartTrip(ctx, 42, "1234", pos); err != nil {
		t.Fatalf("StartTrip: %v", err)
	}
	if _, err := c.ArrivedAtDrop(ctx, 42, pos); err != nil {
		t.Fatalf("ArrivedAtDrop: %v", err)
	}
	if _, err := c.EndTrip(ctx, 42, pos); err != nil {
		t.Fatalf("EndTrip: %v", err)
	}

	got := calls()
	wantPaths := []string{
		"/orders/42/arrived-pickup",
		"/orders/42/start-trip/confirm",
		"/orders/42/arrived-drop",
		"/orders/42/end-trip",
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("calls = %d", len(got))
	}
	seen := map[string]bool{}
	for i, rec := range got {
		if rec.method != http.MethodPost || rec.path != wantPaths[i] {
			t.Errorf("call %d = %s %s, want POST %s", i, rec.method, rec.path, wantPaths[i])
		}
		if rec.auth != "Bearer tok" {
			t.Errorf("call %d auth = %q", i, rec.auth)
		}
		if rec.requestID == "" || seen[rec.requestID] {
			t.Errorf("call %d request id %q missing or reused", i, rec.requestID)
		}
		seen[rec.requestID] = true
		if rec.body["lat"] != 12.9 || rec.body["lng"] != 77.6 {
			t.Errorf("call %d body = %v", i, rec.body)
		}
	}
	if got[1].body["otp"] != "1234" {
		t.Errorf("start-trip body = %v", got[1].body)
	}
}

func TestStepErrorFromEnvelope(t *testing.T) {
	c, _ := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"success":false,"message":"Invalid OTP","errorCode":"OTP_MISMATCH"}`)
	})

	_, err := c.StartTrip(context.Background(), 5, "0000", geo.Point{})
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StepError", err)
	}
	if se.Message != "Invalid OTP" || se.Code != "OTP_MISMATCH" || se.Status != http.StatusConflict {
		t.Fatalf("StepError = %+v", se)
	}
}

func TestSuccessFalseWithOKStatusIsStepError(t *testing.T) {
	c, _ := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"data":{"message":"Too far from pickup"}}`)
	})
	_, err := c.ArrivedAtPickup(context.Background(), 5, geo.Point{})
	var se *StepError
	if !errors.As(err, &se) || se.Message != "Too far from pickup" {
		t.Fatalf("err = %v", err)
	}
}

func TestNonJSONResponse(t *testing.T) {
	c, _ := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})
	_, err := c.EndTrip(context.Background(), 5, geo.Point{})
	var se *StepError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Fatalf("err = %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, staticToken("tok"), nil)
	_, err := c.EndTrip(context.Background(), 5, geo.Point{})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
}

func TestMissingToken(t *testing.T) {
	c, calls := newAPI(t, func(w http.ResponseWriter, r *http.Request) {})
	c.tokens = staticToken("")
	if _, err := c.EndTrip(context.Background(), 5, geo.Point{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v", err)
	}
	if len(calls()) != 0 {
		t.Fatal("request sent without a token")
	}
}

func TestOrderDetailsAndCancel(t *testing.T) {
	c, calls := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"success":true,"data":{"orderId":9,"status":"STARTED","pickup":"A","drop":"B"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"Order cancelled"}`)
	})
	ctx := context.Background()

	d, err := c.OrderDetails(ctx, 9)
	if err != nil {
		t.Fatalf("OrderDetails: %v", err)
	}
	if d.OrderID != 9 || d.Status != "STARTED" || d.Pickup != "A" {
		t.Fatalf("details = %+v", d)
	}

	msg, err := c.CancelOrder(ctx, 9, "customer unreachable")
	if err != nil || msg != "Order cancelled" {
		t.Fatalf("CancelOrder = %q, %v", msg, err)
	}

	got := calls()
	if got[0].path != "/orders/9" || got[1].path != "/orders/9/cancel" || got[1].body["reason"] != "customer unreachable" {
		t.Fatalf("calls = %+v", got)
	}
}
