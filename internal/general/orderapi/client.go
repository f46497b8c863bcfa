package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"driver-link/internal/domain/geo"
	"driver-link/internal/general/contracts"
	"driver-link/internal/general/jwt"
	"driver-link/internal/general/logger"

	"github.com/google/uuid"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 20
	requestIDHeader = "X-Request-ID"
)

var (
	ErrRequestFailed = errors.New("orderapi: request failed")
	ErrNoToken       = errors.New("orderapi: no session token")
)

// StepError is a non-success answer from the order API.
type StepError struct {
	Status  int
	Code    string
	Message string
}

func (e *StepError) Error() string {
	return e.Message
}

// TokenSource yields the bearer token for each call.
type TokenSource interface {
	SessionToken(ctx context.Context) (string, error)
}

// Options configures the client. Zero Timeout means 30s.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the order REST API. It never retries: checkpoint calls are not idempotent.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *logger.Logger
}

func NewClient(opts Options, tokens TokenSource, log *logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	hc := opts.HTTPClient
	if hc == nil {
		dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   opts.Timeout,
				ResponseHeaderTimeout: opts.Timeout,
				MaxIdleConns:          4,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		tokens:  tokens,
		logger:  log,
	}
}

// ----- checkpoint calls -----

// ArrivedAtPickup calls POST /orders/{id}/arrived-pickup.
func (c *Client) ArrivedAtPickup(ctx context.Context, orderID int64, pos geo.Point) (string, error) {
	return c.step(ctx, orderID, "arrived-pickup", contracts.PositionBody{Lat: pos.Lat, Lng: pos.Lng})
}

// StartTrip calls POST /orders/{id}/start-trip/confirm.
func (c *Client) StartTrip(ctx context.Context, orderID int64, otp string, pos geo.Point) (string, error) {
	return c.step(ctx, orderID, "start-trip/confirm", contracts.StartTripBody{OTP: otp, Lat: pos.Lat, Lng: pos.Lng})
}

// ArrivedAtDrop calls POST /orders/{id}/arrived-drop.
func (c *Client) ArrivedAtDrop(ctx context.Context, orderID int64, pos geo.Point) (string, error) {
	return c.step(ctx, orderID, "arrived-drop", contracts.PositionBody{Lat: pos.Lat, Lng: pos.Lng})
}

// EndTrip calls POST /orders/{id}/end-trip.
func (c *Client) EndTrip(ctx context.Context, orderID int64, pos geo.Point) (string, error) {
	return c.step(ctx, orderID, "end-trip", contracts.PositionBody{Lat: pos.Lat, Lng: pos.Lng})
}

// CancelOrder calls POST /orders/{id}/cancel.
func (c *Client) CancelOrder(ctx context.Context, orderID int64, reason string) (string, error) {
	return c.step(ctx, orderID, "cancel", contracts.CancelBody{Reason: reason})
}

// OrderDetails calls GET /orders/{id}.
func (c *Client) OrderDetails(ctx context.Context, orderID int64) (contracts.OrderDetails, error) {
	env, err := c.do(ctx, http.MethodGet, orderPath(orderID, ""), nil)
	if err != nil {
		return contracts.OrderDetails{}, err
	}
	var details contracts.OrderDetails
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &details); err != nil {
			return contracts.OrderDetails{}, fmt.Errorf("%w: decode order details: %v", ErrRequestFailed, err)
		}
	}
	if details.OrderID == 0 {
		details.OrderID = orderID
	}
	return details, nil
}

// ----- internals -----

func orderPath(orderID int64, action string) string {
	p := "/orders/" + strconv.FormatInt(orderID, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) step(ctx context.Context, orderID int64, action string, body any) (string, error) {
	env, err := c.do(ctx, http.MethodPost, orderPath(orderID, action), body)
	if err != nil {
		return "", err
	}

	var data contracts.StepData
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &data)
	}
	switch {
	case strings.TrimSpace(data.Message) != "":
		return data.Message, nil
	case strings.TrimSpace(env.Message) != "":
		return env.Message, nil
	default:
		return "OK", nil
	}
}

// do sends one request and decodes the envelope. Any answer other than success=true becomes a StepError.
func (c *Client) do(ctx context.Context, method, path string, body any) (contracts.APIEnvelope, error) {
	var env contracts.APIEnvelope

	token, err := c.tokens.SessionToken(ctx)
	if err != nil {
		return env, fmt.Errorf("%w: read token: %v", ErrRequestFailed, err)
	}
	if strings.TrimSpace(token) == "" {
		return env, ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return env, fmt.Errorf("%w: encode body: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return env, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("Authorization", jwt.BearerHeader(token))
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "order_api_unreachable", "Order API request failed", err, map[string]any{
			"method":     method,
			"path":       path,
			"request_id": reqID,
		})
		return env, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return env, fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}

	c.logger.Debug(ctx, "order_api_call", "Order API responded", map[string]any{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"request_id":  reqID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if err := json.Unmarshal(raw, &env); err != nil {
		return env, &StepError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Unexpected response from server (HTTP %d)", resp.StatusCode),
		}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			var data contracts.StepData
			_ = json.Unmarshal(env.Data, &data)
			msg = strings.TrimSpace(data.Message)
		}
		if msg == "" {
			msg = fmt.Sprintf("Request rejected (HTTP %d)", resp.StatusCode)
		}
		return env, &StepError{Status: resp.StatusCode, Code: env.ErrorCode, Message: msg}
	}
	return env, nil
}
