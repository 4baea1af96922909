package vehicle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"evlogger/internal/models"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Credentials authenticate against the vendor cloud.
type Credentials struct {
	Username string
	Password string
	PIN      string
}

// Client talks to the vendor's account gateway over HTTP.
type Client struct {
	baseURL string
	client  HTTPDoer
	creds   Credentials

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a vendor API client.
func NewClient(baseURL string, creds Credentials, client HTTPDoer) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		creds:   creds,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// CheckAndRefreshToken logs in when there is no token or it is about to expire.
func (c *Client) CheckAndRefreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
		"pin":      c.creds.PIN,
	})
	if err != nil {
		return NewFailure(KindUnknown, err)
	}

	var token tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token", body, false, &token); err != nil {
		return err
	}
	if token.AccessToken == "" {
		return NewFailure(KindAPIError, errors.New("empty access token"))
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return nil
}

// CachedState fetches the vendor's cached vehicle state.
func (c *Client) CachedState(ctx context.Context, vehicleID string) (*models.VehicleSnapshot, error) {
	return c.fetchState(ctx, vehicleID)
}

// ForceRefresh commands the car to push fresh telemetry.
func (c *Client) ForceRefresh(ctx context.Context, vehicleID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/vehicles/%s/refresh", vehicleID), nil, true, nil)
}

// UpdateWithCachedState reads the cached state back after a refresh.
func (c *Client) UpdateWithCachedState(ctx context.Context, vehicleID string) (*models.VehicleSnapshot, error) {
	return c.fetchState(ctx, vehicleID)
}

type snapshotResponse struct {
	BatteryPct      int     `json:"batteryPercentage"`
	AuxBatteryPct   int     `json:"accessoryBatteryPercentage"`
	RangeKm         float64 `json:"drivingRangeKm"`
	Odometer        float64 `json:"odometerKm"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Charging        bool    `json:"charging"`
	EngineRunning   bool    `json:"engineRunning"`
	ACLimitPct      int     `json:"acChargeLimitPercent"`
	DCLimitPct      int     `json:"dcChargeLimitPercent"`
	TargetTempC     float64 `json:"targetClimateTemperature"`
	ChargeMinutes   int     `json:"estimatedChargeMinutes"`
	UpdatedAt       string  `json:"updatedAt"`
	LocationUpdated string  `json:"locationUpdatedAt"`
}

func (c *Client) fetchState(ctx context.Context, vehicleID string) (*models.VehicleSnapshot, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%s/status/latest", vehicleID), nil, true)
	if err != nil {
		return nil, err
	}

	var resp snapshotResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, NewFailure(KindAPIError, fmt.Errorf("decode state: %w", err))
	}

	stateTS, err := parseVendorTime(resp.UpdatedAt)
	if err != nil {
		return nil, NewFailure(KindAPIError, fmt.Errorf("parse updatedAt: %w", err))
	}
	locTS, err := parseVendorTime(resp.LocationUpdated)
	if err != nil {
		locTS = stateTS
	}

	return &models.VehicleSnapshot{
		BatteryPct:        resp.BatteryPct,
		AuxBatteryPct:     resp.AuxBatteryPct,
		RangeKm:           resp.RangeKm,
		Odometer:          resp.Odometer,
		Latitude:          resp.Latitude,
		Longitude:         resp.Longitude,
		Charging:          resp.Charging,
		EngineRunning:     resp.EngineRunning,
		ACChargeLimitPct:  resp.ACLimitPct,
		DCChargeLimitPct:  resp.DCLimitPct,
		TargetTempC:       resp.TargetTempC,
		EstChargeMinutes:  resp.ChargeMinutes,
		StateUpdatedAt:    stateTS,
		LocationUpdatedAt: locTS,
		Raw:               raw,
	}, nil
}

// DrivingInfo fetches the per-day driving aggregates.
func (c *Client) DrivingInfo(ctx context.Context, vehicleID string) ([]models.DailyDrivingStat, error) {
	var resp struct {
		Days []models.DailyDrivingStat `json:"days"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%s/driving-info", vehicleID), nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Days, nil
}

// MonthTripInfo fetches the trip day list for one month.
func (c *Client) MonthTripInfo(ctx context.Context, vehicleID, yyyymm string) (*models.MonthTripInfo, error) {
	var resp models.MonthTripInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%s/trips/%s", vehicleID, yyyymm), nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DayTripInfo fetches the trips for one day.
func (c *Client) DayTripInfo(ctx context.Context, vehicleID, yyyymmdd string) (*models.DayTripInfo, error) {
	var resp models.DayTripInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%s/trips/day/%s", vehicleID, yyyymmdd), nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartCharge sends the charge start command.
func (c *Client) StartCharge(ctx context.Context, vehicleID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/vehicles/%s/charge/start", vehicleID), nil, true, nil)
}

// StopCharge sends the charge stop command.
func (c *Client) StopCharge(ctx context.Context, vehicleID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/vehicles/%s/charge/stop", vehicleID), nil, true, nil)
}

// LastActionStatus reports the outcome of the most recent command.
func (c *Client) LastActionStatus(ctx context.Context, vehicleID string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/vehicles/%s/actions/latest", vehicleID), nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, authed bool, out interface{}) error {
	raw, err := c.doRaw(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewFailure(KindAPIError, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body []byte, authed bool) ([]byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, NewFailure(KindUnknown, err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewFailure(KindOf(err), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewFailure(KindUnknown, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	cause := fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw, 256))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewFailure(KindRateLimited, cause)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return nil, NewFailure(KindTimeout, cause)
	case resp.StatusCode >= 500:
		return nil, NewFailure(KindAPIError, cause)
	default:
		return nil, NewFailure(KindUnknown, cause)
	}
}

func parseVendorTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339, value)
}

func truncate(raw []byte, max int) string {
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
