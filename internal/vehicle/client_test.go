package vehicle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, statusPayload string, failStatus int) (*httptest.Server, *int) {
	t.Helper()
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		logins++
		fmt.Fprint(w, `{"access_token":"tok-123","expires_in":3600}`)
	})
	mux.HandleFunc("/vehicles/veh-1/status/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if failStatus != 0 {
			w.WriteHeader(failStatus)
			return
		}
		fmt.Fprint(w, statusPayload)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &logins
}

const statusPayload = `{
	"batteryPercentage": 64,
	"accessoryBatteryPercentage": 85,
	"drivingRangeKm": 310.5,
	"odometerKm": 12345.6,
	"charging": true,
	"engineRunning": false,
	"acChargeLimitPercent": 90,
	"dcChargeLimitPercent": 80,
	"estimatedChargeMinutes": 45,
	"updatedAt": "2024-05-10T11:30:00Z",
	"locationUpdatedAt": "2024-05-10T11:45:00Z"
}`

func TestClientFetchesState(t *testing.T) {
	srv, _ := newTestServer(t, statusPayload, 0)
	c := NewClient(srv.URL, Credentials{Username: "u", Password: "p"}, srv.Client())

	ctx := context.Background()
	if err := c.CheckAndRefreshToken(ctx); err != nil {
		t.Fatalf("token: %v", err)
	}
	snap, err := c.CachedState(ctx, "veh-1")
	if err != nil {
		t.Fatalf("cached state: %v", err)
	}

	if snap.BatteryPct != 64 || snap.AuxBatteryPct != 85 || !snap.Charging {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	expected := time.Date(2024, time.May, 10, 11, 45, 0, 0, time.UTC)
	if !snap.LastUpdate().Equal(expected) {
		t.Fatalf("expected last update %s (location newer), got %s", expected, snap.LastUpdate())
	}
	if len(snap.Raw) == 0 {
		t.Fatal("expected raw payload to be retained")
	}
}

func TestClientReusesUnexpiredToken(t *testing.T) {
	srv, logins := newTestServer(t, statusPayload, 0)
	c := NewClient(srv.URL, Credentials{Username: "u", Password: "p"}, srv.Client())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := c.CheckAndRefreshToken(ctx); err != nil {
			t.Fatalf("token refresh %d: %v", i, err)
		}
	}
	if *logins != 1 {
		t.Fatalf("expected a single login, got %d", *logins)
	}
}

func TestClientClassifiesVendorStatuses(t *testing.T) {
	cases := []struct {
		status   int
		expected FailureKind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusInternalServerError, KindAPIError},
		{http.StatusBadGateway, KindAPIError},
		{http.StatusForbidden, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			srv, _ := newTestServer(t, "", tc.status)
			c := NewClient(srv.URL, Credentials{Username: "u", Password: "p"}, srv.Client())

			ctx := context.Background()
			if err := c.CheckAndRefreshToken(ctx); err != nil {
				t.Fatalf("token: %v", err)
			}
			_, err := c.CachedState(ctx, "veh-1")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := KindOf(err); got != tc.expected {
				t.Fatalf("expected %s, got %s (%v)", tc.expected, got, err)
			}
		})
	}
}

func TestClientRejectsEmptyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, Credentials{Username: "u", Password: "p"}, srv.Client())
	err := c.CheckAndRefreshToken(context.Background())
	if KindOf(err) != KindAPIError {
		t.Fatalf("expected API_ERROR for empty token, got %v", err)
	}
}
