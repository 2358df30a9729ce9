package mist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "T1"
	testSite  = "S1"
)

// requestLog records request URIs seen by the test server.
type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.uris...)
}

// newTestServer serves a minimal Mist API under /api/v1 and records the
// request URIs it sees.
func newTestServer(t *testing.T, routes map[string]string) (*httptest.Server, *requestLog) {
	t.Helper()
	seen := &requestLog{}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			seen.add(req.URL.RequestURI())
			if req.Header.Get("Authorization") != "Token "+testToken {
				http.Error(w, `{"detail":"Authentication credentials were not provided."}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	for path, body := range routes {
		body := body
		api.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}).Methods(http.MethodGet)
	}

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestListSites(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/orgs/{org}/sites": `[{"id":"s-main","name":"main_site"},{"id":"s-a","name":"Branch A","timezone":"America/New_York"}]`,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 0)

	sites, err := c.ListSites(context.Background(), "O1")
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "main_site", sites[0].Name)
	assert.Equal(t, "America/New_York", sites[1].Timezone)
	assert.Equal(t, []string{"/api/v1/orgs/O1/sites?limit=1000"}, seen.all())
}

func TestListDevices_ResultsWrapper(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/sites/{site}/devices": `{"results":[{"id":"d1","name":"spoke-1","mac":"5c5b35a1b2c3","model":"SSR120","type":"gateway"}]}`,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 50)

	devs, err := c.ListDevices(context.Background(), testSite)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, "spoke-1", devs[0].Name)
	assert.JSONEq(t, `{"id":"d1","name":"spoke-1","mac":"5c5b35a1b2c3","model":"SSR120","type":"gateway"}`, string(devs[0].Raw))
	assert.Equal(t, []string{"/api/v1/sites/S1/devices?limit=50&type=gateway"}, seen.all())
}

func TestListGatewayStats(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/sites/{site}/stats/devices": `[
			{"id":"d1","mac":"5c5b35a1b2c3","status":"connected","uptime":90061,
			 "if_stat":{"ge-0/0/1":{"port_usage":"wan","up":true},"ge-0/0/0":{"port_usage":"lan","up":false}}},
			{"_id":"d2","mac":"5c5b35a1b2c4","status":"disconnected"}
		]`,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 0)

	stats, err := c.ListGatewayStats(context.Background(), testSite)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "d1", stats[0].Identifier())
	assert.Equal(t, "d2", stats[1].Identifier())
	require.Len(t, stats[0].Interfaces, 2)
	assert.Equal(t, "ge-0/0/1", stats[0].Interfaces[0].Name)
	assert.Equal(t, "ge-0/0/0", stats[0].Interfaces[1].Name)
}

func TestGetGatewayStats_SingleRequest(t *testing.T) {
	payload := `{"id":"D1","name":"hub","version":"6.2.0"}`
	srv, seen := newTestServer(t, map[string]string{
		"/sites/{site}/stats/devices/{device}": payload,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 0)

	st, err := c.GetGatewayStats(context.Background(), testSite, "D1")
	require.NoError(t, err)
	assert.Equal(t, "6.2.0", st.Version)
	assert.JSONEq(t, payload, string(st.Raw))
	assert.Equal(t, []string{"/api/v1/sites/S1/stats/devices/D1?type=gateway"}, seen.all())
}

func TestGetGatewayStats_MismatchedFieldKeepsRecord(t *testing.T) {
	payload := `{"id":"D1","name":"hub","uptime":"3600","version":6}`
	srv, _ := newTestServer(t, map[string]string{
		"/sites/{site}/stats/devices/{device}": payload,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 0)

	st, err := c.GetGatewayStats(context.Background(), testSite, "D1")
	require.NoError(t, err)
	assert.Equal(t, "hub", st.Name)
	assert.Equal(t, Seconds(3600), st.Uptime)
	assert.JSONEq(t, payload, string(st.Raw))
}

func TestListCalls_MismatchedFieldKeepsRecords(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/orgs/{org}/sites":           `[{"id":"s1","name":"HQ","timezone":7},{"name":"no-id"}]`,
		"/sites/{site}/devices":       `[{"id":"d1","model":120},{"id":"d2","model":"SSR120"}]`,
		"/sites/{site}/stats/devices": `[{"id":"d1","if_stat":{"wan0":{"rx_pkts":1.5e3}}},{"id":"d2","version":6}]`,
	})
	c := NewClient(testToken, srv.URL+"/api/v1", 0)

	sites, err := c.ListSites(context.Background(), "O1")
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "HQ", sites[0].Name)

	devs, err := c.ListDevices(context.Background(), testSite)
	require.NoError(t, err)
	require.Len(t, devs, 2)
	assert.JSONEq(t, `{"id":"d1","model":120}`, string(devs[0].Raw))

	stats, err := c.ListGatewayStats(context.Background(), testSite)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Len(t, stats[0].Interfaces, 1)
	assert.Equal(t, Count(1500), stats[0].Interfaces[0].RxPkts)
	assert.Equal(t, "d2", stats[1].ID)
	assert.JSONEq(t, `{"id":"d2","version":6}`, string(stats[1].Raw))
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.eu.mist.com/api/v1", NewClient(testToken, "https://api.eu.mist.com/api/v1/", 0).BaseURL())
}

func TestAPIErrors(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/orgs/{org}/sites":                `[]`,
		"/sites/{site}/devices":            `{"unexpected":true}`,
		"/sites/{site}/stats/devices/list": `[{"id":"D1"}]`,
	})

	t.Run("http status", func(t *testing.T) {
		c := NewClient("wrong-token", srv.URL+"/api/v1", 0)
		_, err := c.ListSites(context.Background(), "O1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "Authentication credentials")
	})

	t.Run("not found", func(t *testing.T) {
		c := NewClient(testToken, srv.URL+"/api/v1", 0)
		_, err := c.GetGatewayStats(context.Background(), testSite, "missing")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("single stats not an object", func(t *testing.T) {
		c := NewClient(testToken, srv.URL+"/api/v1", 0)
		_, err := c.GetGatewayStats(context.Background(), testSite, "list")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, err.Error(), "single device stats")
	})

	t.Run("unexpected shape", func(t *testing.T) {
		c := NewClient(testToken, srv.URL+"/api/v1", 0)
		_, err := c.ListDevices(context.Background(), testSite)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, err.Error(), "unexpected response format")
	})

	t.Run("transport", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		base := dead.URL + "/api/v1"
		dead.Close()

		c := NewClient(testToken, base, 0)
		_, err := c.ListSites(context.Background(), "O1")

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Zero(t, apiErr.StatusCode)
		assert.NotNil(t, errors.Unwrap(err))
	})
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "array", body: `[{},{}]`, want: 2},
		{name: "empty array", body: `[]`, want: 0},
		{name: "results wrapper", body: `{"results":[{}]}`, want: 1},
		{name: "object without results", body: `{"id":"x"}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
