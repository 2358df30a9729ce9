// Package mist provides a client for the Juniper Mist cloud API v1.
// It covers the site, inventory and gateway stats endpoints used to inspect
// SD-WAN/SSR gateways, and the WebSocket stream for live stats.
package mist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mist-gateway-stats/pkg/logger"
)

const (
	// DefaultBaseURL is the global Mist cloud.
	DefaultBaseURL = "https://api.mist.com/api/v1"
	// DefaultLimit is the page size requested from list endpoints.
	DefaultLimit = 1000

	requestTimeout = 15 * time.Second
)

// APIError is returned for transport failures and non-2xx responses.
// StatusCode is 0 when no response was received.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "mist API error %d on %s", e.StatusCode, e.Path)
	} else {
		fmt.Fprintf(&b, "mist API request %s failed", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client is an HTTP client wrapper for the Mist API.
type Client struct {
	token   string
	baseURL string
	limit   int
	client  *http.Client
	log     *logger.Logger
}

// NewClient creates a new Mist API client. baseURL must already carry the
// /api/v1 suffix; limit <= 0 uses DefaultLimit.
func NewClient(token, baseURL string, limit int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetLogger enables debug logging of requests.
func (m *Client) SetLogger(log *logger.Logger) {
	m.log = log
}

// BaseURL returns the normalized API base URL.
func (m *Client) BaseURL() string {
	return m.baseURL
}

// ListSites retrieves the sites of an organization.
func (m *Client) ListSites(ctx context.Context, orgID string) ([]Site, error) {
	path := fmt.Sprintf("/orgs/%s/sites", url.PathEscape(orgID))
	raws, err := m.getList(ctx, path, url.Values{"limit": []string{strconv.Itoa(m.limit)}})
	if err != nil {
		return nil, err
	}
	sites := make([]Site, 0, len(raws))
	for _, r := range raws {
		var s Site
		if err := json.Unmarshal(r, &s); err != nil {
			m.log.Warnf("Partially decoded site record on %s: %v", path, err)
		}
		if s.ID == "" {
			m.log.Warnf("Skipping site record without id on %s", path)
			continue
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// ListDevices retrieves the gateway inventory of a site.
func (m *Client) ListDevices(ctx context.Context, siteID string) ([]Device, error) {
	path := fmt.Sprintf("/sites/%s/devices", url.PathEscape(siteID))
	raws, err := m.getList(ctx, path, m.gatewayParams())
	if err != nil {
		return nil, err
	}
	devs := make([]Device, 0, len(raws))
	for _, r := range raws {
		var d Device
		if err := json.Unmarshal(r, &d); err != nil {
			m.log.Warnf("Partially decoded device record on %s: %v", path, err)
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// ListGatewayStats retrieves stats for every gateway at a site. Records with
// fields of an unexpected type are kept with their raw JSON and a warning.
func (m *Client) ListGatewayStats(ctx context.Context, siteID string) ([]GatewayStats, error) {
	path := fmt.Sprintf("/sites/%s/stats/devices", url.PathEscape(siteID))
	raws, err := m.getList(ctx, path, m.gatewayParams())
	if err != nil {
		return nil, err
	}
	stats := make([]GatewayStats, 0, len(raws))
	for _, r := range raws {
		var s GatewayStats
		if err := json.Unmarshal(r, &s); err != nil {
			m.log.Warnf("Partially decoded stats record on %s: %v", path, err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// GetGatewayStats retrieves stats for a single gateway.
func (m *Client) GetGatewayStats(ctx context.Context, siteID, deviceID string) (GatewayStats, error) {
	path := fmt.Sprintf("/sites/%s/stats/devices/%s", url.PathEscape(siteID), url.PathEscape(deviceID))
	body, err := m.doRequest(ctx, path, url.Values{"type": []string{"gateway"}})
	if err != nil {
		return GatewayStats{}, err
	}
	if !json.Valid(body) || !strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		return GatewayStats{}, &APIError{Path: path, Message: "unexpected response format for single device stats"}
	}
	var s GatewayStats
	if err := json.Unmarshal(body, &s); err != nil {
		m.log.Warnf("Partially decoded stats record on %s: %v", path, err)
	}
	return s, nil
}

func (m *Client) gatewayParams() url.Values {
	return url.Values{
		"type":  []string{"gateway"},
		"limit": []string{strconv.Itoa(m.limit)},
	}
}

// getList fetches a list endpoint. Mist returns either a bare array or an
// object wrapping the array in "results".
func (m *Client) getList(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	body, err := m.doRequest(ctx, path, params)
	if err != nil {
		return nil, err
	}
	raws, err := decodeList(body)
	if err != nil {
		return nil, &APIError{Path: path, Message: "unexpected response format", Err: err}
	}
	return raws, nil
}

func decodeList(body []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Results *[]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Results == nil {
		return nil, errors.New(`response is neither a list nor an object with "results"`)
	}
	return *wrapped.Results, nil
}

// buildURL constructs a full API URL from a path and query parameters.
func (m *Client) buildURL(path string, params url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := m.baseURL + path
	if len(params) == 0 {
		return full
	}
	return full + "?" + params.Encode()
}

// doRequest executes a GET with the API token attached. Failures are not
// retried.
func (m *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := m.buildURL(path, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &APIError{Path: path, Err: err}
	}
	m.authorize(req.Header)
	req.Header.Set("Accept", "application/json")

	m.log.Debugf("GET %s", fullURL)
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &APIError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

func (m *Client) authorize(h http.Header) {
	h.Set("Authorization", "Token "+m.token)
}
