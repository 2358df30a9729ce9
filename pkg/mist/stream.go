package mist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"mist-gateway-stats/pkg/logger"
)

const streamPath = "/api-ws/v1/stream"

// streamMessage is the envelope of every message on the Mist WebSocket.
// For "data" events the payload is a JSON document encoded as a string.
type streamMessage struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Data    string `json:"data"`
}

// Stream is a live subscription to a site's device stats channel.
type Stream struct {
	conn    *websocket.Conn
	channel string
	log     *logger.Logger
}

// StreamURL derives the WebSocket endpoint from the REST base URL, e.g.
// https://api.eu.mist.com/api/v1 -> wss://api-ws.eu.mist.com/api-ws/v1/stream.
func (m *Client) StreamURL() (string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	if host := u.Hostname(); strings.HasPrefix(host, "api.") {
		u.Host = strings.Replace(u.Host, "api.", "api-ws.", 1)
	}
	u.Path = streamPath
	u.RawQuery = ""
	return u.String(), nil
}

// SubscribeGatewayStats opens the stream and subscribes to the device stats
// channel of siteID.
func (m *Client) SubscribeGatewayStats(ctx context.Context, siteID string) (*Stream, error) {
	wsURL, err := m.StreamURL()
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	m.authorize(header)

	m.log.Debugf("Dialing %s", wsURL)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		apiErr := &APIError{Path: streamPath, Err: err}
		if resp != nil {
			apiErr.StatusCode = resp.StatusCode
			_ = resp.Body.Close()
		}
		return nil, apiErr
	}

	channel := fmt.Sprintf("/sites/%s/stats/devices", siteID)
	if err := conn.WriteJSON(map[string]string{"subscribe": channel}); err != nil {
		_ = conn.Close()
		return nil, &APIError{Path: streamPath, Message: "subscribe failed", Err: err}
	}
	return &Stream{conn: conn, channel: channel, log: m.log}, nil
}

// Next blocks until the next gateway stats record arrives. Control events and
// records of other device types are skipped. A record with fields of an
// unexpected type is returned with its raw JSON and a warning.
func (s *Stream) Next() (GatewayStats, error) {
	for {
		var msg streamMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return GatewayStats{}, err
		}
		if msg.Event != "data" || msg.Data == "" {
			continue
		}
		if !json.Valid([]byte(msg.Data)) {
			return GatewayStats{}, fmt.Errorf("decode stream data on %s: invalid JSON", msg.Channel)
		}
		var st GatewayStats
		if err := json.Unmarshal([]byte(msg.Data), &st); err != nil {
			s.log.Warnf("Partially decoded stream record on %s: %v", msg.Channel, err)
		}
		if st.Type != "" && st.Type != "gateway" {
			continue
		}
		return st, nil
	}
}

// Channel returns the subscribed channel name.
func (s *Stream) Channel() string {
	return s.channel
}

// Close sends a close frame and releases the connection.
func (s *Stream) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
