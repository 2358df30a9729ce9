package mist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Site represents a Mist site.
type Site struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	OrgID    string `json:"org_id"`
	Timezone string `json:"timezone"`
	Address  string `json:"address"`
}

// Device is an inventory record from /sites/{id}/devices.
type Device struct {
	ID           string `json:"id"`
	UnderscoreID string `json:"_id"`
	Name         string `json:"name"`
	MAC          string `json:"mac"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	Serial       string `json:"serial"`
	Status       string `json:"status"`

	// Raw is the record exactly as the API returned it.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the record and keeps a copy of the raw bytes. Raw is
// kept and the fields that did decode are filled even when an error is
// returned.
func (d *Device) UnmarshalJSON(data []byte) error {
	type plain Device
	var p plain
	err := json.Unmarshal(data, &p)
	*d = Device(p)
	d.Raw = append(json.RawMessage(nil), data...)
	return err
}

// Identifier returns id, falling back to _id.
func (d Device) Identifier() string {
	if d.ID != "" {
		return d.ID
	}
	return d.UnderscoreID
}

// CPUStat holds the CPU section of a gateway stats record.
type CPUStat struct {
	LoadAvg []float64 `json:"load_avg"`
	Idle    *float64  `json:"idle"`
}

// MemoryStat holds the memory section of a gateway stats record. Gateways
// report usage as a percentage; some also report used/total.
type MemoryStat struct {
	Usage *float64 `json:"usage"`
	Used  *float64 `json:"used"`
	Total *float64 `json:"total"`
}

// Percent returns memory usage in percent, derived from used/total when both
// are present and falling back to the reported usage.
func (m MemoryStat) Percent() (float64, bool) {
	if m.Used != nil && m.Total != nil && *m.Total > 0 {
		return *m.Used / *m.Total * 100, true
	}
	if m.Usage != nil {
		return *m.Usage, true
	}
	return 0, false
}

// Interface is one entry of a gateway's if_stat map.
type Interface struct {
	Name        string   `json:"-"`
	PortID      string   `json:"port_id"`
	PortUsage   string   `json:"port_usage"`
	NetworkName string   `json:"network_name"`
	IPs         []string `json:"ips"`
	Up          bool     `json:"up"`
	RxPkts      Count    `json:"rx_pkts"`
	TxPkts      Count    `json:"tx_pkts"`
	RxBytes     Count    `json:"rx_bytes"`
	TxBytes     Count    `json:"tx_bytes"`
}

// Role is the interface role in upper case, e.g. "LAN" or "WAN".
func (i Interface) Role() string {
	return strings.ToUpper(i.PortUsage)
}

// LinkState is "up" or "down".
func (i Interface) LinkState() string {
	if i.Up {
		return "up"
	}
	return "down"
}

// Interfaces decodes the if_stat object into a slice, keeping the order in
// which the API listed the interfaces.
type Interfaces []Interface

// UnmarshalJSON reads if_stat as an ordered sequence of name/value pairs.
func (is *Interfaces) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*is = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("if_stat: expected object, got %v", tok)
	}
	var out Interfaces
	var firstErr error
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("if_stat: expected interface name, got %v", tok)
		}
		// A bad field only spoils its own entry; the decoder has already
		// consumed the whole value.
		var ifc Interface
		if err := dec.Decode(&ifc); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("if_stat %s: %w", name, err)
		}
		ifc.Name = name
		out = append(out, ifc)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*is = out
	return firstErr
}

// GatewayStats is a record from /sites/{id}/stats/devices?type=gateway.
type GatewayStats struct {
	ID            string     `json:"id"`
	UnderscoreID  string     `json:"_id"`
	MAC           string     `json:"mac"`
	Name          string     `json:"name"`
	RouterName    string     `json:"router_name"`
	Model         string     `json:"model"`
	HardwareModel string     `json:"hardware_model"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Version       string     `json:"version"`
	IP            string     `json:"ip"`
	ExtIP         string     `json:"ext_ip"`
	Uptime        Seconds    `json:"uptime"`
	CPU           CPUStat    `json:"cpu_stat"`
	Memory        MemoryStat `json:"memory_stat"`
	Interfaces    Interfaces `json:"if_stat"`

	// Raw is the record exactly as the API returned it.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the record and keeps a copy of the raw bytes. Raw is
// kept and the fields that did decode are filled even when an error is
// returned.
func (s *GatewayStats) UnmarshalJSON(data []byte) error {
	type plain GatewayStats
	var p plain
	err := json.Unmarshal(data, &p)
	*s = GatewayStats(p)
	s.Raw = append(json.RawMessage(nil), data...)
	return err
}

// Identifier returns id, falling back to _id.
func (s GatewayStats) Identifier() string {
	if s.ID != "" {
		return s.ID
	}
	return s.UnderscoreID
}

// DisplayName returns name, router_name, the identifier, or "unknown".
func (s GatewayStats) DisplayName() string {
	for _, v := range []string{s.Name, s.RouterName, s.Identifier()} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "unknown"
}

// DisplayModel returns model, falling back to hardware_model.
func (s GatewayStats) DisplayModel() string {
	if s.Model != "" {
		return s.Model
	}
	return s.HardwareModel
}

// Count is a packet or byte counter. Gateways report counters as integers,
// floats or numeric strings depending on firmware.
type Count int64

// UnmarshalJSON accepts any JSON number, a numeric string, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	f, err := parseNumber(data)
	if err != nil {
		return fmt.Errorf("counter: %w", err)
	}
	*c = Count(f)
	return nil
}

// Seconds is a duration in seconds, reported as a number or numeric string.
type Seconds float64

// UnmarshalJSON accepts any JSON number, a numeric string, or null.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	f, err := parseNumber(data)
	if err != nil {
		return fmt.Errorf("seconds: %w", err)
	}
	*s = Seconds(f)
	return nil
}

func parseNumber(data []byte) (float64, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return 0, nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal([]byte(raw), &str); err != nil {
			return 0, err
		}
		raw = strings.TrimSpace(str)
		if raw == "" {
			return 0, nil
		}
	}
	return strconv.ParseFloat(raw, 64)
}
