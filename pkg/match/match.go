// Package match correlates gateway inventory records with gateway stats
// records. The two endpoints do not always agree on key naming, so matching
// runs through an ordered list of strategies until one succeeds.
package match

import (
	"strings"

	"mist-gateway-stats/pkg/macaddr"
	"mist-gateway-stats/pkg/mist"
)

// Strategy is one way of deciding that a stats record belongs to a device.
type Strategy struct {
	Name  string
	Match func(dev mist.Device, st mist.GatewayStats) bool
}

// ByID matches on id. Either side may carry it as id or _id.
var ByID = Strategy{
	Name: "id",
	Match: func(dev mist.Device, st mist.GatewayStats) bool {
		for _, id := range []string{dev.ID, dev.UnderscoreID} {
			id = strings.TrimSpace(id)
			if id != "" && (st.ID == id || st.UnderscoreID == id) {
				return true
			}
		}
		return false
	},
}

// ByMAC matches on MAC address, ignoring case and separators.
var ByMAC = Strategy{
	Name: "mac",
	Match: func(dev mist.Device, st mist.GatewayStats) bool {
		return macaddr.Equal(dev.MAC, st.MAC)
	},
}

// ByDeviceIDMAC matches using the MAC embedded in Mist device ids, for
// records where one side lacks a usable mac or id field.
var ByDeviceIDMAC = Strategy{
	Name: "device-id-mac",
	Match: func(dev mist.Device, st mist.GatewayStats) bool {
		devMAC := dev.MAC
		if m, ok := macaddr.FromDeviceID(dev.Identifier()); ok {
			devMAC = m
		}
		stMAC := st.MAC
		if m, ok := macaddr.FromDeviceID(st.Identifier()); ok {
			stMAC = m
		}
		return macaddr.Equal(devMAC, stMAC)
	},
}

// DefaultStrategies is the priority order used when Find gets none.
var DefaultStrategies = []Strategy{ByID, ByMAC, ByDeviceIDMAC}

// Result is a successful correlation.
type Result struct {
	Stats mist.GatewayStats
	// By names the strategy that matched.
	By string
}

// Find returns the stats record for dev. Each strategy is tried across all
// records before falling through to the next one. ok is false when nothing
// matched.
func Find(dev mist.Device, stats []mist.GatewayStats, strategies ...Strategy) (Result, bool) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		for _, st := range stats {
			if s.Match(dev, st) {
				return Result{Stats: st, By: s.Name}, true
			}
		}
	}
	return Result{}, false
}

// Merge fills identity fields the stats record lacks from the inventory
// record. Live values from the stats record always win.
func Merge(dev mist.Device, st mist.GatewayStats) mist.GatewayStats {
	if st.ID == "" && st.UnderscoreID == "" {
		st.ID = dev.Identifier()
	}
	if st.Name == "" && st.RouterName == "" {
		st.Name = dev.Name
	}
	if st.MAC == "" {
		st.MAC = dev.MAC
	}
	if st.DisplayModel() == "" {
		st.Model = dev.Model
	}
	if st.Status == "" {
		st.Status = dev.Status
	}
	return st
}
