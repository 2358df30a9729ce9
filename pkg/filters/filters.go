// Package filters provides utilities for narrowing site and gateway lists.
package filters

import (
	"strings"

	"mist-gateway-stats/pkg/macaddr"
	"mist-gateway-stats/pkg/mist"
)

// MainSiteName is the placeholder site every Mist org carries.
const MainSiteName = "main_site"

// VisibleSites returns sites to offer in a menu. main_site (matched by name,
// case-insensitive) is dropped, unless it is the only site there is.
func VisibleSites(sites []mist.Site) []mist.Site {
	var visible []mist.Site
	for _, s := range sites {
		if IsMainSite(s) {
			continue
		}
		visible = append(visible, s)
	}
	if len(visible) == 0 {
		return sites
	}
	return visible
}

// IsMainSite reports whether s is the org's default main_site.
func IsMainSite(s mist.Site) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), MainSiteName)
}

// FilterGateways returns only gateway devices. Records without a type are
// kept since the inventory call is already scoped to gateways.
func FilterGateways(devices []mist.Device) []mist.Device {
	var gateways []mist.Device
	for _, d := range devices {
		if d.Type == "" || strings.EqualFold(d.Type, "gateway") {
			gateways = append(gateways, d)
		}
	}
	return gateways
}

// FilterStatsByMAC keeps stats records whose MAC satisfies match. A nil
// matcher keeps everything.
func FilterStatsByMAC(stats []mist.GatewayStats, match macaddr.Matcher) []mist.GatewayStats {
	if match == nil {
		return stats
	}
	var filtered []mist.GatewayStats
	for _, s := range stats {
		if match(s.MAC) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
