// Package report renders gateway inventory and stats for the terminal, or
// passes the raw API records through as indented JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mist-gateway-stats/pkg/macaddr"
	"mist-gateway-stats/pkg/mist"
)

const ruleWidth = 80

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
)

// WriteGateway writes the full report for one gateway: identity, status,
// CPU, memory and interfaces, in that order.
func WriteGateway(w io.Writer, st mist.GatewayStats) {
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Gateway: %s", st.DisplayName()))+
		fmt.Sprintf("  MAC: %s  Model: %s  Status: %s",
			orNA(macaddr.FormatMacColon(st.MAC)), orNA(st.DisplayModel()), orNA(st.Status)))
	if id := st.Identifier(); id != "" {
		fmt.Fprintf(w, "  ID: %s\n", id)
	}

	fmt.Fprintln(w, headingStyle.Render("Status"))
	fmt.Fprintf(w, "  Status:   %s\n", orNA(st.Status))
	fmt.Fprintf(w, "  Version:  %s\n", orNA(st.Version))
	fmt.Fprintf(w, "  Uptime:   %s\n", FormatUptime(float64(st.Uptime)))
	fmt.Fprintf(w, "  IP:       %s\n", orNA(st.IP))
	fmt.Fprintf(w, "  Ext IP:   %s\n", orNA(st.ExtIP))

	fmt.Fprintln(w, headingStyle.Render("CPU"))
	fmt.Fprintf(w, "  Load avg (1m, 5m, 15m): %s\n", formatLoad(st.CPU.LoadAvg))

	fmt.Fprintln(w, headingStyle.Render("Memory"))
	fmt.Fprintf(w, "  %s\n", formatMemory(st.Memory))

	fmt.Fprintln(w, headingStyle.Render("Interfaces"))
	writeInterfaces(w, st.Interfaces)
}

// WriteSummary writes a report for every record, as the site-wide view does.
func WriteSummary(w io.Writer, stats []mist.GatewayStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No gateway devices found for this site.")
		return
	}
	fmt.Fprintf(w, "Found %d gateway device(s):\n\n", len(stats))
	for _, st := range stats {
		WriteGateway(w, st)
		fmt.Fprintln(w)
	}
}

// WriteInventory writes the inventory block shown right after a gateway is
// picked from the menu.
func WriteInventory(w io.Writer, dev mist.Device) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintln(w, titleStyle.Render("Selected gateway (inventory):"))
	fmt.Fprintf(w, "  Name:   %s\n", orNA(dev.Name))
	fmt.Fprintf(w, "  MAC:    %s\n", orNA(macaddr.FormatMacColon(dev.MAC)))
	fmt.Fprintf(w, "  ID:     %s\n", orNA(dev.Identifier()))
	fmt.Fprintf(w, "  Model:  %s\n", orNA(dev.Model))
	fmt.Fprintf(w, "  Status: %s\n", orNA(dev.Status))
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// WriteNoStats tells the user that no stats record matched dev.
func WriteNoStats(w io.Writer, dev mist.Device) {
	name := dev.Name
	if name == "" {
		name = dev.Identifier()
	}
	fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf("No stats available for gateway %s.", orNA(name))))
}

// WriteGatewayTable lists the gateway inventory of a site as a table.
func WriteGatewayTable(w io.Writer, devices []mist.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No gateway devices found for this site.")
		return
	}
	fmt.Fprintf(w, "Found %d gateway device(s):\n", len(devices))
	headers := []string{"#", "Name", "MAC", "ID", "Model", "Status"}
	rows := make([][]string, 0, len(devices))
	for i, d := range devices {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			orNA(d.Name),
			orNA(macaddr.FormatMacColon(d.MAC)),
			orNA(d.Identifier()),
			orNA(d.Model),
			orNA(d.Status),
		})
	}
	writeTable(w, "  ", headers, rows)
}

// GatewayLabels returns one menu label per device.
func GatewayLabels(devices []mist.Device) []string {
	labels := make([]string, 0, len(devices))
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = d.Identifier()
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", orNA(name), orNA(macaddr.FormatMacColon(d.MAC))))
	}
	return labels
}

// SiteLabels returns one menu label per site.
func SiteLabels(sites []mist.Site) []string {
	labels := make([]string, 0, len(sites))
	for _, s := range sites {
		name := s.Name
		if name == "" {
			name = "unnamed-site"
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", name, s.ID))
	}
	return labels
}

// WriteJSON writes a raw API record indented, preserving key order.
func WriteJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact(raw), "", "  "); err != nil {
		return fmt.Errorf("format JSON: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteJSONList writes raw records as one indented JSON array.
func WriteJSONList(w io.Writer, raws []json.RawMessage) error {
	if raws == nil {
		raws = []json.RawMessage{}
	}
	list, err := json.Marshal(raws)
	if err != nil {
		return fmt.Errorf("format JSON: %w", err)
	}
	return WriteJSON(w, list)
}

// FormatUptime renders seconds as "1d 2h 3m 4s (93784 s)".
func FormatUptime(seconds float64) string {
	if seconds <= 0 {
		return "n/a"
	}
	total := int64(seconds)
	d := total / 86400
	h := total % 86400 / 3600
	m := total % 3600 / 60
	s := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds (%d s)", d, h, m, s, total)
}

func formatLoad(load []float64) string {
	if len(load) == 0 {
		return "n/a"
	}
	parts := make([]string, 0, len(load))
	for _, v := range load {
		parts = append(parts, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return strings.Join(parts, ", ")
}

func formatMemory(m mist.MemoryStat) string {
	pct, ok := m.Percent()
	if !ok {
		return "Usage: n/a"
	}
	if m.Used != nil && m.Total != nil && *m.Total > 0 {
		return fmt.Sprintf("Used: %s / Total: %s (%.1f%%)", formatCount(*m.Used), formatCount(*m.Total), pct)
	}
	return fmt.Sprintf("Usage: %.1f%%", pct)
}

func writeInterfaces(w io.Writer, ifaces mist.Interfaces) {
	if len(ifaces) == 0 {
		fmt.Fprintln(w, "  (no interfaces reported)")
		return
	}
	headers := []string{"Name", "Role", "Network", "IPs", "RX pkts", "TX pkts", "Link"}
	rows := make([][]string, 0, len(ifaces))
	for _, ifc := range ifaces {
		rows = append(rows, []string{
			ifc.Name,
			orNA(ifc.Role()),
			ifc.NetworkName,
			strings.Join(ifc.IPs, ", "),
			strconv.FormatInt(int64(ifc.RxPkts), 10),
			strconv.FormatInt(int64(ifc.TxPkts), 10),
			ifc.LinkState(),
		})
	}
	writeTable(w, "  ", headers, rows)
}

// writeTable writes rows as aligned columns.
func writeTable(w io.Writer, indent string, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, v := range row {
			widths[i] = max(widths[i], len(v))
		}
	}

	separator := indent + strings.Repeat("-", sum(widths)+len(widths)*3-3)
	fmt.Fprintln(w, indent+formatRow(headers, widths))
	fmt.Fprintln(w, separator)
	for _, row := range rows {
		fmt.Fprintln(w, indent+formatRow(row, widths))
	}
}

// formatRow formats a row of values with column widths for text table output.
func formatRow(values []string, widths []int) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		parts = append(parts, fmt.Sprintf("%-*s", widths[i], v))
	}
	return strings.TrimRight(strings.Join(parts, " | "), " ")
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
