// Package main provides a command-line tool for viewing Juniper Mist gateway
// (SSR / SD-WAN) stats. Sites and gateways are picked from interactive menus,
// or named directly with --site and --device-id.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"mist-gateway-stats/pkg/credentials"
	"mist-gateway-stats/pkg/filters"
	"mist-gateway-stats/pkg/logger"
	"mist-gateway-stats/pkg/macaddr"
	"mist-gateway-stats/pkg/match"
	"mist-gateway-stats/pkg/menu"
	"mist-gateway-stats/pkg/mist"
	"mist-gateway-stats/pkg/report"
)

// Config holds all configuration options from environment variables and command-line flags.
type Config struct {
	CredsFile  string // Path to the token/org/URL credentials file
	SiteID     string // Site id, skips site selection
	DeviceID   string // Device id, skips device selection (requires SiteID)
	JSON       bool   // Print raw API records instead of reports
	Limit      int    // Page size for list calls
	MACPattern string // MAC or wildcard pattern for site-wide output
	AfterStats string // What to do after showing stats: prompt, device or site
	Watch      bool   // Follow live stats over the WebSocket stream
	WatchCount int    // Stop watching after this many records (0 = until interrupted)
	LogFile    string // Path to log file
	LogLevel   string // Log level: DEBUG, INFO, WARNING, ERROR
	Verbose    bool   // Enable debug output
}

// After-stats modes.
const (
	AfterStatsPrompt = "prompt"
	AfterStatsDevice = "device"
	AfterStatsSite   = "site"
)

// Version information injected at build time via ldflags.
// Build with: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=<git-sha> -X main.BuildTime=<timestamp>"
const (
	ProgramName = "mist-gateway-stats"
)

var (
	Version   = "dev"     // Version set at build time
	Commit    = "unknown" // Git commit SHA set at build time
	BuildTime = "unknown" // Build timestamp set at build time
	GoVersion = "go1.25"  // Go version (can be updated at build time)
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, executes the requested flow and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(ProgramName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var siteID, deviceID string
	fs.StringVar(&siteID, "site", "", "Mist site id")
	fs.StringVar(&siteID, "s", "", "Shorthand for --site")
	fs.StringVar(&deviceID, "device-id", "", "Mist device id (requires --site)")
	fs.StringVar(&deviceID, "d", "", "Shorthand for --device-id")
	jsonFlag := fs.Bool("json", false, "Output raw JSON instead of a formatted report")
	limitFlag := fs.Int("limit", mist.DefaultLimit, "Maximum number of records per list call")
	macFlag := fs.String("mac", "", "MAC address or wildcard pattern to filter site-wide output")
	afterFlag := fs.String("after-stats", "", "After showing stats: prompt, device or site")
	watchFlag := fs.Bool("watch", false, "Follow live gateway stats for --site")
	watchCountFlag := fs.Int("watch-count", 0, "Stop watching after N records (0 = until interrupted)")
	credsFlag := fs.String("creds", "", "Credentials file path")
	verboseFlag := fs.Bool("verbose", false, "Show debug output")
	logFileFlag := fs.String("log-file", "", "Log file path")
	logLevelFlag := fs.String("log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR")
	versionFlag := fs.Bool("version", false, "Show version and exit")
	helpFlag := fs.Bool("help", false, "Show help")
	fs.Usage = func() {
		printUsage(stdout)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg := Config{
		CredsFile:  strings.TrimSpace(firstNonEmpty(*credsFlag, os.Getenv("MIST_CREDENTIALS_FILE"), credentials.DefaultFile)),
		SiteID:     strings.TrimSpace(siteID),
		DeviceID:   strings.TrimSpace(deviceID),
		JSON:       *jsonFlag,
		Limit:      *limitFlag,
		MACPattern: strings.TrimSpace(*macFlag),
		AfterStats: strings.ToLower(strings.TrimSpace(firstNonEmpty(*afterFlag, os.Getenv("MIST_AFTER_STATS"), AfterStatsPrompt))),
		Watch:      *watchFlag,
		WatchCount: *watchCountFlag,
		LogFile:    strings.TrimSpace(firstNonEmpty(*logFileFlag, os.Getenv("LOG_FILE"))),
		LogLevel:   strings.TrimSpace(firstNonEmpty(*logLevelFlag, os.Getenv("LOG_LEVEL"), "INFO")),
		Verbose:    *verboseFlag,
	}

	if *helpFlag {
		printUsage(stdout)
		return 0
	}

	if *versionFlag {
		printVersion(stdout)
		return 0
	}

	level := logger.ParseLogLevel(cfg.LogLevel)
	if cfg.Verbose {
		level = logger.LevelDebug
	}
	log := logger.New(stderr, cfg.LogFile, level)
	defer log.Close()

	if err := validateConfig(cfg); err != nil {
		return exitWithError(log, err.Error())
	}
	warnIfNotUUID(log, "site", cfg.SiteID)
	warnIfNotUUID(log, "device-id", cfg.DeviceID)

	var matcher macaddr.Matcher
	if cfg.MACPattern != "" {
		var err error
		matcher, err = macaddr.Compile(cfg.MACPattern)
		if err != nil {
			return exitWithError(log, err.Error())
		}
		log.Debugf("MAC filter: %s", cfg.MACPattern)
	}

	creds, err := credentials.Load(cfg.CredsFile)
	if err != nil {
		return exitWithError(log, err.Error())
	}
	client := mist.NewClient(creds.Token, creds.BaseURL, cfg.Limit)
	client.SetLogger(log)
	log.Infof("Using org_id: %s", creds.OrgID)
	log.Infof("Using base_url: %s", client.BaseURL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.SiteID != "" {
		siteLog := log.With("site", cfg.SiteID)
		client.SetLogger(siteLog)
		switch {
		case cfg.Watch:
			return watchStats(ctx, client, cfg, matcher, stdout, siteLog)
		case cfg.DeviceID != "":
			return showDevice(ctx, client, cfg, stdout, siteLog)
		default:
			return showSite(ctx, client, cfg, matcher, stdout, siteLog)
		}
	}

	s := &session{
		cfg:    cfg,
		client: client,
		orgID:  creds.OrgID,
		sel:    menu.New(stdin, stdout),
		out:    stdout,
		log:    log,
	}
	return s.run(ctx)
}

// validateConfig checks flag combinations before any network call is made.
func validateConfig(cfg Config) error {
	if cfg.DeviceID != "" && cfg.SiteID == "" {
		return errors.New("--device-id requires --site")
	}
	if cfg.Watch && cfg.SiteID == "" {
		return errors.New("--watch requires --site")
	}
	if cfg.Limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", cfg.Limit)
	}
	if cfg.WatchCount < 0 {
		return fmt.Errorf("--watch-count must not be negative, got %d", cfg.WatchCount)
	}
	switch cfg.AfterStats {
	case AfterStatsPrompt, AfterStatsDevice, AfterStatsSite:
	default:
		return fmt.Errorf("--after-stats must be one of: prompt, device, site (got %q)", cfg.AfterStats)
	}
	return nil
}

// warnIfNotUUID logs a warning for ids that do not look like Mist ids. The
// id is still used as given.
func warnIfNotUUID(log *logger.Logger, name, id string) {
	if id == "" {
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		log.Warnf("--%s %q does not look like a Mist id (UUID); using it anyway", name, id)
	}
}

// showDevice prints stats for a single gateway with one API call.
func showDevice(ctx context.Context, client *mist.Client, cfg Config, out io.Writer, log *logger.Logger) int {
	st, err := client.GetGatewayStats(ctx, cfg.SiteID, cfg.DeviceID)
	if err != nil {
		return exitWithError(log, err.Error())
	}
	if cfg.JSON {
		if err := report.WriteJSON(out, st.Raw); err != nil {
			return exitWithError(log, err.Error())
		}
		return 0
	}
	report.WriteGateway(out, st)
	return 0
}

// showSite prints stats for every gateway of a site.
func showSite(ctx context.Context, client *mist.Client, cfg Config, matcher macaddr.Matcher, out io.Writer, log *logger.Logger) int {
	stats, err := client.ListGatewayStats(ctx, cfg.SiteID)
	if err != nil {
		return exitWithError(log, err.Error())
	}
	stats = filters.FilterStatsByMAC(stats, matcher)
	log.Debugf("%d gateway stats record(s) for site %s", len(stats), cfg.SiteID)

	if cfg.JSON {
		raws := make([]json.RawMessage, 0, len(stats))
		for _, st := range stats {
			raws = append(raws, st.Raw)
		}
		if err := report.WriteJSONList(out, raws); err != nil {
			return exitWithError(log, err.Error())
		}
		return 0
	}
	report.WriteSummary(out, stats)
	return 0
}

// watchStats follows the live stats stream of a site.
func watchStats(ctx context.Context, client *mist.Client, cfg Config, matcher macaddr.Matcher, out io.Writer, log *logger.Logger) int {
	stream, err := client.SubscribeGatewayStats(ctx, cfg.SiteID)
	if err != nil {
		return exitWithError(log, err.Error())
	}
	stopClose := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer func() {
		if stopClose() {
			_ = stream.Close()
		}
	}()
	log.Infof("Watching %s", stream.Channel())

	seen := 0
	for cfg.WatchCount == 0 || seen < cfg.WatchCount {
		st, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return 0
			}
			return exitWithError(log, fmt.Sprintf("stream %s: %v", stream.Channel(), err))
		}
		if matcher != nil && !matcher(st.MAC) {
			continue
		}
		seen++
		if cfg.JSON {
			if err := report.WriteJSON(out, st.Raw); err != nil {
				return exitWithError(log, err.Error())
			}
			continue
		}
		report.WriteGateway(out, st)
		fmt.Fprintln(out)
	}
	return 0
}

// session is one interactive run.
type session struct {
	cfg    Config
	client *mist.Client
	orgID  string
	sel    *menu.Selector
	out    io.Writer
	log    *logger.Logger

	site     mist.Site
	gateways []mist.Device
	device   mist.Device
}

type state int

const (
	stateSelectSite state = iota
	stateSelectDevice
	stateShowStats
	stateQuit
)

// run drives SelectSite -> SelectDevice -> ShowStats until the user quits.
func (s *session) run(ctx context.Context) int {
	st := stateSelectSite
	for st != stateQuit {
		var err error
		switch st {
		case stateSelectSite:
			st, err = s.selectSite(ctx)
		case stateSelectDevice:
			st, err = s.selectDevice(ctx)
		case stateShowStats:
			st, err = s.showStats(ctx)
		}
		if errors.Is(err, menu.ErrQuit) {
			break
		}
		if err != nil {
			return exitWithError(s.log, err.Error())
		}
	}
	fmt.Fprintln(s.out, "Exiting gateway stats viewer.")
	return 0
}

func (s *session) selectSite(ctx context.Context) (state, error) {
	s.client.SetLogger(s.log)
	sites, err := s.client.ListSites(ctx, s.orgID)
	if err != nil {
		return stateQuit, err
	}
	visible := filters.VisibleSites(sites)
	if len(visible) == 0 {
		fmt.Fprintf(s.out, "No sites found for org %s.\n", s.orgID)
		return stateQuit, nil
	}

	idx, err := s.sel.Choose("Select a site:", report.SiteLabels(visible))
	if err != nil {
		return stateQuit, err
	}
	s.site = visible[idx]
	s.gateways = nil
	s.client.SetLogger(s.log.With("site", s.site.ID))
	return stateSelectDevice, nil
}

func (s *session) selectDevice(ctx context.Context) (state, error) {
	if s.gateways == nil {
		fmt.Fprintf(s.out, "\nSelected site: %s (%s)\n", s.site.Name, s.site.ID)
		fmt.Fprintln(s.out, "Fetching gateway inventory...")
		devices, err := s.client.ListDevices(ctx, s.site.ID)
		if err != nil {
			s.log.Errorf("%v", err)
			return stateSelectSite, nil
		}
		s.gateways = filters.FilterGateways(devices)
		if s.gateways == nil {
			s.gateways = []mist.Device{}
		}
	}
	if len(s.gateways) == 0 {
		fmt.Fprintln(s.out, "No gateway devices found for this site.")
		return stateSelectSite, nil
	}

	fmt.Fprintln(s.out)
	report.WriteGatewayTable(s.out, s.gateways)
	idx, err := s.sel.ChooseWithBack("Select a gateway to view stats:", report.GatewayLabels(s.gateways))
	switch {
	case errors.Is(err, menu.ErrBack):
		return stateSelectSite, nil
	case err != nil:
		return stateQuit, err
	}
	s.device = s.gateways[idx]
	return stateShowStats, nil
}

func (s *session) showStats(ctx context.Context) (state, error) {
	fmt.Fprintln(s.out)
	report.WriteInventory(s.out, s.device)

	stats, err := s.client.ListGatewayStats(ctx, s.site.ID)
	if err != nil {
		s.log.Errorf("%v", err)
		return stateSelectSite, nil
	}

	fmt.Fprintln(s.out)
	res, ok := match.Find(s.device, stats)
	switch {
	case s.cfg.JSON && ok:
		if err := report.WriteJSON(s.out, res.Stats.Raw); err != nil {
			return stateQuit, err
		}
	case s.cfg.JSON:
		s.log.Warnf("No stats record matched %s; showing inventory record", s.device.Identifier())
		if err := report.WriteJSON(s.out, s.device.Raw); err != nil {
			return stateQuit, err
		}
	case ok:
		s.log.Debugf("Matched stats for %s by %s", s.device.Identifier(), res.By)
		report.WriteGateway(s.out, match.Merge(s.device, res.Stats))
	default:
		report.WriteNoStats(s.out, s.device)
	}
	fmt.Fprintln(s.out)

	return s.afterStats()
}

func (s *session) afterStats() (state, error) {
	switch s.cfg.AfterStats {
	case AfterStatsDevice:
		return stateSelectDevice, s.sel.Pause("Press Enter to return to device selection...")
	case AfterStatsSite:
		return stateSelectSite, s.sel.Pause("Press Enter to return to site selection...")
	}

	idx, err := s.sel.Choose("What next?", []string{
		"View another device at this site",
		"Choose another site",
	})
	if err != nil {
		return stateQuit, err
	}
	if idx == 0 {
		return stateSelectDevice, nil
	}
	return stateSelectSite, nil
}

// firstNonEmpty returns the first non-empty string from the provided values.
// Returns empty string if all values are empty or whitespace-only.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// exitWithError logs an error message and returns exit code 1.
func exitWithError(log *logger.Logger, msg string) int {
	if log != nil {
		log.Errorf("%s", msg)
	}
	return 1
}

// printUsage writes comprehensive help text to w.
func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - Juniper Mist gateway stats viewer\n", ProgramName)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [--site <site_id> [--device-id <device_id>]] [--json]\n", ProgramName)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --site, -s <id>              Site id; skips interactive site selection")
	fmt.Fprintln(w, "  --device-id, -d <id>         Device id; fetches only that gateway (requires --site)")
	fmt.Fprintln(w, "  --json                       Output raw JSON instead of a formatted report")
	fmt.Fprintf(w, "  --limit <n>                  Records per list call (default %d)\n", mist.DefaultLimit)
	fmt.Fprintln(w, "  --mac <mac|pattern>          Only show gateways matching a MAC or wildcard pattern")
	fmt.Fprintln(w, "  --after-stats <mode>         prompt | device | site (default prompt)")
	fmt.Fprintln(w, "  --watch                      Follow live gateway stats for --site")
	fmt.Fprintln(w, "  --watch-count <n>            Stop after n records (default 0 = until Ctrl+C)")
	fmt.Fprintf(w, "  --creds <file>               Credentials file (default %s)\n", credentials.DefaultFile)
	fmt.Fprintln(w, "  --verbose                    Show debug output")
	fmt.Fprintln(w, "  --log-file <filename>        Log file path")
	fmt.Fprintln(w, "  --log-level <DEBUG|INFO|WARNING|ERROR>  Log level (default INFO)")
	fmt.Fprintln(w, "  --version                    Show version and exit")
	fmt.Fprintln(w, "  --help                       Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Credentials file (JSON, KEY=VALUE, or three lines token/org_id/base_url):")
	fmt.Fprintln(w, `  {"token": "...", "org_id": "...", "base_url": "api.mist.com"}`)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MIST_CREDENTIALS_FILE  Credentials file path")
	fmt.Fprintln(w, "  MIST_AFTER_STATS       prompt | device | site")
	fmt.Fprintln(w, "  LOG_FILE               Log file path")
	fmt.Fprintln(w, "  LOG_LEVEL              DEBUG | INFO | WARNING | ERROR")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s\n", ProgramName)
	fmt.Fprintf(w, "  %s --site a618679d-e590-48c7-a6bd-b3f3c5630f5b\n", ProgramName)
	fmt.Fprintf(w, "  %s -s <site_id> -d 00000000-0000-0000-1000-5c5b35a1b2c3 --json\n", ProgramName)
	fmt.Fprintf(w, "  %s -s <site_id> --mac 5c:5b:35:*:*:*\n", ProgramName)
	fmt.Fprintf(w, "  %s -s <site_id> --watch --watch-count 10\n", ProgramName)
}

// printVersion writes version and build information to w.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", ProgramName, Version)
	fmt.Fprintf(w, "  Commit:     %s\n", Commit)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Go Version: %s\n", GoVersion)
}
