// Package credentials loads the Mist API token, org id and base URL from the
// local Token-Org-URL.txt file.
//
// Three encodings are accepted and detected by content shape:
//
//	JSON object     {"token": "...", "org_id": "...", "base_url": "..."}
//	key=value lines token=... / org_id=... / base_url=...
//	three lines     <token>, <org_id>, <base_url>
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFile is the credential file looked up in the working directory.
const DefaultFile = "Token-Org-URL.txt"

// APIVersionPath is the suffix every normalized base URL ends with.
const APIVersionPath = "/api/v1"

// Credentials holds what is needed to talk to the Mist API.
type Credentials struct {
	Token   string
	OrgID   string
	BaseURL string
}

// ConfigError reports an unusable credential file.
type ConfigError struct {
	Path   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config error")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// Format identifies which encoding a credential file used.
type Format int

const (
	FormatJSON Format = iota + 1
	FormatKeyValue
	FormatPositional
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatKeyValue:
		return "key=value"
	case FormatPositional:
		return "positional"
	default:
		return "unknown"
	}
}

// errNotThisFormat tells Parse to move on to the next strategy.
var errNotThisFormat = errors.New("content does not match format")

type strategy struct {
	format Format
	parse  func(raw string) (Credentials, error)
}

// strategies are tried in order; the first one that recognizes the content wins.
var strategies = []strategy{
	{FormatJSON, parseJSON},
	{FormatKeyValue, parseKeyValue},
	{FormatPositional, parsePositional},
}

// Load reads and parses the credential file at path.
func Load(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, &ConfigError{Path: path, Reason: "file not found"}
		}
		return Credentials{}, &ConfigError{Path: path, Reason: err.Error()}
	}
	creds, _, err := Parse(string(data))
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return Credentials{}, err
	}
	return creds, nil
}

// Parse detects the encoding of raw and returns normalized credentials along
// with the format that was recognized.
func Parse(raw string) (Credentials, Format, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if raw == "" {
		return Credentials{}, 0, &ConfigError{Reason: "file is empty"}
	}
	for _, s := range strategies {
		creds, err := s.parse(raw)
		if errors.Is(err, errNotThisFormat) {
			continue
		}
		if err != nil {
			return Credentials{}, s.format, err
		}
		creds, err = finalize(creds)
		return creds, s.format, err
	}
	return Credentials{}, 0, &ConfigError{
		Reason: "unrecognized format; expected key=value lines, three lines (token, org_id, base_url) or a JSON object",
	}
}

// NormalizeBaseURL makes base always end in /api/v1. It is idempotent.
//
//	https://api.mist.com         -> https://api.mist.com/api/v1
//	https://api.mist.com/        -> https://api.mist.com/api/v1
//	https://api.mist.com/api/v1  -> https://api.mist.com/api/v1
//	api.mist.com                 -> https://api.mist.com/api/v1
func NormalizeBaseURL(base string) string {
	b := strings.TrimSpace(base)
	if b == "" {
		return ""
	}
	if !strings.HasPrefix(b, "http://") && !strings.HasPrefix(b, "https://") {
		b = "https://" + b
	}
	b = strings.TrimRight(b, "/")
	if strings.HasSuffix(b, APIVersionPath) {
		return b
	}
	return b + APIVersionPath
}

func finalize(c Credentials) (Credentials, error) {
	c.Token = strings.TrimSpace(c.Token)
	c.OrgID = strings.TrimSpace(c.OrgID)
	c.BaseURL = NormalizeBaseURL(c.BaseURL)
	switch {
	case c.Token == "":
		return Credentials{}, &ConfigError{Field: "token", Reason: "missing value"}
	case c.OrgID == "":
		return Credentials{}, &ConfigError{Field: "org_id", Reason: "missing value"}
	case c.BaseURL == "":
		return Credentials{}, &ConfigError{Field: "base_url", Reason: "missing value"}
	}
	return c, nil
}

func parseJSON(raw string) (Credentials, error) {
	if !strings.HasPrefix(raw, "{") {
		return Credentials{}, errNotThisFormat
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Credentials{}, &ConfigError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return Credentials{
		Token:   firstString(data, "token", "api_token", "MIST_TOKEN"),
		OrgID:   firstString(data, "org_id", "ORG_ID"),
		BaseURL: firstString(data, "base_url", "BASE_URL"),
	}, nil
}

func parseKeyValue(raw string) (Credentials, error) {
	env, err := godotenv.Unmarshal(raw)
	if err != nil || len(env) == 0 {
		return Credentials{}, errNotThisFormat
	}
	kv := make(map[string]interface{}, len(env))
	for k, v := range env {
		kv[strings.ToLower(strings.TrimSpace(k))] = v
	}
	creds := Credentials{
		Token:   firstString(kv, "token", "mist_token", "api_token"),
		OrgID:   firstString(kv, "org_id"),
		BaseURL: firstString(kv, "base_url"),
	}
	if creds == (Credentials{}) {
		return Credentials{}, &ConfigError{Reason: "no token, org_id or base_url keys found"}
	}
	return creds, nil
}

func parsePositional(raw string) (Credentials, error) {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 3 {
		return Credentials{}, errNotThisFormat
	}
	return Credentials{Token: lines[0], OrgID: lines[1], BaseURL: lines[2]}, nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
