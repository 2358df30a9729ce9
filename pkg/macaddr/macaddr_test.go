package macaddr

import (
	"testing"
)

func TestNormalizeExactMac(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "colon separated", input: "5c:5b:35:a1:b2:c3", want: "5c5b35a1b2c3"},
		{name: "dash separated", input: "5C-5B-35-A1-B2-C3", want: "5c5b35a1b2c3"},
		{name: "dotted quads", input: "5c5b.35a1.b2c3", want: "5c5b35a1b2c3"},
		{name: "bare", input: "5c5b35a1b2c3", want: "5c5b35a1b2c3"},
		{name: "surrounding space", input: " 5c5b35a1b2c3 ", want: "5c5b35a1b2c3"},
		{name: "too short", input: "5c:5b:35", wantErr: true},
		{name: "not hex", input: "zz:5b:35:a1:b2:c3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeExactMac(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeExactMac(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeExactMac(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatMacColon(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"5c5b35a1b2c3", "5c:5b:35:a1:b2:c3"},
		{"5C-5B-35-A1-B2-C3", "5c:5b:35:a1:b2:c3"},
		{"unknown", "unknown"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatMacColon(tt.input); got != tt.want {
				t.Errorf("FormatMacColon(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"5C:5B:35:A1:B2:C3", "5c5b35a1b2c3", true},
		{"5c-5b-35-a1-b2-c3", "5c5b.35a1.b2c3", true},
		{"5c5b35a1b2c3", "5c5b35a1b2c4", false},
		{"", "", false},
		{"not-a-mac", "not-a-mac", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFromDeviceID(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		want   string
		wantOK bool
	}{
		{name: "mist device id", id: "00000000-0000-0000-1000-5c5b35a1b2c3", want: "5c5b35a1b2c3", wantOK: true},
		{name: "uppercase", id: "00000000-0000-0000-1000-5C5B35A1B2C3", want: "5c5b35a1b2c3", wantOK: true},
		{name: "random uuid", id: "a618679d-e590-48c7-a6bd-b3f3c5630f5b"},
		{name: "zero mac", id: "00000000-0000-0000-0000-000000000000"},
		{name: "not a uuid", id: "D1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromDeviceID(tt.id)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FromDeviceID(%q) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		matches map[string]bool
		wantErr bool
	}{
		{
			name:    "exact",
			pattern: "5c:5b:35:a1:b2:c3",
			matches: map[string]bool{
				"5C5B35A1B2C3":      true,
				"5c-5b-35-a1-b2-c3": true,
				"5c5b35a1b2c4":      false,
				"garbage":           false,
			},
		},
		{
			name:    "vendor prefix wildcard",
			pattern: "5c:5b:35:*:*:*",
			matches: map[string]bool{
				"5c:5b:35:00:00:00": true,
				"5c:5b:35:ff:ee:dd": true,
				"5c:5b:36:00:00:00": false,
			},
		},
		{
			name:    "bracket range",
			pattern: "5c:5b:35:a1:b2:[0-3][0-f]",
			matches: map[string]bool{
				"5c5b35a1b200": true,
				"5c5b35a1b23f": true,
				"5c5b35a1b240": false,
			},
		},
		{name: "empty", pattern: " ", wantErr: true},
		{name: "too short", pattern: "5c:5b:*", wantErr: true},
		{name: "bad bracket", pattern: "5c:5b:35:a1:b2:[x-z]0", wantErr: true},
		{name: "unmatched bracket", pattern: "5c:5b:35:a1:b2:[0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher, err := Compile(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
			for mac, want := range tt.matches {
				if got := matcher(mac); got != want {
					t.Errorf("Compile(%q)(%q) = %v, want %v", tt.pattern, mac, got, want)
				}
			}
		})
	}
}

func BenchmarkNormalizeExactMac(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = NormalizeExactMac("5c:5b:35:a1:b2:c3")
	}
}
