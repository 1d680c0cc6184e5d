package version

import (
	"errors"
	"testing"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

func TestParse(t *testing.T) {
	v, err := Parse("1.3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Major != 1 || v.Minor != 3 {
		t.Errorf("parsed %+v", v)
	}
	if v.String() != "1.3" {
		t.Errorf("string = %q", v.String())
	}

	for _, bad := range []string{"", "1", "1.2.3", "a.b", "1.", ".2", "-1.0"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("parse %q should fail", bad)
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"2.0", "1.9", 1},
		{"1.9", "2.0", -1},
	}
	for _, tc := range cases {
		a, b := MustParse(tc.a), MustParse(tc.b)
		if got := a.Compare(b); got != tc.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCheckCompatibility(t *testing.T) {
	client := MustParse(Current)

	if err := CheckCompatibility(client, MustParse("1.9")); err != nil {
		t.Errorf("newer minor runtime: %v", err)
	}
	if err := CheckCompatibility(client, MustParse("2.0")); err != nil {
		t.Errorf("newer major runtime: %v", err)
	}
	err := CheckCompatibility(client, MustParse("0.9"))
	if !errors.Is(err, status.ErrRuntimeVersionTooOld) {
		t.Errorf("old runtime: got %v, want RuntimeVersionTooOld", err)
	}
}

func TestHardwareManifests(t *testing.T) {
	models, err := AvailableHardware()
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(models) < 2 {
		t.Fatalf("models = %v", models)
	}

	for _, model := range models {
		m, err := LoadHardware(model)
		if err != nil {
			t.Fatalf("load %s: %v", model, err)
		}
		if m.Model == "" || m.Manufacturer == "" {
			t.Errorf("%s: incomplete manifest %+v", model, m)
		}
		caps, err := m.CapabilitySet()
		if err != nil {
			t.Errorf("%s: %v", model, err)
		}
		if caps.IsEmpty() {
			t.Errorf("%s: empty capability set", model)
		}
		if _, err := m.MinRuntimeVersion(); err != nil {
			t.Errorf("%s: %v", model, err)
		}
	}

	if _, err := LoadHardware("nonsense"); err == nil {
		t.Error("loading unknown model should fail")
	}
}
