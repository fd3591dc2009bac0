package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Version
	}{
		{"3.11.4 (main, Jun  7 2023, 00:00:00) [GCC 12.2.0]", Version{3, 11, 4}},
		{"3.11.4 (main)", Version{3, 11, 4}},
		{"3.9.18", Version{3, 9, 18}},
		{"3.13.0rc1 (main)", Version{3, 13, Unknown}},
		{"3.11", Version{3, 11, Unknown}},
		{"3", Version{3, Unknown, Unknown}},
		{"", Version{Unknown, Unknown, Unknown}},
		{"abc.11.4 (x)", Version{Unknown, 11, 4}},
		{"3.x.4", Version{3, Unknown, 4}},
		{"3..4", Version{3, Unknown, 4}},
		{"3.12.1.7 extra", Version{3, 12, Unknown}},
		{"-3.1.2", Version{Unknown, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{".", "..", "...", " ", "1. 2. 3", "9999999999999999999999.1.1", "\x00.\xff.\n"}
	for _, in := range inputs {
		_ = Parse(in)
	}
	if v := Parse("9999999999999999999999.1.1"); v.Major != Unknown {
		t.Errorf("overflowing major = %d, want Unknown", v.Major)
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		v            Version
		major, minor int
		want         bool
	}{
		{Version{3, 10, 0}, 3, 10, true},
		{Version{3, 9, 18}, 3, 10, false},
		{Version{3, 12, 1}, 3, 10, true},
		{Version{4, 0, 0}, 3, 10, true},
		{Version{2, 99, 0}, 3, 10, false},
		{Version{3, Unknown, 0}, 3, 0, false},
		{Version{Unknown, 12, 0}, 3, 10, false},
	}
	for _, tt := range tests {
		if got := tt.v.AtLeast(tt.major, tt.minor); got != tt.want {
			t.Errorf("%v.AtLeast(%d, %d) = %v, want %v", tt.v, tt.major, tt.minor, got, tt.want)
		}
	}
}

func TestVersion_String(t *testing.T) {
	if got := Parse("3.11").String(); got != "3.11.-1" {
		t.Errorf("String() = %q", got)
	}
	if !Parse("3.11.4").Known() {
		t.Error("3.11.4 should be known")
	}
	if Parse("3.11").Known() {
		t.Error("3.11 should not be known")
	}
}
