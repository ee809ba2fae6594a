package fetch

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"PT1H2M3S", 3723, true},
		{"PT15M33S", 933, true},
		{"PT45S", 45, true},
		{"PT2H", 7200, true},
		{"PT0S", 0, true},
		{"", 0, false},
		{"1:02:03", 0, false},
		{"PTXS", 0, false},
	}

	for _, tt := range tests {
		got := parseISODuration(tt.input)
		if tt.ok {
			if got == nil {
				t.Errorf("parseISODuration(%q) = nil, want %d", tt.input, tt.want)
				continue
			}
			if *got != tt.want {
				t.Errorf("parseISODuration(%q) = %d, want %d", tt.input, *got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseISODuration(%q) = %d, want nil", tt.input, *got)
		}
	}
}

func TestParseClockDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"1:02:03", 3723, true},
		{"5:30", 330, true},
		{"45", 45, true},
		{" 5:30 ", 330, true},
		{"", 0, false},
		{"a:b", 0, false},
		{"1:2:3:4", 0, false},
	}

	for _, tt := range tests {
		got := parseClockDuration(tt.input)
		if tt.ok {
			if got == nil {
				t.Errorf("parseClockDuration(%q) = nil, want %d", tt.input, tt.want)
				continue
			}
			if *got != tt.want {
				t.Errorf("parseClockDuration(%q) = %d, want %d", tt.input, *got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseClockDuration(%q) = %d, want nil", tt.input, *got)
		}
	}
}
