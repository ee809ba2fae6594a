package fetch

import (
	"regexp"
	"strconv"
	"strings"
)

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO-8601-like PT#H#M#S token to total
// seconds. Every component is optional and defaults to 0; a malformed or
// empty token yields nil.
func parseISODuration(s string) *int {
	if s == "" {
		return nil
	}
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	hours := atoiDefault(m[1], 0)
	minutes := atoiDefault(m[2], 0)
	seconds := atoiDefault(m[3], 0)
	total := hours*3600 + minutes*60 + seconds
	return &total
}

// parseClockDuration converts "H:MM:SS", "MM:SS" or bare-seconds text to
// total seconds; nil when unparsable.
func parseClockDuration(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil
		}
		total := h*3600 + m*60 + sec
		return &total
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return nil
		}
		total := m*60 + sec
		return &total
	case 1:
		total, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil
		}
		return &total
	}
	return nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
