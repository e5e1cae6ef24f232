// Package format turns upstream video metadata and transcript segments into display strings.
package format

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// Duration renders an ISO-8601 duration (PT1H2M3S) as H:MM:SS, or M:SS under an hour.
// Unparseable input renders as 0:00.
func Duration(iso string) string {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(iso)))
	if m == nil || iso == "" {
		return "0:00"
	}
	days := atoi(m[1])
	hours := atoi(m[2]) + days*24
	minutes := atoi(m[3])
	seconds := 0
	if m[4] != "" {
		f, _ := strconv.ParseFloat(m[4], 64)
		seconds = int(f)
	}
	return clock(hours, minutes, seconds)
}

// Timestamp renders an offset in seconds the same way Duration renders its result.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return clock(total/3600, (total%3600)/60, total%60)
}

func clock(h, m, s int) string {
	m += s / 60
	s %= 60
	h += m / 60
	m %= 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// Segment is one caption cue of a video transcript. Start and Duration are seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Join flattens segments into one whitespace-normalized paragraph.
func Join(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := cleanText(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Lines renders each non-empty segment as "[m:ss] text".
func Lines(segments []Segment) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		t := cleanText(s.Text)
		if t == "" {
			continue
		}
		out = append(out, "["+Timestamp(s.Start)+"] "+t)
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
