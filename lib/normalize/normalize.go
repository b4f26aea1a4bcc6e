// Package normalize converts the raw time and price text scraped off tee
// sheets into canonical values. Everything here is a pure function: bad
// input yields (zero, false), never a panic, so adapters can feed it
// whatever an upstream happened to render.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "7:30 PM", "7:30PM", "7:30 P", "7:30p.m."
	meridiemRegex = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([AP])\.?M?\.?$`)
	// "7 PM", "7PM", "7A"
	hourOnlyRegex = regexp.MustCompile(`(?i)^(\d{1,2})\s*([AP])\.?M?\.?$`)
	// "19:30", "07:30", ambiguous "7:30"
	clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	amountRegex = regexp.MustCompile(`\$?\s?(\d{1,4}(?:,\d{3})*(?:\.\d{1,2})?)`)
	digitsRegex = regexp.MustCompile(`\d+`)
)

// Time converts raw tee-off text to canonical 24-hour "HH:MM".
// Ambiguous times without an AM/PM marker are kept as written (zero-padded);
// use TimeAssuming when the surrounding page supplies the missing period.
func Time(raw string) (string, bool) {
	return TimeAssuming(raw, "")
}

// TimeAssuming is Time with an optional period hint ("AM"/"PM"/"A"/"P")
// applied only when the text itself carries no marker.
func TimeAssuming(raw, period string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if m := meridiemRegex.FindStringSubmatch(s); m != nil {
		return clock12(m[1], m[2], m[3])
	}
	if m := hourOnlyRegex.FindStringSubmatch(s); m != nil {
		return clock12(m[1], "00", m[2])
	}
	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", false
	}
	// an hour past 12, or one written zero-padded, is already 24-hour text
	if hour >= 13 || (len(m[1]) == 2 && m[1][0] == '0') {
		return pad(hour, minute), true
	}
	if period != "" {
		return clock12(m[1], m[2], period)
	}
	return pad(hour, minute), true
}

func clock12(hourText, minuteText, period string) (string, bool) {
	hour, _ := strconv.Atoi(hourText)
	minute, _ := strconv.Atoi(minuteText)
	if hour < 1 || hour > 12 || minute > 59 {
		return "", false
	}

	p := strings.ToUpper(strings.TrimSpace(period))
	if p == "" {
		return "", false
	}
	switch p[0] {
	case 'P':
		if hour != 12 {
			hour += 12
		}
	case 'A':
		if hour == 12 {
			hour = 0
		}
	default:
		return "", false
	}
	return pad(hour, minute), true
}

func pad(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Price scans raw text for monetary amounts and returns the first one, in
// document order, that falls inside [min, max]. The window rejects decoys
// like marketing prices or cart fees rendered elsewhere in the same text.
// max <= 0 means no upper bound. No attempt is made to pick a "best" match.
func Price(raw string, min, max float64) (float64, bool) {
	for _, m := range amountRegex.FindAllStringSubmatch(raw, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if v < min {
			continue
		}
		if max > 0 && v > max {
			continue
		}
		return v, true
	}
	return 0, false
}

// Holes interprets hole-count text ("18 Holes", "9") with 18 as the default.
func Holes(raw string) int {
	m := digitsRegex.FindString(raw)
	if m == "" {
		return 18
	}
	n, err := strconv.Atoi(m)
	if err != nil || (n != 9 && n != 18) {
		return 18
	}
	return n
}

// Players interprets opening-count text ("2-4 Players", "4 spots") as the
// number of players the slot can still take, defaulting to 1.
func Players(raw string) int {
	var best int
	for _, m := range digitsRegex.FindAllString(raw, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n > best && n <= 8 {
			best = n
		}
	}
	if best == 0 {
		return 1
	}
	return best
}
