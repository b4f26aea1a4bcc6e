package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	cases := []struct {
		raw    string
		expect string
		ok     bool
	}{
		{raw: "7:30 PM", expect: "19:30", ok: true},
		{raw: "7:30PM", expect: "19:30", ok: true},
		{raw: "7:30 pm", expect: "19:30", ok: true},
		{raw: "7:30 P", expect: "19:30", ok: true},
		{raw: "7:30A", expect: "07:30", ok: true},
		{raw: "7:30 a.m.", expect: "07:30", ok: true},
		{raw: "12:00 AM", expect: "00:00", ok: true},
		{raw: "12:00 PM", expect: "12:00", ok: true},
		{raw: "12:15 am", expect: "00:15", ok: true},
		{raw: "7 PM", expect: "19:00", ok: true},
		{raw: "7A", expect: "07:00", ok: true},
		{raw: "12 PM", expect: "12:00", ok: true},

		// already 24-hour
		{raw: "19:30", expect: "19:30", ok: true},
		{raw: "07:30", expect: "07:30", ok: true},
		{raw: "00:15", expect: "00:15", ok: true},
		{raw: "23:59", expect: "23:59", ok: true},

		// ambiguous, no period: zero-padded as written
		{raw: "7:30", expect: "07:30", ok: true},
		{raw: "12:40", expect: "12:40", ok: true},
		{raw: " 6:05 ", expect: "06:05", ok: true},

		{raw: "", ok: false},
		{raw: "teetime", ok: false},
		{raw: "25:00", ok: false},
		{raw: "7:75", ok: false},
		{raw: "13:00 PM", ok: false},
		{raw: "0:30 AM", ok: false},
		{raw: "7:3", ok: false},
		{raw: "$42.00", ok: false},
	}

	for _, test := range cases {
		got, ok := Time(test.raw)
		require.Equal(t, test.ok, ok, "input %q", test.raw)
		if test.ok {
			require.Equal(t, test.expect, got, "input %q", test.raw)
		}
	}
}

func TestTimeAssuming(t *testing.T) {
	cases := []struct {
		raw    string
		period string
		expect string
		ok     bool
	}{
		{raw: "7:30", period: "PM", expect: "19:30", ok: true},
		{raw: "7:30", period: "P", expect: "19:30", ok: true},
		{raw: "7:30", period: "AM", expect: "07:30", ok: true},
		{raw: "12:00", period: "AM", expect: "00:00", ok: true},
		// the text's own marker beats the hint
		{raw: "7:30 AM", period: "PM", expect: "07:30", ok: true},
		// already 24-hour text ignores the hint
		{raw: "19:30", period: "AM", expect: "19:30", ok: true},
		{raw: "7:30", period: "X", ok: false},
	}

	for _, test := range cases {
		got, ok := TimeAssuming(test.raw, test.period)
		require.Equal(t, test.ok, ok, "input %q/%q", test.raw, test.period)
		if test.ok {
			require.Equal(t, test.expect, got, "input %q/%q", test.raw, test.period)
		}
	}
}

// Time must never panic, whatever an upstream renders.
func TestTimeNeverPanics(t *testing.T) {
	inputs := []string{
		"", " ", "::", "a:bc PM", "-7:30", "7:30:00", "am", "PM",
		"99999999999999999999:00", "7:30 XM", "\x00\xff", "24:00", "🏌️",
	}
	for _, raw := range inputs {
		require.NotPanics(t, func() {
			Time(raw)
			TimeAssuming(raw, "PM")
			TimeAssuming(raw, raw)
		}, "input %q", raw)
	}
}

func TestPrice(t *testing.T) {
	cases := []struct {
		raw      string
		min, max float64
		expect   float64
		ok       bool
	}{
		{raw: "$45.00", min: 5, max: 500, expect: 45, ok: true},
		{raw: "45", min: 5, max: 500, expect: 45, ok: true},
		{raw: "$1,250.50", min: 5, max: 2000, expect: 1250.50, ok: true},
		// the $9.99 club-rental decoy is outside the window
		{raw: "Rent clubs for $2.50! Green fee $62.00 per player", min: 20, max: 300, expect: 62, ok: true},
		// first in-range match wins, not the cheapest
		{raw: "$80 or $55 twilight", min: 20, max: 300, expect: 80, ok: true},
		{raw: "call the pro shop", min: 5, max: 500, ok: false},
		{raw: "$9000", min: 5, max: 500, ok: false},
		{raw: "", min: 5, max: 500, ok: false},
		// no upper bound
		{raw: "$9000", min: 5, max: 0, expect: 9000, ok: true},
	}

	for _, test := range cases {
		got, ok := Price(test.raw, test.min, test.max)
		require.Equal(t, test.ok, ok, "input %q", test.raw)
		if test.ok {
			require.Equal(t, test.expect, got, "input %q", test.raw)
		}
	}
}

func TestHolesAndPlayers(t *testing.T) {
	require.Equal(t, 18, Holes("18 Holes"))
	require.Equal(t, 9, Holes("9"))
	require.Equal(t, 18, Holes(""))
	require.Equal(t, 18, Holes("executive 6 hole loop"))

	require.Equal(t, 4, Players("2-4 Players"))
	require.Equal(t, 1, Players(""))
	require.Equal(t, 2, Players("2 spots left"))
	require.Equal(t, 1, Players("no openings listed 2026"))
}
