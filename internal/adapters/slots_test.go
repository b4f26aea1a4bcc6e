package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/extract"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
)

func courseFixture() registry.Course {
	return registry.Course{
		ID:       "harding-park",
		Name:     "TPC Harding Park",
		City:     "San Francisco",
		PriceMin: 20,
		PriceMax: 300,
	}
}

func TestBuildSlots(t *testing.T) {
	course := courseFixture()
	entries := []extract.RawEntry{
		{
			TimeText:          "6:52 AM",
			PriceText:         "$95 $78.50",
			OriginalPriceText: "$95",
			HolesText:         "18 Holes",
			PlayersText:       "4 Players",
			CartText:          "Cart Included",
			BookingURL:        "https://example.com/book?t=652",
		},
		{TimeText: "3:45 PM", PriceText: "$42", HolesText: "9 Holes"},
		{TimeText: "whenever", PriceText: "$42"},
		{TimeText: "7:06 AM", PriceText: "call pro shop"},
	}

	slots, dropped := BuildSlots(course, "linkside", "2026-09-01", entries)
	require.Equal(t, 2, dropped)
	require.Len(t, slots, 2)

	require.Equal(t, slotstore.Slot{
		CourseID:      "harding-park",
		Date:          "2026-09-01",
		Time:          "06:52",
		Source:        "linkside",
		Holes:         18,
		MinPlayers:    4,
		Price:         78.50,
		OriginalPrice: 95,
		HasCart:       true,
		BookingURL:    "https://example.com/book?t=652",
	}, slots[0])

	require.Equal(t, "15:45", slots[1].Time)
	require.Equal(t, 9, slots[1].Holes)
	require.Equal(t, 1, slots[1].MinPlayers)
	require.Zero(t, slots[1].OriginalPrice)
	require.False(t, slots[1].HasCart)
}

func TestBuildSlotsPriceWindow(t *testing.T) {
	course := courseFixture()
	// the $12 range-bucket decoy is below the course's plausible window
	entries := []extract.RawEntry{{TimeText: "8:10 AM", PriceText: "buckets $12, round $64"}}
	slots, dropped := BuildSlots(course, "linkside", "2026-09-01", entries)
	require.Zero(t, dropped)
	require.Len(t, slots, 1)
	require.Equal(t, float64(64), slots[0].Price)
}

func TestBuildSlotsIgnoresBogusOriginal(t *testing.T) {
	course := courseFixture()
	entries := []extract.RawEntry{
		{TimeText: "8:10 AM", PriceText: "$64", OriginalPriceText: "$50"},
	}
	slots, dropped := BuildSlots(course, "linkside", "2026-09-01", entries)
	require.Zero(t, dropped)
	require.Len(t, slots, 1)
	// an "original" at or below the live rate is markup noise
	require.Zero(t, slots[0].OriginalPrice)
}

func TestDedupeSlots(t *testing.T) {
	slots := []slotstore.Slot{
		{CourseID: "harding-park", Date: "2026-09-01", Time: "07:30", Price: 60},
		{CourseID: "harding-park", Date: "2026-09-01", Time: "07:30", Price: 85},
		{CourseID: "harding-park", Date: "2026-09-01", Time: "07:40", Price: 60},
		{CourseID: "sharp-park", Date: "2026-09-01", Time: "07:30", Price: 45},
	}
	deduped := DedupeSlots(slots)
	require.Len(t, deduped, 3)
	// first occurrence wins
	require.Equal(t, float64(60), deduped[0].Price)
	require.Equal(t, "07:40", deduped[1].Time)
	require.Equal(t, "sharp-park", deduped[2].CourseID)
}

func TestCartIncluded(t *testing.T) {
	require.True(t, cartIncluded("Cart Included"))
	require.True(t, cartIncluded("w/ cart"))
	require.False(t, cartIncluded("Walking"))
	require.False(t, cartIncluded("no cart"))
	require.False(t, cartIncluded(""))
}
