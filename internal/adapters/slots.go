package adapters

import (
	"log/slog"
	"strings"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/extract"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/normalize"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
)

// BuildSlots normalizes raw entries into store rows for one course/date.
// Entries whose time or price cannot be normalized are dropped and counted;
// a single bad row never fails the page.
func BuildSlots(
	course registry.Course,
	source, date string,
	entries []extract.RawEntry,
) (slots []slotstore.Slot, dropped int) {
	priceMin, priceMax := course.PriceWindow()
	for _, entry := range entries {
		teeOff, ok := normalize.TimeAssuming(entry.TimeText, "")
		if !ok {
			dropped++
			slog.Debug("dropped entry: unparsable time",
				"course", course.ID, "source", source, "raw", entry.TimeText)
			continue
		}

		// discounted pages render the rack rate inside the price cell;
		// trim it so the live rate is found first
		priceText := strings.TrimSpace(entry.PriceText)
		if entry.OriginalPriceText != "" {
			priceText = strings.TrimSpace(
				strings.TrimPrefix(priceText, strings.TrimSpace(entry.OriginalPriceText)))
		}
		price, ok := normalize.Price(priceText, priceMin, priceMax)
		if !ok {
			dropped++
			slog.Debug("dropped entry: unparsable price",
				"course", course.ID, "source", source, "raw", entry.PriceText)
			continue
		}

		slot := slotstore.Slot{
			CourseID:   course.ID,
			Date:       date,
			Time:       teeOff,
			Source:     source,
			Holes:      normalize.Holes(entry.HolesText),
			MinPlayers: normalize.Players(entry.PlayersText),
			Price:      price,
			HasCart:    cartIncluded(entry.CartText),
			BookingURL: entry.BookingURL,
		}
		if original, ok := normalize.Price(entry.OriginalPriceText, priceMin, 0); ok && original > price {
			slot.OriginalPrice = original
		}
		slots = append(slots, slot)
	}
	return slots, dropped
}

func cartIncluded(raw string) bool {
	raw = strings.ToLower(raw)
	return strings.Contains(raw, "cart") && !strings.Contains(raw, "no cart")
}

// DedupeSlots drops later duplicates of the same (course, date, time) slot,
// keeping the first occurrence. Pages routinely repeat a slot across rate
// tiers or render it once as "7:30 AM" and again as "07:30".
func DedupeSlots(slots []slotstore.Slot) []slotstore.Slot {
	type key struct {
		course, date, teeOff string
	}
	seen := make(map[key]bool, len(slots))
	deduped := slots[:0]
	for _, slot := range slots {
		k := key{slot.CourseID, slot.Date, slot.Time}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, slot)
	}
	return deduped
}
