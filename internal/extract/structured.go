package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/htmlutil"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
)

// Structured extracts entries using the course's configured selectors.
// Rows missing a time or a price are skipped; the page often renders
// sold-out placeholders in the same markup.
type Structured struct{}

func (Structured) Name() string { return "structured" }

func (Structured) Extract(doc *goquery.Document, sel registry.Selectors) ([]RawEntry, error) {
	if sel.Slot == "" {
		return nil, nil
	}
	var entries []RawEntry
	doc.Find(sel.Slot).Each(func(_ int, row *goquery.Selection) {
		entry := RawEntry{
			TimeText:          field(row, sel.Time),
			PriceText:         field(row, sel.Price),
			OriginalPriceText: field(row, sel.OriginalPrice),
			HolesText:         field(row, sel.Holes),
			PlayersText:       field(row, sel.Players),
			CartText:          field(row, sel.Cart),
		}
		if sel.Booking != "" {
			entry.BookingURL = row.Find(sel.Booking).AttrOr("href", "")
		}
		if entry.TimeText == "" || entry.PriceText == "" {
			return
		}
		entries = append(entries, entry)
	})
	return entries, nil
}

func field(row *goquery.Selection, query string) string {
	if query == "" {
		return ""
	}
	return htmlutil.Text(row.Find(query))
}
