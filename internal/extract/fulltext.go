package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/htmlutil"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
)

// a clock reading followed within a short span by a dollar amount; the
// whitespace before an absent period must stay outside the time group
var pairRegex = regexp.MustCompile(
	`(?i)(\d{1,2}:\d{2}(?:\s*[AP]\.?M?\.?)?)[^$\n]{0,120}?(\$\s?\d{1,4}(?:,\d{3})*(?:\.\d{1,2})?)`)

// Fulltext scans the page's visible text for time/price pairs. It is the
// fallback for pages whose markup drifted away from the configured
// selectors; only the time, price and booking fields can be recovered.
type Fulltext struct{}

func (Fulltext) Name() string { return "fulltext" }

func (Fulltext) Extract(doc *goquery.Document, sel registry.Selectors) ([]RawEntry, error) {
	text := htmlutil.Clean(doc.Text())
	var entries []RawEntry
	for _, match := range pairRegex.FindAllStringSubmatch(text, -1) {
		entries = append(entries, RawEntry{
			TimeText:  match[1],
			PriceText: match[2],
		})
	}
	return entries, nil
}
