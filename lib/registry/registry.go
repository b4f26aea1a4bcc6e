// Package registry loads the course registry and the source fleet from a
// declarative JSON5 file. Adding an upstream provider instance or a course is
// a config change, not a code change. The registry is read-only to the
// pipeline; an external process maintains the file.
package registry

import (
	"fmt"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/configutil"
)

// Selectors are the structured-extraction queries for one course on one
// web source. Empty selectors disable the structured strategy and leave
// only the full-text fallback.
type Selectors struct {
	// query matching one bookable slot row
	Slot string `json:"slot"`
	// queries evaluated inside each slot row
	Time          string `json:"time"`
	Price         string `json:"price"`
	OriginalPrice string `json:"original_price"`
	Holes         string `json:"holes"`
	Players       string `json:"players"`
	Cart          string `json:"cart"`
	// anchor whose href is the booking link
	Booking string `json:"booking"`
}

// SourceRef is one course's identity and configuration on one source.
type SourceRef struct {
	// the provider's identifier for the course (schedule id, slug, ...)
	ExternalID string `json:"external_id"`
	// course page url for web sources; overrides the source base url + id
	URL       string    `json:"url"`
	Selectors Selectors `json:"selectors"`
}

type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	// plausible green-fee window used to reject price decoys during parsing
	PriceMin float64 `json:"price_min"`
	PriceMax float64 `json:"price_max"`
	// keyed by source id; a course absent from a source is skipped there
	Sources map[string]SourceRef `json:"sources"`
}

// Ref returns the course's reference on the given source.
func (c Course) Ref(source string) (SourceRef, bool) {
	ref, ok := c.Sources[source]
	return ref, ok
}

// PriceWindow returns the plausible green-fee window with defaults applied.
func (c Course) PriceWindow() (float64, float64) {
	min, max := c.PriceMin, c.PriceMax
	if min <= 0 {
		min = 5
	}
	if max <= 0 {
		max = 500
	}
	return min, max
}

// SourceConfig declares one upstream provider instance.
type SourceConfig struct {
	ID string `json:"id"`
	// "api" for direct JSON endpoints, "web" for rendered-page sources
	Kind    string `json:"kind"`
	BaseURL string `json:"base_url"`
	// api: path of the times endpoint
	TimesPath string `json:"times_path"`
	MaxPages  int    `json:"max_pages"`
	PageSize  int    `json:"page_size"`
	// bound on simultaneous requests (api) or sessions (web)
	MaxConcurrent int `json:"max_concurrent"`
	// base pacing delay between page loads, milliseconds (web)
	PaceMS int `json:"pace_ms"`
	// bounded challenge wait, milliseconds per recheck (web)
	ChallengeWaitMS int `json:"challenge_wait_ms"`
}

type Registry struct {
	Courses []Course       `json:"courses"`
	Sources []SourceConfig `json:"sources"`
}

// Load reads the registry file (with configutil's .local override merging).
func Load(path string) (Registry, error) {
	reg, err := configutil.ReadConfig[Registry](path)
	if err != nil {
		return Registry{}, fmt.Errorf("read registry %s: %w", path, err)
	}
	seen := map[string]bool{}
	for _, src := range reg.Sources {
		if src.ID == "" {
			return Registry{}, fmt.Errorf("registry %s: source with empty id", path)
		}
		if seen[src.ID] {
			return Registry{}, fmt.Errorf("registry %s: duplicate source %q", path, src.ID)
		}
		seen[src.ID] = true
	}
	return reg, nil
}

// Source returns the source config with the given id.
func (r Registry) Source(id string) (SourceConfig, bool) {
	for _, src := range r.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return SourceConfig{}, false
}
