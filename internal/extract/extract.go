// Package extract pulls raw tee-time entries out of rendered course pages.
// Extraction is layered: a structured strategy driven by per-course
// selectors, then a full-text regex fallback for pages whose markup has
// drifted. Strategies return text as found on the page; normalization
// happens later.
package extract

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
)

var tracer = otel.Tracer("internal/extract")

// RawEntry is one candidate slot as it appears on the page, before any
// normalization. TimeText is the only required field.
type RawEntry struct {
	TimeText          string
	PriceText         string
	OriginalPriceText string
	HolesText         string
	PlayersText       string
	CartText          string
	BookingURL        string
}

// Strategy extracts raw entries from a parsed document. A strategy that
// finds nothing returns an empty slice and no error.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, sel registry.Selectors) ([]RawEntry, error)
}

// First runs the strategies in order and returns the result of the first
// one that yields at least one entry. A panicking strategy is contained and
// treated as finding nothing.
func First(ctx context.Context, doc *goquery.Document, sel registry.Selectors, strategies ...Strategy) ([]RawEntry, string, error) {
	var firstErr error
	for _, strat := range strategies {
		entries, err := runSafely(ctx, strat, doc, sel)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(entries) > 0 {
			return entries, strat.Name(), nil
		}
	}
	return nil, "", firstErr
}

func runSafely(ctx context.Context, strat Strategy, doc *goquery.Document, sel registry.Selectors) (entries []RawEntry, err error) {
	_, span := tracer.Start(ctx, "extract."+strat.Name())
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("strategy %s panicked: %v", strat.Name(), r)
		}
	}()
	entries, err = strat.Extract(doc, sel)
	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, err
}
