// Package reconcile removes rows the latest run proved dead: tee times in
// the past, and slots a healthy source stopped reporting. Deletion is
// fail-safe: a source that errored, timed out or came back empty keeps its
// previous rows, so an upstream outage degrades freshness instead of
// emptying the dataset.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"
)

var tracer = otel.Tracer("internal/reconcile")

// Store is the slice of the slot store reconciliation uses.
type Store interface {
	DeleteBefore(ctx context.Context, date string) (int64, error)
	DeleteStale(ctx context.Context, source, fromDate string, watermark time.Time) (int64, error)
}

// Report tallies what a reconciliation pass deleted.
type Report struct {
	PastDeleted int64
	// per source
	StaleDeleted map[string]int64
}

func (r Report) Total() int64 {
	total := r.PastDeleted
	for _, n := range r.StaleDeleted {
		total += n
	}
	return total
}

type Reconciler struct {
	store Store
}

func New(store Store) Reconciler {
	return Reconciler{store: store}
}

// Reconcile applies the two deletion rules against the given run. The
// watermark is the store-clock instant captured before any adapter wrote:
// rows a source re-confirmed during the run carry a later fetched_at and
// survive, rows it went silent on do not. fromDate bounds rule 2 to the
// date range the run actually covered.
//
// Rule 1 (past tee times) always runs. Rule 2 (stale rows) runs only for
// sources that succeeded with at least one record; an empty result is
// treated as an outage, not as "everything is gone".
func (r Reconciler) Reconcile(
	ctx context.Context,
	outcomes []adapters.Outcome,
	fromDate string,
	watermark time.Time,
) (Report, error) {
	ctx, span := tracer.Start(ctx, "reconcile.Reconcile")
	defer span.End()

	report := Report{StaleDeleted: map[string]int64{}}
	var errs []error

	deleted, err := r.store.DeleteBefore(ctx, timezone.Today())
	if err != nil {
		errs = append(errs, err)
	}
	report.PastDeleted = deleted

	for _, outcome := range outcomes {
		if outcome.Status != adapters.StatusSuccess || outcome.Records == 0 {
			slog.Info("skipping stale deletion for unhealthy source",
				"source", outcome.Source, "status", outcome.Status, "records", outcome.Records)
			continue
		}
		deleted, err := r.store.DeleteStale(ctx, outcome.Source, fromDate, watermark)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.StaleDeleted[outcome.Source] = deleted
	}

	span.SetAttributes(attribute.Int64("deleted", report.Total()))
	return report, errors.Join(errs...)
}
