// Package pipeline orchestrates one ingestion run: it fans the adapters out
// concurrently, isolates their failures, reconciles the store against the
// run's results, and records the per-source outcomes. One run is the unit
// of scheduling; runs for the same store must not overlap.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/reconcile"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
)

var tracer = otel.Tracer("internal/pipeline")

type State string

const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StatePartial    State = "partial"
	StateComplete   State = "complete"
	StateReconciled State = "reconciled"
)

// Store is the slice of the slot store the orchestrator needs beyond what
// the adapters and the reconciler use themselves.
type Store interface {
	reconcile.Store
	Now(ctx context.Context) (time.Time, error)
	RecordOutcomes(ctx context.Context, rows []slotstore.OutcomeRow) error
}

type Options struct {
	Adapters []adapters.Adapter
	Courses  []registry.Course
	// civil dates the run covers, ascending
	Dates []string
	// wall-clock bound for the whole adapter phase
	Timeout time.Duration
}

// Summary is the record of one completed run.
type Summary struct {
	RunID     string
	State     State
	Watermark time.Time
	Outcomes  []adapters.Outcome
	Deleted   reconcile.Report
	Elapsed   time.Duration
}

// Succeeded counts adapters that ended in success.
func (s Summary) Succeeded() int {
	n := 0
	for _, outcome := range s.Outcomes {
		if outcome.Status == adapters.StatusSuccess {
			n++
		}
	}
	return n
}

type Orchestrator struct {
	store Store
}

func New(store Store) Orchestrator {
	return Orchestrator{store: store}
}

// Run executes one full ingestion run. Adapter failures never abort the
// run; each becomes a failed outcome and the run carries on with the rest.
func (o Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), State: StatePending}
	span.SetAttributes(attribute.String("run_id", summary.RunID))
	if len(opts.Dates) == 0 {
		return summary, errors.New("run covers no dates")
	}

	// the watermark comes from the store's clock, the same clock that
	// stamps fetched_at on writes
	watermark, err := o.store.Now(ctx)
	if err != nil {
		return summary, fmt.Errorf("capture watermark: %w", err)
	}
	summary.Watermark = watermark
	summary.State = StateRunning
	slog.Info("ingestion run started",
		"run_id", summary.RunID, "adapters", len(opts.Adapters),
		"courses", len(opts.Courses), "dates", len(opts.Dates))

	adapterCtx := ctx
	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		adapterCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	results := make(chan adapters.Outcome, len(opts.Adapters))
	for _, adapter := range opts.Adapters {
		go func(adapter adapters.Adapter) {
			results <- runIsolated(adapterCtx, adapter, opts.Courses, opts.Dates)
		}(adapter)
	}
	for range opts.Adapters {
		summary.Outcomes = append(summary.Outcomes, <-results)
	}
	cancel()

	succeeded := summary.Succeeded()
	if succeeded == len(summary.Outcomes) {
		summary.State = StateComplete
	} else {
		summary.State = StatePartial
	}
	for _, outcome := range summary.Outcomes {
		slog.Info("adapter finished",
			"run_id", summary.RunID, "source", outcome.Source, "status", outcome.Status,
			"records", outcome.Records, "dropped", outcome.Dropped, "err", outcome.Err)
	}

	// reconciliation runs on the parent context so an adapter-phase
	// timeout cannot skip it
	report, err := reconcile.New(o.store).Reconcile(ctx, summary.Outcomes, opts.Dates[0], watermark)
	summary.Deleted = report
	summary.Elapsed = time.Since(start)
	if err != nil {
		return summary, fmt.Errorf("reconcile: %w", err)
	}
	summary.State = StateReconciled

	if err := o.store.RecordOutcomes(ctx, outcomeRows(summary)); err != nil {
		return summary, fmt.Errorf("record outcomes: %w", err)
	}
	slog.Info("ingestion run finished",
		"run_id", summary.RunID, "state", summary.State,
		"succeeded", succeeded, "deleted", report.Total(), "elapsed", summary.Elapsed)
	return summary, nil
}

// runIsolated contains a panicking adapter to a failed outcome.
func runIsolated(
	ctx context.Context,
	adapter adapters.Adapter,
	courses []registry.Course,
	dates []string,
) (outcome adapters.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = adapters.Outcome{
				Source: adapter.Source(),
				Status: adapters.StatusFailure,
				Err:    fmt.Errorf("adapter panicked: %v", r),
			}
		}
	}()
	outcome = adapter.Run(ctx, courses, dates)
	if outcome.Status != adapters.StatusSuccess && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		outcome.Status = adapters.StatusTimeout
	}
	return outcome
}

func outcomeRows(summary Summary) []slotstore.OutcomeRow {
	rows := make([]slotstore.OutcomeRow, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		row := slotstore.OutcomeRow{
			Source:    outcome.Source,
			RunID:     summary.RunID,
			Status:    string(outcome.Status),
			Records:   outcome.Records,
			Skipped:   outcome.Skipped,
			ElapsedMS: outcome.Elapsed.Milliseconds(),
		}
		if outcome.Err != nil {
			row.Error = outcome.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}
