// Package adapters defines the contract between the pipeline and the
// per-source ingestion adapters, plus the normalization shared by all of
// them. Each adapter owns one upstream source end to end: fetching,
// parsing, normalizing and writing. Adapters never touch each other's
// rows; the slot key includes the source.
package adapters

import (
	"context"
	"time"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusTimeout Status = "timeout"
)

// Outcome is one adapter's report for one run.
type Outcome struct {
	Source  string
	Status  Status
	Records int
	// course/date units skipped because the course has no presence on
	// the source
	Skipped int
	// raw entries dropped during normalization
	Dropped int
	Err     error
	Elapsed time.Duration
}

// SlotWriter is the slice of the store adapters write through.
type SlotWriter interface {
	UpsertSlots(ctx context.Context, slots []slotstore.Slot) (int, error)
}

// Adapter ingests availability for the given courses and civil dates.
// Run must not panic the process and must return an Outcome even on
// total failure.
type Adapter interface {
	Source() string
	Run(ctx context.Context, courses []registry.Course, dates []string) Outcome
}
