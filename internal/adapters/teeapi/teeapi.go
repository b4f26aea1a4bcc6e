// Package teeapi ingests availability from booking providers that expose a
// direct JSON tee-times endpoint. One adapter instance covers one provider;
// each unit of work is a (course, date) pair fetched with bounded
// concurrency and pagination.
package teeapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/normalize"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/retry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/slotstore"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
)

var tracer = otel.Tracer("internal/adapters/teeapi")

type Config struct {
	Source        registry.SourceConfig
	Retry         retry.Policy
	Timeout       time.Duration
	MaxConcurrent int
}

type Adapter struct {
	config Config
	client *resty.Client
	writer adapters.SlotWriter
}

func New(config Config, writer adapters.SlotWriter) *Adapter {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.Default
	}
	client := resty.New().
		SetBaseURL(config.Source.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json")
	telemetry.InstrumentResty(client, "adapters/teeapi/http")
	return &Adapter{config: config, client: client, writer: writer}
}

func (a *Adapter) Source() string { return a.config.Source.ID }

// wire format of the provider's times endpoint
type teeTime struct {
	Time         string  `json:"time"`
	GreenFee     float64 `json:"green_fee"`
	RackRate     float64 `json:"rack_rate"`
	Holes        int     `json:"holes"`
	OpenSpots    int     `json:"open_spots"`
	CartIncluded bool    `json:"cart_included"`
	BookingURL   string  `json:"booking_url"`
}

type timesPage struct {
	Times   []teeTime `json:"times"`
	HasMore bool      `json:"has_more"`
}

func (a *Adapter) Run(ctx context.Context, courses []registry.Course, dates []string) adapters.Outcome {
	ctx, span := tracer.Start(ctx, "teeapi.Run")
	defer span.End()
	span.SetAttributes(attribute.String("source", a.Source()))

	start := time.Now()
	outcome := adapters.Outcome{Source: a.Source()}

	type unit struct {
		course registry.Course
		ref    registry.SourceRef
		date   string
	}
	var units []unit
	for _, course := range courses {
		ref, ok := course.Ref(a.Source())
		if !ok {
			outcome.Skipped += len(dates)
			continue
		}
		for _, date := range dates {
			units = append(units, unit{course: course, ref: ref, date: date})
		}
	}

	var wg sync.WaitGroup
	var mutex sync.Mutex
	semaphore := make(chan struct{}, a.config.MaxConcurrent)
	for _, u := range units {
		wg.Add(1)
		go func(u unit) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			written, dropped, err := a.fetchUnit(ctx, u.course, u.ref, u.date)
			mutex.Lock()
			defer mutex.Unlock()
			outcome.Records += written
			outcome.Dropped += dropped
			if err != nil {
				// the failed unit is skipped for this run, not retried
				outcome.Skipped++
				outcome.Err = err
				slog.Warn("tee-times fetch failed",
					"source", a.Source(), "course", u.course.ID, "date", u.date, "err", err)
			}
		}(u)
	}
	wg.Wait()

	outcome.Elapsed = time.Since(start)
	// a clean pass that found nothing bookable is still a success; the
	// reconciler refuses to trust zero records either way
	if outcome.Records == 0 && outcome.Err != nil {
		outcome.Status = adapters.StatusFailure
	} else {
		outcome.Status = adapters.StatusSuccess
	}
	return outcome
}

// fetchUnit pages through one course/date and writes the slots it finds.
func (a *Adapter) fetchUnit(
	ctx context.Context,
	course registry.Course,
	ref registry.SourceRef,
	date string,
) (written, dropped int, err error) {
	ctx, span := tracer.Start(ctx, "teeapi.fetchUnit")
	defer span.End()
	span.SetAttributes(
		attribute.String("course", course.ID),
		attribute.String("date", date),
	)

	maxPages := a.config.Source.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var times []teeTime
	for page := 1; page <= maxPages; page++ {
		body, err := a.fetchPage(ctx, ref.ExternalID, date, page)
		if err != nil {
			return 0, 0, err
		}
		times = append(times, body.Times...)
		if !body.HasMore {
			break
		}
	}

	slots, dropped := a.buildSlots(course, date, times)
	slots = adapters.DedupeSlots(slots)
	if len(slots) == 0 {
		return 0, dropped, nil
	}
	written, err = a.writer.UpsertSlots(ctx, slots)
	return written, dropped, err
}

func (a *Adapter) fetchPage(ctx context.Context, externalID, date string, page int) (timesPage, error) {
	var body timesPage
	err := retry.Do(ctx, a.config.Retry, func(ctx context.Context) error {
		response, err := a.client.R().
			SetContext(ctx).
			SetResult(&body).
			SetQueryParams(map[string]string{
				"course": externalID,
				"date":   date,
				"page":   fmt.Sprint(page),
			}).
			Get(a.config.Source.TimesPath)
		if err != nil {
			return err
		}
		status := response.StatusCode()
		switch {
		case status == http.StatusOK:
			return nil
		case status == http.StatusTooManyRequests || status >= 500:
			return fmt.Errorf("times endpoint: status %d", status)
		default:
			// a 4xx is a request problem; retrying cannot help
			return retry.Permanent(fmt.Errorf("times endpoint: status %d", status))
		}
	})
	return body, err
}

// buildSlots maps the provider's structured records straight to store rows.
// The feed is already typed, so only the time field goes through the text
// normalizer; prices are checked against the course's plausible window.
func (a *Adapter) buildSlots(course registry.Course, date string, times []teeTime) ([]slotstore.Slot, int) {
	priceMin, priceMax := course.PriceWindow()
	var slots []slotstore.Slot
	dropped := 0
	for _, t := range times {
		teeOff, ok := normalize.TimeAssuming(t.Time, "")
		if !ok {
			dropped++
			slog.Debug("dropped record: unparsable time",
				"source", a.Source(), "course", course.ID, "raw", t.Time)
			continue
		}
		if t.GreenFee < priceMin || (priceMax > 0 && t.GreenFee > priceMax) {
			dropped++
			slog.Debug("dropped record: price outside plausible window",
				"source", a.Source(), "course", course.ID, "price", t.GreenFee)
			continue
		}
		slot := slotstore.Slot{
			CourseID:   course.ID,
			Date:       date,
			Time:       teeOff,
			Source:     a.Source(),
			Holes:      normalize.Holes(fmt.Sprint(t.Holes)),
			MinPlayers: t.OpenSpots,
			Price:      t.GreenFee,
			HasCart:    t.CartIncluded,
			BookingURL: t.BookingURL,
		}
		if slot.MinPlayers <= 0 {
			slot.MinPlayers = 1
		}
		if t.RackRate > t.GreenFee {
			slot.OriginalPrice = t.RackRate
		}
		slots = append(slots, slot)
	}
	return slots, dropped
}
