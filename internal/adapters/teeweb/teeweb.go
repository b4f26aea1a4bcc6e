// Package teeweb ingests availability from booking sites that only exist as
// rendered pages behind anti-automation protection. Sessions are expensive
// to establish, so one session is reused across all the dates of a course
// and page loads are paced with jitter.
package teeweb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/extract"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/registry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/retry"
)

var tracer = otel.Tracer("internal/adapters/teeweb")

type Config struct {
	Source registry.SourceConfig
	Retry  retry.Policy
	// per-request timeout
	Timeout time.Duration
	// wait between challenge rechecks
	ChallengeWait time.Duration
	// rechecks before giving up on a challenge
	ChallengeRetries int
	// base delay between page loads within a session
	Pace time.Duration
	// bound on concurrently open sessions
	MaxSessions int
}

type Adapter struct {
	config Config
	writer adapters.SlotWriter
}

func New(config Config, writer adapters.SlotWriter) *Adapter {
	if config.MaxSessions <= 0 {
		config.MaxSessions = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 45 * time.Second
	}
	if config.ChallengeWait <= 0 {
		config.ChallengeWait = 5 * time.Second
	}
	if config.ChallengeRetries <= 0 {
		config.ChallengeRetries = 3
	}
	if config.Pace <= 0 {
		config.Pace = 2 * time.Second
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.Default
	}
	return &Adapter{config: config, writer: writer}
}

func (a *Adapter) Source() string { return a.config.Source.ID }

func (a *Adapter) Run(ctx context.Context, courses []registry.Course, dates []string) adapters.Outcome {
	ctx, span := tracer.Start(ctx, "teeweb.Run")
	defer span.End()
	span.SetAttributes(attribute.String("source", a.Source()))

	start := time.Now()
	outcome := adapters.Outcome{Source: a.Source()}

	var wg sync.WaitGroup
	var mutex sync.Mutex
	semaphore := make(chan struct{}, a.config.MaxSessions)
	for _, course := range courses {
		ref, ok := course.Ref(a.Source())
		if !ok {
			outcome.Skipped += len(dates)
			continue
		}
		wg.Add(1)
		go func(course registry.Course, ref registry.SourceRef) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			written, dropped, skipped, err := a.runCourse(ctx, course, ref, dates)
			mutex.Lock()
			defer mutex.Unlock()
			outcome.Records += written
			outcome.Dropped += dropped
			outcome.Skipped += skipped
			if err != nil {
				slog.Warn("course ingestion failed",
					"source", a.Source(), "course", course.ID, "err", err)
				outcome.Err = err
			}
		}(course, ref)
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

// runCourse walks the course's dates on a single session, re-acquiring the
// session once if the site stops honoring it mid-run. A date that fails for
// any other reason is skipped and the walk carries on; only a session-fatal
// error or cancellation abandons the course's remaining dates.
func (a *Adapter) runCourse(
	ctx context.Context,
	course registry.Course,
	ref registry.SourceRef,
	dates []string,
) (written, dropped, skipped int, err error) {
	ctx, span := tracer.Start(ctx, "teeweb.runCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course", course.ID))

	session, err := a.acquireSession(ctx)
	if err != nil {
		return 0, 0, len(dates), fmt.Errorf("acquire session: %w", err)
	}
	reacquired := false
	var unitErr error
	for i, date := range dates {
		if i > 0 {
			// pacing keeps the session below the site's rate heuristics
			select {
			case <-time.After(retry.Jitter(a.config.Pace)):
			case <-ctx.Done():
				return written, dropped, skipped + len(dates) - i, ctx.Err()
			}
		}
		w, d, err := a.fetchDate(ctx, session, course, ref, date)
		if errors.Is(err, adapters.ErrSessionLost) && !reacquired {
			reacquired = true
			session, err = a.acquireSession(ctx)
			if err != nil {
				return written, dropped, skipped + len(dates) - i,
					fmt.Errorf("re-acquire session: %w", err)
			}
			w, d, err = a.fetchDate(ctx, session, course, ref, date)
		}
		switch {
		case err == nil:
			written += w
			dropped += d
		case errors.Is(err, adapters.ErrSessionLost) || ctx.Err() != nil:
			return written, dropped, skipped + len(dates) - i,
				fmt.Errorf("%s: %w", date, err)
		default:
			skipped++
			unitErr = fmt.Errorf("%s: %w", date, err)
			slog.Warn("skipping date after fetch failure",
				"source", a.Source(), "course", course.ID, "date", date, "err", err)
		}
	}
	return written, dropped, skipped, unitErr
}

// fetchDate loads one availability page, extracts and writes its slots.
func (a *Adapter) fetchDate(
	ctx context.Context,
	session *resty.Client,
	course registry.Course,
	ref registry.SourceRef,
	date string,
) (written, dropped int, err error) {
	ctx, span := tracer.Start(ctx, "teeweb.fetchDate")
	defer span.End()
	span.SetAttributes(
		attribute.String("course", course.ID),
		attribute.String("date", date),
	)

	pageURL := a.courseURL(ref)
	var doc *goquery.Document
	err = retry.Do(ctx, a.config.Retry, func(ctx context.Context) error {
		response, err := session.R().
			SetContext(ctx).
			SetQueryParam("date", date).
			Get(pageURL)
		if err != nil {
			return err
		}
		if isChallenge(response) || response.StatusCode() == 403 {
			// the established session is burned; retrying on it is pointless
			return retry.Permanent(adapters.ErrSessionLost)
		}
		if response.StatusCode() >= 500 {
			return fmt.Errorf("availability page: status %d", response.StatusCode())
		}
		if response.StatusCode() != 200 {
			return retry.Permanent(fmt.Errorf("availability page: status %d", response.StatusCode()))
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(response.String()))
		if err != nil {
			return retry.Permanent(fmt.Errorf("parse page: %w", err))
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	entries, strategy, err := extract.First(ctx, doc, ref.Selectors, extract.Structured{}, extract.Fulltext{})
	if err != nil {
		return 0, 0, fmt.Errorf("extract: %w", err)
	}
	if strategy == "fulltext" {
		slog.Warn("structured extraction found nothing, used full-text fallback",
			"source", a.Source(), "course", course.ID, "date", date)
	}

	slots, dropped := adapters.BuildSlots(course, a.Source(), date, entries)
	for i := range slots {
		slots[i].BookingURL = a.resolveURL(pageURL, slots[i].BookingURL)
	}
	slots = adapters.DedupeSlots(slots)
	if len(slots) == 0 {
		return 0, dropped, nil
	}
	written, err = a.writer.UpsertSlots(ctx, slots)
	return written, dropped, err
}

func (a *Adapter) courseURL(ref registry.SourceRef) string {
	if ref.URL != "" {
		return ref.URL
	}
	return strings.TrimRight(a.config.Source.BaseURL, "/") + "/teetimes/" + ref.ExternalID
}

// resolveURL makes page-relative booking links absolute.
func (a *Adapter) resolveURL(pageURL, href string) string {
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return href
	}
	return resolved.String()
}
