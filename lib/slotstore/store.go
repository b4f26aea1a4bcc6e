// Package slotstore is the canonical durable store for availability slots.
// Row identity is (course_id, play_date, tee_off, source): distinct sources
// reporting the same slot coexist as separate rows, so concurrent adapters
// never contend over a row and no locking is needed above sqlite's own.
package slotstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Slot is one bookable offering as reported by one source.
// FetchedAt is set by the store on write, from the store's own clock; callers
// never supply it. That keeps fetched_at comparable against run watermarks
// captured from the same clock.
type Slot struct {
	CourseID string `json:"course_id"`
	// civil "YYYY-MM-DD"
	Date string `json:"date"`
	// canonical 24h "HH:MM"
	Time   string `json:"time"`
	Source string `json:"source"`
	Holes  int    `json:"holes"`
	// spots open at this rate
	MinPlayers int     `json:"players"`
	Price      float64 `json:"price"`
	// 0 = not reported
	OriginalPrice float64   `json:"original_price,omitempty"`
	HasCart       bool      `json:"has_cart"`
	BookingURL    string    `json:"booking_url,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

type Store struct {
	db *sql.DB
}

func New(database *sql.DB) Store {
	return Store{db: database}
}

type Config struct {
	// sqlite file path, or ":memory:"
	File string `json:"file"`
	// remote libsql url; takes precedence over File when set
	Url string `json:"url"`
}

// Open opens the configured database and applies the schema.
func Open(config Config) (Store, error) {
	var database *sql.DB
	var err error
	if config.Url != "" {
		database, err = sql.Open("libsql", config.Url)
	} else {
		file := config.File
		if file == "" {
			file = ":memory:"
		}
		database, err = sql.Open("sqlite", file)
	}
	if err != nil {
		return Store{}, err
	}
	if _, err := database.Exec(Schema); err != nil {
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return New(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Now returns the store's clock, which is the authoritative clock domain for
// watermarks and fetched_at. Using the caller's clock instead would make the
// staleness comparison depend on skew between two machines.
func (s Store) Now(ctx context.Context) (time.Time, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx, `SELECT CAST(strftime('%s','now') AS INTEGER)`).Scan(&unix)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0).In(timezone.Location), nil
}

const upsertSlot = `
INSERT INTO tee_time (
	course_id, play_date, tee_off, source,
	holes, min_players, price, original_price, has_cart, booking_url, fetched_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (course_id, play_date, tee_off, source) DO UPDATE SET
	holes = excluded.holes,
	min_players = excluded.min_players,
	price = excluded.price,
	original_price = excluded.original_price,
	has_cart = excluded.has_cart,
	booking_url = excluded.booking_url,
	fetched_at = excluded.fetched_at`

// UpsertSlots writes a batch of slots in one transaction, falling back to
// row-by-row writes if the batch fails. A row that still fails individually
// is dropped; it will be re-attempted on the next run. Returns the number of
// rows written.
func (s Store) UpsertSlots(ctx context.Context, slots []Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	now, err := s.Now(ctx)
	if err != nil {
		return 0, err
	}

	written, err := s.upsertBatch(ctx, now, slots)
	if err == nil {
		return written, nil
	}
	slog.WarnContext(ctx, "batch upsert failed, retrying row-by-row", "rows", len(slots), "err", err)

	written = 0
	for _, slot := range slots {
		if _, err := s.db.ExecContext(ctx, upsertSlot, upsertArgs(slot, now)...); err != nil {
			slog.WarnContext(ctx, "dropping slot row",
				"course", slot.CourseID, "date", slot.Date, "time", slot.Time,
				"source", slot.Source, "err", err)
			continue
		}
		written++
	}
	return written, nil
}

func (s Store) upsertBatch(ctx context.Context, now time.Time, slots []Slot) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSlot)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, slot := range slots {
		if _, err := stmt.ExecContext(ctx, upsertArgs(slot, now)...); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(slots), nil
}

func upsertArgs(slot Slot, now time.Time) []any {
	var originalPrice any
	if slot.OriginalPrice > 0 {
		originalPrice = slot.OriginalPrice
	}
	return []any{
		slot.CourseID, slot.Date, slot.Time, slot.Source,
		slot.Holes, slot.MinPlayers, slot.Price, originalPrice,
		slot.HasCart, slot.BookingURL, now.Unix(),
	}
}

// DeleteBefore removes every slot whose civil date is strictly before `date`,
// regardless of source. Civil dates sort lexically.
func (s Store) DeleteBefore(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tee_time WHERE play_date < ?`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteStale removes one source's slots, dated fromDate or later, that were
// not rewritten since the watermark. Callers are responsible for only
// invoking this for sources that demonstrably produced data this run.
func (s Store) DeleteStale(ctx context.Context, source, fromDate string, watermark time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tee_time WHERE source = ? AND play_date >= ? AND fetched_at < ?`,
		source, fromDate, watermark.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s Store) CountSlots(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tee_time`).Scan(&n)
	return n, err
}

// Filter narrows a slot query. Zero values mean "no constraint".
type Filter struct {
	Date     string
	CourseID string
	Source   string
	TimeFrom string // "HH:MM" inclusive
	TimeTo   string // "HH:MM" inclusive
	MaxPrice float64
	Players  int
	Holes    int
	// collapse to the cheapest row per (course, date, time)
	Cheapest bool
}

const slotColumns = `course_id, play_date, tee_off, source, holes, min_players,
	price, original_price, has_cart, booking_url, fetched_at`

// Query returns slots matching the filter, ordered by date, time, course.
func (s Store) Query(ctx context.Context, f Filter) ([]Slot, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if f.Date != "" {
		add("play_date = ?", f.Date)
	}
	if f.CourseID != "" {
		add("course_id = ?", f.CourseID)
	}
	if f.Source != "" {
		add("source = ?", f.Source)
	}
	if f.TimeFrom != "" {
		add("tee_off >= ?", f.TimeFrom)
	}
	if f.TimeTo != "" {
		add("tee_off <= ?", f.TimeTo)
	}
	if f.MaxPrice > 0 {
		add("price <= ?", f.MaxPrice)
	}
	if f.Players > 0 {
		add("min_players >= ?", f.Players)
	}
	if f.Holes > 0 {
		add("holes = ?", f.Holes)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(
		`SELECT %s FROM tee_time %s ORDER BY play_date, tee_off, course_id, source`,
		slotColumns, where,
	)
	if f.Cheapest {
		query = fmt.Sprintf(`
			SELECT %s FROM (
				SELECT *, ROW_NUMBER() OVER (
					PARTITION BY course_id, play_date, tee_off
					ORDER BY price ASC, source ASC
				) AS price_rank
				FROM tee_time %s
			) WHERE price_rank = 1
			ORDER BY play_date, tee_off, course_id`,
			slotColumns, where,
		)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var slot Slot
		var originalPrice sql.NullFloat64
		var fetchedAt int64
		err := rows.Scan(
			&slot.CourseID, &slot.Date, &slot.Time, &slot.Source,
			&slot.Holes, &slot.MinPlayers, &slot.Price, &originalPrice,
			&slot.HasCart, &slot.BookingURL, &fetchedAt,
		)
		if err != nil {
			return nil, err
		}
		slot.OriginalPrice = originalPrice.Float64
		slot.FetchedAt = time.Unix(fetchedAt, 0).In(timezone.Location)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
