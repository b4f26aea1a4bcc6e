package slotstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/telemetry"
	"github.com/packmollins-afk/bay-area-golf-times-sub001/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) (Store, *sql.DB) {
	cleanup := telemetry.SetupForTesting(t, "test:slotstore")
	t.Cleanup(cleanup)

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(Schema)
	if err != nil {
		t.Fatal(err)
	}
	return New(sqlite), sqlite
}

func futureDate(days int) string {
	return timezone.Civil(timezone.Now().AddDate(0, 0, days))
}

func TestNow(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	now, err := store.Now(ctx)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), now, time.Minute)
	require.Equal(t, timezone.Location, now.Location())
}

func TestUpsertOverwrites(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	date := futureDate(1)

	slot := Slot{
		CourseID: "harding-park", Date: date, Time: "07:30", Source: "fairwayapi",
		Holes: 18, MinPlayers: 4, Price: 62, BookingURL: "https://example.com/book/1",
	}
	written, err := store.UpsertSlots(ctx, []Slot{slot})
	require.NoError(t, err)
	require.Equal(t, 1, written)

	slot.Price = 55
	slot.MinPlayers = 2
	written, err = store.UpsertSlots(ctx, []Slot{slot})
	require.NoError(t, err)
	require.Equal(t, 1, written)

	rows, err := store.Query(ctx, Filter{CourseID: "harding-park"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, float64(55), rows[0].Price)
	require.Equal(t, 2, rows[0].MinPlayers)
	require.False(t, rows[0].FetchedAt.IsZero())
}

func TestSourcesCoexist(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	date := futureDate(1)

	_, err := store.UpsertSlots(ctx, []Slot{
		{CourseID: "c1", Date: date, Time: "07:30", Source: "fairwayapi", Price: 50, Holes: 18, MinPlayers: 4},
		{CourseID: "c1", Date: date, Time: "07:30", Source: "linkside", Price: 55, Holes: 18, MinPlayers: 4},
	})
	require.NoError(t, err)

	rows, err := store.Query(ctx, Filter{CourseID: "c1", Date: date})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// the cheapest view collapses the pair to the 50-dollar row
	cheapest, err := store.Query(ctx, Filter{CourseID: "c1", Date: date, Cheapest: true})
	require.NoError(t, err)
	require.Len(t, cheapest, 1)
	require.Equal(t, float64(50), cheapest[0].Price)
	require.Equal(t, "fairwayapi", cheapest[0].Source)
}

func TestQueryFilters(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	date := futureDate(2)

	_, err := store.UpsertSlots(ctx, []Slot{
		{CourseID: "c1", Date: date, Time: "06:00", Source: "s", Price: 40, Holes: 18, MinPlayers: 4},
		{CourseID: "c1", Date: date, Time: "12:30", Source: "s", Price: 80, Holes: 18, MinPlayers: 2},
		{CourseID: "c1", Date: date, Time: "16:45", Source: "s", Price: 35, Holes: 9, MinPlayers: 1},
	})
	require.NoError(t, err)

	rows, err := store.Query(ctx, Filter{Date: date, TimeFrom: "07:00", TimeTo: "17:00"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = store.Query(ctx, Filter{Date: date, MaxPrice: 50})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = store.Query(ctx, Filter{Date: date, Holes: 9})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "16:45", rows[0].Time)

	rows, err = store.Query(ctx, Filter{Date: date, Players: 4})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "06:00", rows[0].Time)
}

func TestDeleteBefore(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.UpsertSlots(ctx, []Slot{
		{CourseID: "c1", Date: "2020-01-01", Time: "07:30", Source: "s", Price: 50},
		{CourseID: "c1", Date: futureDate(1), Time: "07:30", Source: "s", Price: 50},
	})
	require.NoError(t, err)

	deleted, err := store.DeleteBefore(ctx, timezone.Today())
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	count, err := store.CountSlots(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestDeleteStale(t *testing.T) {
	store, sqlite := setupStore(t)
	ctx := context.Background()
	date := futureDate(1)

	_, err := store.UpsertSlots(ctx, []Slot{
		{CourseID: "c1", Date: date, Time: "07:30", Source: "fairwayapi", Price: 50},
		{CourseID: "c1", Date: date, Time: "08:15", Source: "fairwayapi", Price: 55},
		{CourseID: "c1", Date: date, Time: "07:30", Source: "linkside", Price: 60},
	})
	require.NoError(t, err)

	watermark, err := store.Now(ctx)
	require.NoError(t, err)

	// age one fairwayapi row behind the watermark; the rest stay fresh
	_, err = sqlite.Exec(
		`UPDATE tee_time SET fetched_at = ? WHERE source = 'fairwayapi' AND tee_off = '08:15'`,
		watermark.Unix()-3600,
	)
	require.NoError(t, err)
	_, err = sqlite.Exec(`UPDATE tee_time SET fetched_at = ? WHERE tee_off = '07:30'`, watermark.Unix()+1)
	require.NoError(t, err)

	deleted, err := store.DeleteStale(ctx, "fairwayapi", timezone.Today(), watermark)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	// the other source is untouched
	rows, err := store.Query(ctx, Filter{Source: "linkside"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRecordOutcomes(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	err := store.RecordOutcomes(ctx, []OutcomeRow{
		{Source: "fairwayapi", RunID: "run-1", Status: "success", Records: 12, ElapsedMS: 1500},
		{Source: "linkside", RunID: "run-1", Status: "failure", Error: "session never established"},
	})
	require.NoError(t, err)

	// a later run replaces the per-source row
	err = store.RecordOutcomes(ctx, []OutcomeRow{
		{Source: "linkside", RunID: "run-2", Status: "success", Records: 3},
	})
	require.NoError(t, err)

	rows, err := store.LastOutcomes(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "fairwayapi", rows[0].Source)
	require.Equal(t, "run-2", rows[1].RunID)
	require.Equal(t, "success", rows[1].Status)
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(Config{File: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	count, err := store.CountSlots(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
