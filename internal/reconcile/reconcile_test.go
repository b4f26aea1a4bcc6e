package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/packmollins-afk/bay-area-golf-times-sub001/internal/adapters"
)

type fakeStore struct {
	pastDeleted  int64
	staleDeleted map[string]int64
	staleCalls   []string
	failStale    map[string]error

	gotFromDate  string
	gotWatermark time.Time
}

func (s *fakeStore) DeleteBefore(_ context.Context, date string) (int64, error) {
	return s.pastDeleted, nil
}

func (s *fakeStore) DeleteStale(_ context.Context, source, fromDate string, watermark time.Time) (int64, error) {
	s.staleCalls = append(s.staleCalls, source)
	s.gotFromDate = fromDate
	s.gotWatermark = watermark
	if err := s.failStale[source]; err != nil {
		return 0, err
	}
	return s.staleDeleted[source], nil
}

func TestReconcileHealthySources(t *testing.T) {
	store := &fakeStore{
		pastDeleted:  3,
		staleDeleted: map[string]int64{"fairwayapi": 2, "linkside": 1},
	}
	watermark := time.Now()
	report, err := New(store).Reconcile(context.Background(), []adapters.Outcome{
		{Source: "fairwayapi", Status: adapters.StatusSuccess, Records: 40},
		{Source: "linkside", Status: adapters.StatusSuccess, Records: 12},
	}, "2026-09-01", watermark)
	require.NoError(t, err)

	require.Equal(t, int64(3), report.PastDeleted)
	require.Equal(t, map[string]int64{"fairwayapi": 2, "linkside": 1}, report.StaleDeleted)
	require.Equal(t, int64(6), report.Total())
	require.Equal(t, "2026-09-01", store.gotFromDate)
	require.Equal(t, watermark, store.gotWatermark)
}

func TestReconcileSparesUnhealthySources(t *testing.T) {
	store := &fakeStore{staleDeleted: map[string]int64{"fairwayapi": 5}}
	report, err := New(store).Reconcile(context.Background(), []adapters.Outcome{
		{Source: "fairwayapi", Status: adapters.StatusSuccess, Records: 40},
		{Source: "linkside", Status: adapters.StatusFailure, Err: errors.New("down")},
		{Source: "parfinder", Status: adapters.StatusTimeout},
		// succeeded but empty: indistinguishable from a silent outage
		{Source: "greenfee", Status: adapters.StatusSuccess, Records: 0},
	}, "2026-09-01", time.Now())
	require.NoError(t, err)

	require.Equal(t, []string{"fairwayapi"}, store.staleCalls)
	require.Equal(t, int64(5), report.Total())
}

func TestReconcileCollectsErrors(t *testing.T) {
	store := &fakeStore{
		staleDeleted: map[string]int64{"linkside": 2},
		failStale:    map[string]error{"fairwayapi": errors.New("locked")},
	}
	report, err := New(store).Reconcile(context.Background(), []adapters.Outcome{
		{Source: "fairwayapi", Status: adapters.StatusSuccess, Records: 10},
		{Source: "linkside", Status: adapters.StatusSuccess, Records: 10},
	}, "2026-09-01", time.Now())

	// one source failing to reconcile must not block the others
	require.ErrorContains(t, err, "locked")
	require.Equal(t, int64(2), report.StaleDeleted["linkside"])
}
