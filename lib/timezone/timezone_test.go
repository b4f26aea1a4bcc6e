package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCivil(t *testing.T) {
	cases := []struct {
		t      time.Time
		expect string
	}{
		{
			// 6am UTC is still the previous evening in Pacific time
			t:      time.Date(2026, time.January, 10, 6, 0, 0, 0, time.UTC),
			expect: "2026-01-09",
		},
		{
			t:      time.Date(2026, time.January, 10, 20, 0, 0, 0, time.UTC),
			expect: "2026-01-10",
		},
		{
			t:      time.Date(2026, time.July, 4, 12, 0, 0, 0, Location),
			expect: "2026-07-04",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, Civil(test.t))
	}
}

func TestDateRange(t *testing.T) {
	from := time.Date(2026, time.February, 27, 9, 30, 0, 0, Location)

	require.Equal(t, []string{"2026-02-27"}, DateRange(from, 1))
	require.Equal(t, []string{"2026-02-27"}, DateRange(from, 0))
	require.Equal(t,
		[]string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"},
		DateRange(from, 4),
	)

	// spans the spring-forward transition (2026-03-08 in the US)
	dst := time.Date(2026, time.March, 7, 23, 0, 0, 0, Location)
	require.Equal(t,
		[]string{"2026-03-07", "2026-03-08", "2026-03-09"},
		DateRange(dst, 3),
	)
}
