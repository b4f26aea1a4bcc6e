package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// tee sheets are published in the operating region's civil time, so every
// "today" comparison has to happen in Pacific time no matter where the
// process runs. a UTC comparison is off by a day every evening.
func Now() time.Time {
	return time.Now().In(Location)
}

// Civil formats t as its civil date ("2006-01-02") in the operating timezone.
func Civil(t time.Time) string {
	return t.In(Location).Format(time.DateOnly)
}

// Today returns the current civil date in the operating timezone.
func Today() string {
	return Civil(Now())
}

// DateRange returns the civil dates for `from` through `from + days - 1`.
// AddDate is used instead of adding 24h multiples so daylight-saving
// transitions cannot skip or repeat a date.
func DateRange(from time.Time, days int) []string {
	if days < 1 {
		days = 1
	}
	from = from.In(Location)
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, Location)

	dates := make([]string, days)
	for i := 0; i < days; i++ {
		dates[i] = day.AddDate(0, 0, i).Format(time.DateOnly)
	}
	return dates
}
