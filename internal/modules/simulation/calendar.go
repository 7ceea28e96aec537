package simulation

import "time"

// businessCalendar returns n consecutive business days (Monday through
// Friday, no holiday awareness) starting the first business day strictly
// after the given date. A zero start falls back to today.
func businessCalendar(after time.Time, n int) []string {
	if after.IsZero() {
		after = time.Now()
	}
	dates := make([]string, 0, n)
	day := after
	for len(dates) < n {
		day = day.AddDate(0, 0, 1)
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		dates = append(dates, day.Format("2006-01-02"))
	}
	return dates
}
