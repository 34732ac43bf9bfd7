package display

import (
	"fmt"
	"time"
)

// RelativeTime labels t as seen at now: "just nu", "N min sedan", "N h
// sedan", "N dag(ar) sedan" within a week, otherwise an absolute date and
// time in the localizer's zone. Future times read as "just now".
func RelativeTime(l Localizer, t, now time.Time) string {
	if t.IsZero() {
		return l.T("time.just_now")
	}

	delta := now.Sub(t)
	switch {
	case delta < time.Minute:
		return l.T("time.just_now")
	case delta < time.Hour:
		return l.T("time.minutes_ago", int(delta/time.Minute))
	case delta < 24*time.Hour:
		return l.T("time.hours_ago", int(delta/time.Hour))
	case delta < 7*24*time.Hour:
		days := int(delta / (24 * time.Hour))
		if days == 1 {
			return l.T("time.day_ago", days)
		}
		return l.T("time.days_ago", days)
	}

	local := t.In(l.Location())
	month := l.T(fmt.Sprintf("month.%d", int(local.Month())))
	return l.T("time.absolute", local.Day(), month, local.Format("15:04"))
}
