// Package ranking decides whether a finished session counts toward the
// leaderboard and records it when it does.
package ranking

import (
	"fmt"
	"strings"
	"time"
)

// Window is a recurring weekly time range during which scores are ranked.
// Both ends of the daily range are inclusive, to the minute.
type Window struct {
	Location *time.Location
	Weekdays map[time.Weekday]bool
	Start    int // minutes after midnight
	End      int
}

// SchoolHours ranks Monday to Friday, 06:30 to 14:00, in loc.
func SchoolHours(loc *time.Location) Window {
	return Window{
		Location: loc,
		Weekdays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
		Start: 6*60 + 30,
		End:   14 * 60,
	}
}

// ParseWindow builds a Window from config strings. Empty values fall back to
// SchoolHours.
func ParseWindow(timezone string, weekdays []string, start, end string) (Window, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return Window{}, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}
	w := SchoolHours(loc)

	if len(weekdays) > 0 {
		w.Weekdays = make(map[time.Weekday]bool, len(weekdays))
		for _, raw := range weekdays {
			day, err := parseWeekday(raw)
			if err != nil {
				return Window{}, err
			}
			w.Weekdays[day] = true
		}
	}
	if start != "" {
		m, err := parseClock(start)
		if err != nil {
			return Window{}, err
		}
		w.Start = m
	}
	if end != "" {
		m, err := parseClock(end)
		if err != nil {
			return Window{}, err
		}
		w.End = m
	}
	if w.End < w.Start {
		return Window{}, fmt.Errorf("ranking window ends (%s) before it starts (%s)", end, start)
	}
	return w, nil
}

// Eligible reports whether t falls inside the window.
func (w Window) Eligible(t time.Time) bool {
	if w.Location != nil {
		t = t.In(w.Location)
	}
	if !w.Weekdays[t.Weekday()] {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= w.Start && minute <= w.End
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || key == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}
