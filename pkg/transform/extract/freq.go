package extract

import "time"

// frequency enumerates anchored points in time. Exactly one of its
// fields is set.
type frequency struct {
	every         time.Duration
	day           func(time.Time) bool
	month         func(y int, m time.Month) []int
	businessHours bool
}

func weekday(t time.Time) bool { return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday }

func lastDay(y int, m time.Month) int { return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day() }

func lastBusinessDay(y int, m time.Month) int {
	d := lastDay(y, m)
	for !weekday(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		d--
	}
	return d
}

func firstBusinessDay(y int, m time.Month) int {
	d := 1
	for !weekday(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		d++
	}
	return d
}

func inMonths(months ...time.Month) func(time.Month) bool {
	return func(m time.Month) bool {
		for _, x := range months {
			if x == m {
				return true
			}
		}
		return false
	}
}

var quarterEnds = inMonths(time.March, time.June, time.September, time.December)
var quarterStarts = inMonths(time.January, time.April, time.July, time.October)

var frequencies = map[string]frequency{
	"business days": {day: weekday},
	"days":          {every: 24 * time.Hour},
	"weeks":         {day: func(t time.Time) bool { return t.Weekday() == time.Sunday }},
	"months":        {month: func(y int, m time.Month) []int { return []int{lastDay(y, m)} }},
	"semi months":   {month: func(y int, m time.Month) []int { return []int{15, lastDay(y, m)} }},
	"business month ends": {month: func(y int, m time.Month) []int {
		return []int{lastBusinessDay(y, m)}
	}},
	"month starts":      {month: func(y int, m time.Month) []int { return []int{1} }},
	"semi month starts": {month: func(y int, m time.Month) []int { return []int{1, 15} }},
	"business month starts": {month: func(y int, m time.Month) []int {
		return []int{firstBusinessDay(y, m)}
	}},
	"quarters": {month: func(y int, m time.Month) []int {
		if quarterEnds(m) {
			return []int{lastDay(y, m)}
		}
		return nil
	}},
	"quarter starts": {month: func(y int, m time.Month) []int {
		if quarterStarts(m) {
			return []int{1}
		}
		return nil
	}},
	"years": {month: func(y int, m time.Month) []int {
		if m == time.December {
			return []int{31}
		}
		return nil
	}},
	"business hours": {businessHours: true},
	"hours":          {every: time.Hour},
	"minutes":        {every: time.Minute},
	"seconds":        {every: time.Second},
	"milliseconds":   {every: time.Millisecond},
}

// count returns how many points fall in [start, end]. Anchored points
// keep the time of day of start.
func (fr frequency) count(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	switch {
	case fr.every > 0:
		return int(end.Sub(start)/fr.every) + 1
	case fr.day != nil:
		n := 0
		for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
			if fr.day(t) {
				n++
			}
		}
		return n
	case fr.month != nil:
		n := 0
		h, mi, s := start.Clock()
		y, m := start.Year(), start.Month()
		for !time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).After(end) {
			for _, d := range fr.month(y, m) {
				t := time.Date(y, m, d, h, mi, s, start.Nanosecond(), time.UTC)
				if !t.Before(start) && !t.After(end) {
					n++
				}
			}
			if m == time.December {
				y, m = y+1, time.January
			} else {
				m++
			}
		}
		return n
	case fr.businessHours:
		n := 0
		t := start.Truncate(time.Hour)
		if t.Before(start) {
			t = t.Add(time.Hour)
		}
		for ; !t.After(end); t = t.Add(time.Hour) {
			if weekday(t) && t.Hour() >= 9 && t.Hour() < 17 {
				n++
			}
		}
		return n
	}
	return 0
}
