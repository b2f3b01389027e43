package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is a calendar-date window. Start and End are midnight values; End
// is the last day of the window, inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// monthAliases tolerates the abbreviations and common misspellings seen in
// chat input. Matching is by this explicit table, never by string distance.
var monthAliases = map[string]time.Month{
	"january": time.January, "jan": time.January, "janvery": time.January,
	"february": time.February, "feb": time.February, "febuary": time.February, "febraury": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April, "aprail": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July, "julai": time.July,
	"august": time.August, "aug": time.August, "agust": time.August,
	"september": time.September, "sep": time.September, "sept": time.September, "septembar": time.September,
	"october": time.October, "oct": time.October, "octobar": time.October,
	"november": time.November, "nov": time.November, "novembar": time.November,
	"december": time.December, "dec": time.December, "decembar": time.December, "disambar": time.December,
}

var ordinalWeeks = map[string]int{
	"1st": 1, "first": 1, "pehla": 1,
	"2nd": 2, "second": 2, "dusra": 2,
	"3rd": 3, "third": 3, "teesra": 3,
	"4th": 4, "fourth": 4, "chautha": 4,
	"5th": 5, "fifth": 5,
}

var (
	lastNDaysRe   = regexp.MustCompile(`last\s+(\d+)\s+days?`)
	monthYearRe   *regexp.Regexp
	weekOfMonthRe *regexp.Regexp
	monthWeekRe   *regexp.Regexp
)

func init() {
	names := make([]string, 0, len(monthAliases))
	for alias := range monthAliases {
		names = append(names, alias)
	}
	monthGroup := "(" + strings.Join(names, "|") + ")"

	ords := make([]string, 0, len(ordinalWeeks))
	for o := range ordinalWeeks {
		ords = append(ords, o)
	}
	ordGroup := "(" + strings.Join(ords, "|") + ")"

	monthYearRe = regexp.MustCompile(`\b` + monthGroup + `\b(?:\s+(\d{4}))?`)
	// "july 1st week" and "1st week of july"
	monthWeekRe = regexp.MustCompile(`\b` + monthGroup + `\s+` + ordGroup + `\s+week\b`)
	weekOfMonthRe = regexp.MustCompile(`\b` + ordGroup + `\s+week\s+(?:of\s+)?` + monthGroup + `\b`)
}

// DateRangeIn extracts a date range from free text relative to now. It returns
// nil when no temporal expression is recognized. Matching is first-match-wins
// in a fixed priority order; the week-of-month forms are tested just before
// the bare month form because their matches are a strict subset of it.
func DateRangeIn(query string, now time.Time) *DateRange {
	q := strings.ToLower(query)
	today := midnight(now)

	if strings.Contains(q, "till now") || strings.Contains(q, "till date") ||
		strings.Contains(q, "so far") || strings.Contains(q, "ab tak") {
		return &DateRange{Start: time.Date(1970, 1, 1, 0, 0, 0, 0, now.Location()), End: today}
	}

	if strings.Contains(q, "today") || strings.Contains(q, "aaj") {
		return &DateRange{Start: today, End: today}
	}

	if strings.Contains(q, "yesterday") || strings.Contains(q, "kal ka") || strings.Contains(q, "kal ki") {
		y := today.AddDate(0, 0, -1)
		return &DateRange{Start: y, End: y}
	}

	if strings.Contains(q, "this week") || strings.Contains(q, "is hafte") {
		start := weekStart(today)
		return &DateRange{Start: start, End: today}
	}

	if strings.Contains(q, "last week") || strings.Contains(q, "pichle hafte") {
		start := weekStart(today).AddDate(0, 0, -7)
		return &DateRange{Start: start, End: start.AddDate(0, 0, 6)}
	}

	if strings.Contains(q, "this month") || strings.Contains(q, "is mahine") {
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return &DateRange{Start: start, End: today}
	}

	if strings.Contains(q, "last month") || strings.Contains(q, "pichle mahine") {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start := first.AddDate(0, -1, 0)
		return &DateRange{Start: start, End: first.AddDate(0, 0, -1)}
	}

	if m := monthWeekRe.FindStringSubmatch(q); m != nil {
		return weekOfMonth(monthAliases[m[1]], ordinalWeeks[m[2]], today)
	}
	if m := weekOfMonthRe.FindStringSubmatch(q); m != nil {
		return weekOfMonth(monthAliases[m[2]], ordinalWeeks[m[1]], today)
	}

	if m := monthYearRe.FindStringSubmatch(q); m != nil {
		month := monthAliases[m[1]]
		year := today.Year()
		if m[2] != "" {
			if y, err := strconv.Atoi(m[2]); err == nil {
				year = y
			}
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
		return &DateRange{Start: start, End: start.AddDate(0, 1, -1)}
	}

	if m := lastNDaysRe.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return nil
		}
		return &DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: today}
	}

	if strings.Contains(q, "this year") || strings.Contains(q, "is saal") {
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		return &DateRange{Start: start, End: today}
	}

	if strings.Contains(q, "last year") || strings.Contains(q, "pichle saal") {
		start := time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		return &DateRange{Start: start, End: time.Date(today.Year()-1, 12, 31, 0, 0, 0, 0, today.Location())}
	}

	return nil
}

func weekOfMonth(month time.Month, week int, today time.Time) *DateRange {
	start := time.Date(today.Year(), month, (week-1)*7+1, 0, 0, 0, 0, today.Location())
	if start.Month() != month {
		// 5th week may not exist in a short month
		return nil
	}
	end := start.AddDate(0, 0, 6)
	lastDay := time.Date(today.Year(), month, 1, 0, 0, 0, 0, today.Location()).AddDate(0, 1, -1)
	if end.After(lastDay) {
		end = lastDay
	}
	return &DateRange{Start: start, End: end}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns the Monday of the week containing d.
func weekStart(d time.Time) time.Time {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}
