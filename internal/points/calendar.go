package points

import "time"

// DateLayout is the calendar-day format stored for reset and activity dates
const DateLayout = "2006-01-02"

// Calendar resolves calendar days in a fixed timezone.
// Now is injectable so day boundaries can be tested.
type Calendar struct {
	Location *time.Location
	Now      func() time.Time
}

// NewCalendar returns a calendar on the wall clock in loc
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{Location: loc, Now: time.Now}
}

// Current returns the current instant in the calendar's timezone
func (c *Calendar) Current() time.Time {
	return c.Now().In(c.Location)
}

// DateOf returns the calendar day of t
func (c *Calendar) DateOf(t time.Time) string {
	return t.In(c.Location).Format(DateLayout)
}

// Today returns the current calendar day
func (c *Calendar) Today() string {
	return c.DateOf(c.Now())
}

// Yesterday returns the day before Today
func (c *Calendar) Yesterday() string {
	return c.DayBefore(c.Now())
}

// DayBefore returns the calendar day preceding t's
func (c *Calendar) DayBefore(t time.Time) string {
	return t.In(c.Location).AddDate(0, 0, -1).Format(DateLayout)
}

// StartOfDay returns midnight of t's calendar day
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location)
}

// WeekStart returns Monday 00:00 of the ISO week containing t
func (c *Calendar) WeekStart(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// At combines a calendar day with an HH:MM time of day
func (c *Calendar) At(day time.Time, clock string) (time.Time, error) {
	tod, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	day = day.In(c.Location)
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, c.Location), nil
}

// ParseDate parses a YYYY-MM-DD day in the calendar's timezone
func (c *Calendar) ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, c.Location)
}
