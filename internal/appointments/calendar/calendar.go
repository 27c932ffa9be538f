package calendar

import (
	"errors"
	"time"
)

const SlotDuration = time.Hour

var (
	ErrInvalidRange    = errors.New("Invalid time range")
	ErrInvalidDuration = errors.New("Appointments must last exactly one hour")
	ErrNotOnTheHour    = errors.New("Appointments must start on the hour")
	ErrOutsideHours    = errors.New("Appointments are only available between business hours")
	ErrClosedDay       = errors.New("Appointments are not available on this day")
	ErrPastSlot        = errors.New("Cannot book past time slots")
)

// Calendar answers business-day questions in one fixed UTC offset. It never
// consults the host time zone or a zone database.
type Calendar struct {
	offset    time.Duration
	zone      *time.Location
	openHour  int
	closeHour int
	closedDay time.Weekday
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Clock is the business-timezone reading of an instant.
type Clock struct {
	Date    Date
	Weekday time.Weekday
	Hour    int
	Minute  int
	Second  int
	Nano    int
}

func New(offset time.Duration, openHour, closeHour int, closedDay time.Weekday) *Calendar {
	return &Calendar{
		offset:    offset,
		zone:      time.FixedZone("", int(offset/time.Second)),
		openHour:  openHour,
		closeHour: closeHour,
		closedDay: closedDay,
	}
}

// Default is +05:30, slots starting 10:00 through 18:00, closed on Sunday.
func Default() *Calendar {
	return New(5*time.Hour+30*time.Minute, 10, 19, time.Sunday)
}

func (c *Calendar) Offset() time.Duration { return c.offset }
func (c *Calendar) OpenHour() int         { return c.openHour }
func (c *Calendar) CloseHour() int        { return c.closeHour }

// Local returns t expressed in the business offset.
func (c *Calendar) Local(t time.Time) time.Time {
	return t.In(c.zone)
}

func (c *Calendar) Fields(t time.Time) Clock {
	local := c.Local(t)
	return Clock{
		Date:    DateOf(local),
		Weekday: local.Weekday(),
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Second:  local.Second(),
		Nano:    local.Nanosecond(),
	}
}

// Instant returns the UTC instant of hour:00 on d in the business offset.
func (c *Calendar) Instant(d Date, hour int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, c.zone).UTC()
}

func (c *Calendar) Today(now time.Time) Date {
	return c.Fields(now).Date
}

func (c *Calendar) BusinessDayIsOpen(d Date) bool {
	return d.Weekday() != c.closedDay
}

func (c *Calendar) SlotBounds(d Date, hour int) (time.Time, time.Time) {
	start := c.Instant(d, hour)
	return start, start.Add(SlotDuration)
}

// DayWindow spans the first slot start to the last slot end of d.
func (c *Calendar) DayWindow(d Date) Window {
	return Window{Start: c.Instant(d, c.openHour), End: c.Instant(d, c.closeHour)}
}

// GenerateSlots lists the bookable one-hour windows of d whose start is after now.
// Closed days and past dates yield an empty slice.
func (c *Calendar) GenerateSlots(d Date, now time.Time) []Window {
	slots := make([]Window, 0, c.closeHour-c.openHour)
	if !c.BusinessDayIsOpen(d) {
		return slots
	}
	for hour := c.openHour; hour < c.closeHour; hour++ {
		start, end := c.SlotBounds(d, hour)
		if !start.After(now) {
			continue
		}
		slots = append(slots, Window{Start: start, End: end})
	}
	return slots
}

// CheckShape verifies that [start, end) is one grid slot on an open business day.
func (c *Calendar) CheckShape(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidRange
	}
	if end.Sub(start) != SlotDuration {
		return ErrInvalidDuration
	}
	return c.CheckSlotStart(start)
}

// CheckSlotStart verifies the day, hour and on-the-hour alignment of start.
func (c *Calendar) CheckSlotStart(start time.Time) error {
	f := c.Fields(start)
	if f.Weekday == c.closedDay {
		return ErrClosedDay
	}
	if f.Hour < c.openHour || f.Hour >= c.closeHour {
		return ErrOutsideHours
	}
	if f.Minute != 0 || f.Second != 0 || f.Nano != 0 {
		return ErrNotOnTheHour
	}
	return nil
}

// CheckFuture rejects slots that have already started.
func (c *Calendar) CheckFuture(start, now time.Time) error {
	if !start.After(now) {
		return ErrPastSlot
	}
	return nil
}

// FormatDate renders the business-local date as day/month/year.
func (c *Calendar) FormatDate(t time.Time) string {
	return c.Local(t).Format("2/1/2006")
}

// FormatTime renders the business-local time on a 12-hour clock.
func (c *Calendar) FormatTime(t time.Time) string {
	return c.Local(t).Format("3:04 pm")
}
