package hebrew

import (
	"fmt"
	"time"
	// Zone data for hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/nathan-osman/go-sunrise"
)

// Location is the place sunset is computed for.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	TimeZone  *time.Location
}

// FairLawn returns the default location: Fair Lawn, NJ.
func FairLawn() (Location, error) {
	tz, err := time.LoadLocation("America/New_York")
	if err != nil {
		return Location{}, fmt.Errorf("load time zone: %w", err)
	}
	return Location{
		Name:      "Fair Lawn, NJ",
		Latitude:  40.940866,
		Longitude: -74.126082,
		TimeZone:  tz,
	}, nil
}

// Calendar answers calendar questions about civil dates for one location.
// It holds no mutable state; every call recomputes from the date.
type Calendar struct {
	loc Location
}

// NewCalendar creates a calendar bound to loc. A nil time zone means UTC.
func NewCalendar(loc Location) *Calendar {
	if loc.TimeZone == nil {
		loc.TimeZone = time.UTC
	}
	return &Calendar{loc: loc}
}

// Location returns the location the calendar is bound to.
func (c *Calendar) Location() Location {
	return c.loc
}

// ToHebrew converts a civil date to its Hebrew date.
func (c *Calendar) ToHebrew(d CivilDate) Date {
	return ToHebrew(d)
}

// FromHebrew converts a Hebrew date to a civil date.
func (c *Calendar) FromHebrew(d Date) CivilDate {
	return FromHebrew(d)
}

// AbsoluteDay returns a monotonic day number for subtraction.
func (c *Calendar) AbsoluteDay(d CivilDate) int64 {
	return d.RD()
}

// ParshaIndex returns the weekly reading for a Saturday.
func (c *Calendar) ParshaIndex(d CivilDate) int {
	return ParshaIndex(d)
}

// Molad returns the molad of a Hebrew month.
func (c *Calendar) Molad(year int, month Month) time.Time {
	return Molad(year, month)
}

// DaysInMonth returns the number of days in a Hebrew month.
func (c *Calendar) DaysInMonth(year int, month Month) int {
	return DaysInMonth(year, month)
}

// IsLeapYear reports whether the Hebrew year is a leap year.
func (c *Calendar) IsLeapYear(year int) bool {
	return IsLeapYear(year)
}

// Sunset returns sunset on d at the calendar's location, in its time zone.
func (c *Calendar) Sunset(d CivilDate) (time.Time, error) {
	_, set := sunrise.SunriseSunset(c.loc.Latitude, c.loc.Longitude, d.Year, d.Month, d.Day)
	if set.IsZero() {
		return time.Time{}, fmt.Errorf("no sunset at %s on %s", c.loc.Name, d)
	}
	return set.In(c.loc.TimeZone), nil
}

// IsRoshChodesh reports whether d is Rosh Chodesh.
func (c *Calendar) IsRoshChodesh(d CivilDate) bool {
	return IsRoshChodesh(ToHebrew(d))
}

// IsYomTov reports whether d carries any festival designation.
func (c *Calendar) IsYomTov(d CivilDate) bool {
	return IsYomTov(ToHebrew(d))
}

// IsYomTovAssurBemelacha reports whether d is a labor-forbidden festival.
func (c *Calendar) IsYomTovAssurBemelacha(d CivilDate) bool {
	return IsYomTovAssurBemelacha(ToHebrew(d))
}

// IsCholHamoed reports whether d is an intermediate festival day.
func (c *Calendar) IsCholHamoed(d CivilDate) bool {
	return IsCholHamoed(ToHebrew(d))
}

// IsChanukah reports whether d is a day of Chanukah.
func (c *Calendar) IsChanukah(d CivilDate) bool {
	return IsChanukah(ToHebrew(d))
}

// IsAssurBemelacha reports whether labor is forbidden on d.
func (c *Calendar) IsAssurBemelacha(d CivilDate) bool {
	return IsAssurBemelacha(d.Weekday(), ToHebrew(d))
}
