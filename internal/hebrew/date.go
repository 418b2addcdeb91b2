package hebrew

import "fmt"

// Month is a Hebrew month number. Months are counted from Nisan, so the year
// (which starts at Tishrei) runs 7..12 (or 13) and then 1..6. In a leap year
// Adar is Adar I and AdarII follows it.
type Month int

// Hebrew months.
const (
	Nisan    Month = 1
	Iyar     Month = 2
	Sivan    Month = 3
	Tammuz   Month = 4
	Av       Month = 5
	Elul     Month = 6
	Tishrei  Month = 7
	Cheshvan Month = 8
	Kislev   Month = 9
	Tevet    Month = 10
	Shevat   Month = 11
	Adar     Month = 12
	AdarII   Month = 13
)

// Date is a day in the Hebrew calendar.
type Date struct {
	Year  int
	Month Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Arithmetic follows the fixed-day (R.D.) formulation of the arithmetic
// Hebrew calendar. Day counts are int64 throughout.
const (
	// hebrewEpoch is the fixed day of 1 Tishrei AM 1.
	hebrewEpoch int64 = -1373427

	partsPerHour  = 1080
	partsPerDay   = 24 * partsPerHour
	partsPerMonth = 29*partsPerDay + 12*partsPerHour + 793
)

// IsLeapYear reports whether the Hebrew year has thirteen months.
func IsLeapYear(year int) bool {
	return mod(7*int64(year)+1, 19) < 7
}

// MonthsInYear returns 12 or 13.
func MonthsInYear(year int) int {
	if IsLeapYear(year) {
		return 13
	}
	return 12
}

// monthsBefore counts the months from the epoch to Tishrei of year.
func monthsBefore(year int) int64 {
	return floorDiv(235*int64(year)-234, 19)
}

func elapsedDays(year int) int64 {
	months := monthsBefore(year)
	parts := 12084 + 13753*months
	days := 29*months + floorDiv(parts, partsPerDay)
	if mod(3*(days+1), 7) < 3 {
		days++
	}
	return days
}

func yearLengthCorrection(year int) int64 {
	ny0 := elapsedDays(year - 1)
	ny1 := elapsedDays(year)
	ny2 := elapsedDays(year + 1)
	switch {
	case ny2-ny1 == 356:
		return 2
	case ny1-ny0 == 382:
		return 1
	}
	return 0
}

// newYear returns the fixed day of 1 Tishrei of year.
func newYear(year int) int64 {
	return hebrewEpoch + elapsedDays(year) + yearLengthCorrection(year)
}

// DaysInYear returns the length of the Hebrew year (353..355 or 383..385).
func DaysInYear(year int) int {
	return int(newYear(year+1) - newYear(year))
}

func longCheshvan(year int) bool {
	return DaysInYear(year)%10 == 5
}

func shortKislev(year int) bool {
	return DaysInYear(year)%10 == 3
}

// DaysInMonth returns 29 or 30. Month numbers outside the year return 0.
func DaysInMonth(year int, month Month) int {
	switch {
	case month < Nisan || month > AdarII:
		return 0
	case month == AdarII && !IsLeapYear(year):
		return 0
	}
	switch month {
	case Iyar, Tammuz, Elul, Tevet, AdarII:
		return 29
	case Adar:
		if !IsLeapYear(year) {
			return 29
		}
	case Cheshvan:
		if !longCheshvan(year) {
			return 29
		}
	case Kislev:
		if shortKislev(year) {
			return 29
		}
	}
	return 30
}

func lastMonthOfYear(year int) Month {
	if IsLeapYear(year) {
		return AdarII
	}
	return Adar
}

// rdFromHebrew returns the fixed day of a Hebrew date.
func rdFromHebrew(d Date) int64 {
	rd := newYear(d.Year) + int64(d.Day) - 1
	if d.Month < Tishrei {
		for m := Tishrei; m <= lastMonthOfYear(d.Year); m++ {
			rd += int64(DaysInMonth(d.Year, m))
		}
		for m := Nisan; m < d.Month; m++ {
			rd += int64(DaysInMonth(d.Year, m))
		}
		return rd
	}
	for m := Tishrei; m < d.Month; m++ {
		rd += int64(DaysInMonth(d.Year, m))
	}
	return rd
}

// hebrewFromRD converts a fixed day to its Hebrew date.
func hebrewFromRD(rd int64) Date {
	approx := int(floorDiv((rd-hebrewEpoch)*98496, 35975351)) + 1
	year := approx - 1
	for newYear(year+1) <= rd {
		year++
	}

	month := Tishrei
	if rd >= rdFromHebrew(Date{Year: year, Month: Nisan, Day: 1}) {
		month = Nisan
	}
	for rd > rdFromHebrew(Date{Year: year, Month: month, Day: DaysInMonth(year, month)}) {
		month++
	}

	day := rd - rdFromHebrew(Date{Year: year, Month: month, Day: 1}) + 1
	return Date{Year: year, Month: month, Day: int(day)}
}

// ToHebrew converts a civil date to its Hebrew date (the daytime date;
// no sunset adjustment is made).
func ToHebrew(d CivilDate) Date {
	return hebrewFromRD(d.RD())
}

// FromHebrew converts a Hebrew date to the civil date it falls on.
func FromHebrew(d Date) CivilDate {
	return civilFromRD(rdFromHebrew(d))
}
