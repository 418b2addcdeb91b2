package calendar

import (
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// HolidayGeneric is shown for every other day the oracle calls Yom Tov,
// Chanukah and Purim included.
const HolidayGeneric = "יום טוב"

type holidayRange struct {
	month    hebrew.Month
	from, to int
	name     string
}

// holidayNames is a first-match table of festival display names.
var holidayNames = []holidayRange{
	{hebrew.Tishrei, 1, 2, "ראש השנה"},
	{hebrew.Tishrei, 10, 10, "יום כפור"},
	{hebrew.Tishrei, 15, 15, "סוכות - יום ראשון"},
	{hebrew.Tishrei, 21, 21, "הושענא רבה"},
	{hebrew.Tishrei, 16, 20, "חול המועד סוכות"},
	{hebrew.Tishrei, 22, 22, "שמיני עצרת"},
	{hebrew.Tishrei, 23, 23, "שמחת תורה"},
	{hebrew.Nisan, 15, 15, "פסח - ליל הסדר"},
	{hebrew.Nisan, 16, 16, "פסח - יום ראשון"},
	{hebrew.Nisan, 17, 20, "חול המועד פסח"},
	{hebrew.Nisan, 21, 21, "שביעי של פסח"},
	{hebrew.Nisan, 22, 22, "אחרון של פסח"},
	{hebrew.Sivan, 6, 6, "שבועות - יום ראשון"},
	{hebrew.Sivan, 7, 7, "שבועות - יום שני"},
}

// HolidayName returns the festival display name for d. It reports false
// when the oracle does not consider d a Yom Tov.
func (e *Engine) HolidayName(d hebrew.CivilDate) (string, bool) {
	if !e.oracle.IsYomTov(d) {
		return "", false
	}

	heb := e.oracle.ToHebrew(d)
	for _, h := range holidayNames {
		if heb.Month == h.month && heb.Day >= h.from && heb.Day <= h.to {
			return h.name, true
		}
	}

	return HolidayGeneric, true
}
