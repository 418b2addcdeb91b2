package calendar

import (
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Occasion names why a day is special. Supplicatory prayers (Tachanun,
// Tzidkatcha, El Maleh Rachamim) are omitted on these days.
type Occasion string

const (
	OccasionNone                 Occasion = ""
	OccasionRoshChodesh          Occasion = "Rosh Chodesh"
	OccasionErevRoshChodesh      Occasion = "Erev Rosh Chodesh"
	OccasionErevRoshHashana      Occasion = "Erev Rosh Hashana"
	OccasionRoshHashana          Occasion = "Rosh Hashana"
	OccasionErevYomKippur        Occasion = "Erev Yom Kippur"
	OccasionYomKippur            Occasion = "Yom Kippur"
	OccasionBeforeSuccos         Occasion = "Between Yom Kippur and Succos"
	OccasionSuccos               Occasion = "Succos"
	OccasionSheminiAtzeret       Occasion = "Shemini Atzeret"
	OccasionSimchasTorah         Occasion = "Simchas Torah"
	OccasionIsruChag             Occasion = "Isru Chag"
	OccasionMonthOfTishrei       Occasion = "Month of Tishrei"
	OccasionChanukah             Occasion = "Chanukah"
	OccasionTuBShvat             Occasion = "Tu B'Shvat"
	OccasionPurimKatan           Occasion = "Purim Katan"
	OccasionPurim                Occasion = "Purim"
	OccasionShushanPurim         Occasion = "Shushan Purim"
	OccasionMonthOfNissan        Occasion = "Month of Nissan"
	OccasionPesachSheini         Occasion = "Pesach Sheini"
	OccasionLagBOmer             Occasion = "Lag B'Omer"
	OccasionSivanBeforeShavuos   Occasion = "Sivan before Shavuos"
	OccasionTishaBAv             Occasion = "Tisha B'Av"
	OccasionTuBAv                Occasion = "Tu B'Av"
	OccasionYomTov               Occasion = "Yom Tov"
)

// SpecialDay is the result of classifying a date.
type SpecialDay struct {
	IsSpecial bool     `json:"isSpecial" yaml:"isSpecial"`
	Reason    Occasion `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// dayFacts is what a rule gets to look at.
type dayFacts struct {
	civil  hebrew.CivilDate
	heb    hebrew.Date
	leap   bool
	oracle Oracle
}

type occasionRule struct {
	occasion Occasion
	matches  func(f dayFacts) bool
}

// occasionRules are evaluated top to bottom; the first match wins, so
// earlier entries take precedence where ranges overlap.
var occasionRules = []occasionRule{
	{OccasionRoshChodesh, func(f dayFacts) bool { return f.oracle.IsRoshChodesh(f.civil) }},
	{OccasionErevRoshChodesh, func(f dayFacts) bool { return f.oracle.IsRoshChodesh(f.civil.AddDays(1)) }},

	// Tishrei and the end of Elul.
	{OccasionErevRoshHashana, on(hebrew.Elul, 29)},
	{OccasionRoshHashana, between(hebrew.Tishrei, 1, 2)},
	{OccasionErevYomKippur, on(hebrew.Tishrei, 9)},
	{OccasionYomKippur, on(hebrew.Tishrei, 10)},
	{OccasionBeforeSuccos, between(hebrew.Tishrei, 11, 14)},
	{OccasionSuccos, between(hebrew.Tishrei, 15, 21)},
	{OccasionSheminiAtzeret, on(hebrew.Tishrei, 22)},
	{OccasionSimchasTorah, on(hebrew.Tishrei, 23)},
	{OccasionIsruChag, on(hebrew.Tishrei, 24)},
	{OccasionMonthOfTishrei, between(hebrew.Tishrei, 25, 29)},

	// Winter.
	{OccasionChanukah, isChanukah},
	{OccasionTuBShvat, on(hebrew.Shevat, 15)},
	{OccasionPurimKatan, func(f dayFacts) bool {
		return f.leap && f.heb.Month == hebrew.Adar && (f.heb.Day == 14 || f.heb.Day == 15)
	}},
	{OccasionPurim, func(f dayFacts) bool {
		return f.heb.Month == purimMonth(f.leap) && f.heb.Day == 14
	}},
	{OccasionShushanPurim, func(f dayFacts) bool {
		return f.heb.Month == purimMonth(f.leap) && f.heb.Day == 15
	}},

	// Spring and summer.
	{OccasionMonthOfNissan, func(f dayFacts) bool { return f.heb.Month == hebrew.Nisan }},
	{OccasionPesachSheini, on(hebrew.Iyar, 14)},
	{OccasionLagBOmer, on(hebrew.Iyar, 18)},
	{OccasionSivanBeforeShavuos, between(hebrew.Sivan, 1, 7)},
	{OccasionTishaBAv, on(hebrew.Av, 9)},
	{OccasionTuBAv, on(hebrew.Av, 15)},

	// Fallbacks to the oracle's own designations.
	{OccasionYomTov, func(f dayFacts) bool { return f.oracle.IsYomTov(f.civil) }},
	{OccasionChanukah, func(f dayFacts) bool { return f.oracle.IsChanukah(f.civil) }},
}

func on(month hebrew.Month, day int) func(dayFacts) bool {
	return func(f dayFacts) bool {
		return f.heb.Month == month && f.heb.Day == day
	}
}

func between(month hebrew.Month, from, to int) func(dayFacts) bool {
	return func(f dayFacts) bool {
		return f.heb.Month == month && f.heb.Day >= from && f.heb.Day <= to
	}
}

// isChanukah covers 25 Kislev through 2 Tevet, and 3 Tevet only when Kislev
// has 30 days. Other Chanukah days are left to the oracle fallbacks.
func isChanukah(f dayFacts) bool {
	switch {
	case f.heb.Month == hebrew.Kislev:
		return f.heb.Day >= 25
	case f.heb.Month == hebrew.Tevet && f.heb.Day <= 2:
		return true
	case f.heb.Month == hebrew.Tevet && f.heb.Day == 3:
		return f.oracle.DaysInMonth(f.heb.Year, hebrew.Kislev) == 30
	}
	return false
}

func purimMonth(leap bool) hebrew.Month {
	if leap {
		return hebrew.AdarII
	}
	return hebrew.Adar
}

// Classify reports whether d is a day on which supplicatory prayers are
// omitted, and the first occasion that makes it so.
func (e *Engine) Classify(d hebrew.CivilDate) SpecialDay {
	heb := e.oracle.ToHebrew(d)
	f := dayFacts{
		civil:  d,
		heb:    heb,
		leap:   e.oracle.IsLeapYear(heb.Year),
		oracle: e.oracle,
	}

	for _, rule := range occasionRules {
		if rule.matches(f) {
			return SpecialDay{IsSpecial: true, Reason: rule.occasion}
		}
	}
	return SpecialDay{}
}
