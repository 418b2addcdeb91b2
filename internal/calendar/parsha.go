package calendar

import (
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

const parshaPrefix = "פרשת "

// ParshaAssignment is this week's reading as displayed, and next week's
// reading for the Shabbat Mincha announcement.
type ParshaAssignment struct {
	CurrentWeekName string `json:"currentWeekName" yaml:"currentWeekName"`
	NextWeekName    string `json:"nextWeekName" yaml:"nextWeekName"`
}

// ResolveParsha names the reading for shabbat and the one after it.
func (e *Engine) ResolveParsha(shabbat hebrew.CivilDate) ParshaAssignment {
	index := e.oracle.ParshaIndex(shabbat)
	name, known := ParshaName(index)
	hasReading := known && index != hebrew.ParshaNone

	var current string
	if holiday, ok := e.HolidayName(shabbat); ok {
		if hasReading {
			current = parshaPrefix + name + " - " + holiday
		} else {
			current = holiday
		}
	} else {
		current = parshaPrefix + name
	}

	return ParshaAssignment{
		CurrentWeekName: current,
		NextWeekName:    e.nextWeekParsha(shabbat, index),
	}
}

// nextWeekParsha is the reading a week later. After Ha'azinu, and on the
// Shabbat of Sukkot, the next reading is V'Zot HaBerachah on Simchat Torah.
func (e *Engine) nextWeekParsha(shabbat hebrew.CivilDate, index int) string {
	closing, _ := ParshaName(hebrew.ParshaVezotHaberacha)
	if index == hebrew.ParshaHaazinu {
		return closing
	}

	heb := e.oracle.ToHebrew(shabbat)
	if shabbat.Weekday() == time.Saturday && heb.Month == hebrew.Tishrei && heb.Day >= 15 && heb.Day <= 21 {
		return closing
	}

	next, _ := ParshaName(e.oracle.ParshaIndex(shabbat.AddDays(7)))
	return next
}
