package calendar

import (
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Oracle answers the Hebrew-calendar questions the rule engine asks.
// *hebrew.Calendar satisfies it; tests substitute stubs.
type Oracle interface {
	ToHebrew(d hebrew.CivilDate) hebrew.Date
	FromHebrew(d hebrew.Date) hebrew.CivilDate
	AbsoluteDay(d hebrew.CivilDate) int64
	ParshaIndex(d hebrew.CivilDate) int
	Sunset(d hebrew.CivilDate) (time.Time, error)
	Molad(year int, month hebrew.Month) time.Time
	DaysInMonth(year int, month hebrew.Month) int
	IsLeapYear(year int) bool

	IsRoshChodesh(d hebrew.CivilDate) bool
	IsYomTov(d hebrew.CivilDate) bool
	IsYomTovAssurBemelacha(d hebrew.CivilDate) bool
	IsCholHamoed(d hebrew.CivilDate) bool
	IsChanukah(d hebrew.CivilDate) bool
	IsAssurBemelacha(d hebrew.CivilDate) bool
}

var _ Oracle = (*hebrew.Calendar)(nil)
