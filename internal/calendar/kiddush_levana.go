package calendar

import (
	"fmt"
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// NightfallOffset is added to sunset to approximate nightfall.
const NightfallOffset = 50 * time.Minute

// Kiddush Levana is said between three and fifteen days after the molad.
// Seven days is the preferred earliest time.
const (
	kiddushLevanaEarliest = 72 * time.Hour
	kiddushLevanaIdeal    = 168 * time.Hour
	kiddushLevanaLatest   = 354 * time.Hour
)

// Reasons attached to a Kiddush Levana window.
const (
	ReasonTooEarly      = "too early: less than 3 days since the molad"
	ReasonTooLate       = "too late: more than 15 days since the molad"
	ReasonNineDays      = "not said during the Nine Days"
	ReasonMotzeiYomTov  = "Motzei Yom Tov: say the blessing only, no Psalms"
	ReasonTishreiCustom = "custom not to say during this period"
)

// KiddushLevanaWindow describes whether Kiddush Levana may be said on the
// night after a Shabbat.
type KiddushLevanaWindow struct {
	CanSayTonight     bool       `json:"canSayTonight" yaml:"canSayTonight"`
	Reason            string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	IsIdealTime       *bool      `json:"isIdealTime,omitempty" yaml:"isIdealTime,omitempty"`
	LastChance        *bool      `json:"lastChance,omitempty" yaml:"lastChance,omitempty"`
	LastMotzeiShabbos *bool      `json:"lastMotzeiShabbos,omitempty" yaml:"lastMotzeiShabbos,omitempty"`
	LastTimeToSay     *time.Time `json:"lastTimeToSay,omitempty" yaml:"lastTimeToSay,omitempty"`
}

// Nightfall returns sunset on d plus NightfallOffset.
func (e *Engine) Nightfall(d hebrew.CivilDate) (time.Time, error) {
	sunset, err := e.oracle.Sunset(d)
	if err != nil {
		return time.Time{}, fmt.Errorf("sunset for %s: %w", d, err)
	}
	return sunset.Add(NightfallOffset), nil
}

// KiddushLevana computes the window for the night following shabbat.
// Sunset and the molad are recomputed on every call.
func (e *Engine) KiddushLevana(shabbat hebrew.CivilDate) (KiddushLevanaWindow, error) {
	nightfall, err := e.Nightfall(shabbat)
	if err != nil {
		return KiddushLevanaWindow{}, err
	}

	night := hebrew.CivilDateOf(nightfall)
	heb := e.oracle.ToHebrew(night)
	molad := e.oracle.Molad(heb.Year, heb.Month)
	sinceMolad := nightfall.Sub(molad)
	lastTimeToSay := molad.Add(kiddushLevanaLatest)

	// The deadline is reported for every outcome, including the ineligible
	// ones, so callers can show when this month's window closes or closed.
	w := KiddushLevanaWindow{LastTimeToSay: &lastTimeToSay}

	switch {
	case sinceMolad < kiddushLevanaEarliest:
		w.Reason = ReasonTooEarly
		return w, nil
	case sinceMolad > kiddushLevanaLatest:
		w.Reason = ReasonTooLate
		return w, nil
	}

	if heb.Month == hebrew.Av && heb.Day <= 9 {
		w.Reason = ReasonNineDays
		return w, nil
	}

	ideal := sinceMolad >= kiddushLevanaIdeal

	if e.oracle.IsYomTov(night) {
		w.CanSayTonight = true
		w.Reason = ReasonMotzeiYomTov
		w.IsIdealTime = &ideal
		return w, nil
	}

	lastChance, lastMotzei, err := e.lastOpportunity(shabbat, lastTimeToSay)
	if err != nil {
		return KiddushLevanaWindow{}, err
	}

	if heb.Month == hebrew.Tishrei && heb.Day <= 10 && !lastChance && !lastMotzei {
		w.Reason = ReasonTishreiCustom
		return w, nil
	}

	w.CanSayTonight = true
	w.IsIdealTime = &ideal
	w.LastChance = &lastChance
	w.LastMotzeiShabbos = &lastMotzei
	return w, nil
}

// lastOpportunity reports whether tomorrow night is already past the
// deadline (last chance), or failing that whether next Motzei Shabbat is.
func (e *Engine) lastOpportunity(shabbat hebrew.CivilDate, deadline time.Time) (lastChance, lastMotzei bool, err error) {
	tomorrow, err := e.Nightfall(shabbat.AddDays(1))
	if err != nil {
		return false, false, err
	}
	nextWeek, err := e.Nightfall(shabbat.AddDays(7))
	if err != nil {
		return false, false, err
	}

	lastChance = tomorrow.After(deadline)
	lastMotzei = !lastChance && nextWeek.After(deadline)
	return lastChance, lastMotzei, nil
}
