package calendar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// DisplayDateLayout is the English date format shown for each day.
const DisplayDateLayout = "January 2, 2006"

// Engine evaluates the liturgical rules against a calendar oracle.
// It keeps no state between calls.
type Engine struct {
	oracle Oracle
	logger *slog.Logger
}

// NewEngine creates a rule engine. A nil logger uses slog.Default().
func NewEngine(oracle Oracle, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{oracle: oracle, logger: logger}
}

// DayInfo describes one civil day of the week.
type DayInfo struct {
	Date          hebrew.CivilDate `json:"date" yaml:"date"`
	DisplayDate   string           `json:"displayDate" yaml:"displayDate"`
	HebrewDate    string           `json:"hebrewDate" yaml:"hebrewDate"`
	Sunset        time.Time        `json:"sunset" yaml:"sunset"`
	IsRoshChodesh bool             `json:"isRoshChodesh" yaml:"isRoshChodesh"`
}

// ServiceNotices groups the notices for each service of Shabbat.
type ServiceNotices struct {
	FridayMincha     Notices `json:"fridayMincha" yaml:"fridayMincha"`
	FridayMaariv     Notices `json:"fridayMaariv" yaml:"fridayMaariv"`
	ShabbatShacharit Notices `json:"shabbatShacharit" yaml:"shabbatShacharit"`
	ShabbatMincha    Notices `json:"shabbatMincha" yaml:"shabbatMincha"`
	ShabbatMaariv    Notices `json:"shabbatMaariv" yaml:"shabbatMaariv"`
}

// WeekSchedule is everything the rule engine knows about one Shabbat.
type WeekSchedule struct {
	Friday            DayInfo             `json:"friday" yaml:"friday"`
	Shabbat           DayInfo             `json:"shabbat" yaml:"shabbat"`
	Parsha            ParshaAssignment    `json:"parsha" yaml:"parsha"`
	Notices           ServiceNotices      `json:"notices" yaml:"notices"`
	SpecialDay        SpecialDay          `json:"specialDay" yaml:"specialDay"`
	SayTzidkatcha     bool                `json:"sayTzidkatcha" yaml:"sayTzidkatcha"`
	SayElMaleRachamim bool                `json:"sayElMaleRachamim" yaml:"sayElMaleRachamim"`
	KiddushLevana     KiddushLevanaWindow `json:"kiddushLevana" yaml:"kiddushLevana"`
}

// TargetWeek picks the Friday and Shabbat for a week offset. Offset 0 is
// the coming Friday (today, if today is Friday); each step moves a week.
// today is read in its own location.
func TargetWeek(today time.Time, offset int) (friday, shabbat hebrew.CivilDate) {
	d := hebrew.CivilDateOf(today)
	days := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	friday = d.AddDays(days + 7*offset)
	return friday, friday.AddDays(1)
}

// ShabbatOnOrAfter returns the first Saturday at or after d.
func ShabbatOnOrAfter(d hebrew.CivilDate) hebrew.CivilDate {
	return d.AddDays((int(time.Saturday) - int(d.Weekday()) + 7) % 7)
}

// Week assembles the full schedule for shabbat. The Friday before it is
// derived; shabbat should be a Saturday.
func (e *Engine) Week(shabbat hebrew.CivilDate) (*WeekSchedule, error) {
	if shabbat.Weekday() != time.Saturday {
		return nil, fmt.Errorf("%s is a %s, not a Saturday", shabbat, shabbat.Weekday())
	}
	friday := shabbat.AddDays(-1)

	fridayInfo, err := e.dayInfo(friday)
	if err != nil {
		return nil, err
	}
	shabbatInfo, err := e.dayInfo(shabbat)
	if err != nil {
		return nil, err
	}

	kl, err := e.KiddushLevana(shabbat)
	if err != nil {
		return nil, fmt.Errorf("kiddush levana: %w", err)
	}

	notices := ServiceNotices{
		FridayMincha:     e.Compose(friday, Mincha),
		FridayMaariv:     e.Compose(friday, Maariv),
		ShabbatShacharit: e.Compose(shabbat, Shacharit),
		ShabbatMincha:    e.Compose(shabbat, Mincha),
		ShabbatMaariv:    e.Compose(shabbat, Maariv),
	}
	if e.VihiNoamOmitted(shabbat) {
		notices.ShabbatMaariv.Omissions.Add(NoticeVihiNoam)
	}

	special := e.Classify(shabbat)

	e.logger.Debug("week schedule assembled",
		"shabbat", shabbat.String(),
		"special", special.IsSpecial,
		"reason", string(special.Reason),
		"kiddush_levana", kl.CanSayTonight,
	)

	return &WeekSchedule{
		Friday:            fridayInfo,
		Shabbat:           shabbatInfo,
		Parsha:            e.ResolveParsha(shabbat),
		Notices:           notices,
		SpecialDay:        special,
		SayTzidkatcha:     !special.IsSpecial,
		SayElMaleRachamim: !special.IsSpecial,
		KiddushLevana:     kl,
	}, nil
}

func (e *Engine) dayInfo(d hebrew.CivilDate) (DayInfo, error) {
	sunset, err := e.oracle.Sunset(d)
	if err != nil {
		return DayInfo{}, fmt.Errorf("sunset for %s: %w", d, err)
	}
	heb := e.oracle.ToHebrew(d)

	return DayInfo{
		Date:          d,
		DisplayDate:   d.Time(time.UTC).Format(DisplayDateLayout),
		HebrewDate:    FormatHebrewDate(heb, e.oracle.IsLeapYear(heb.Year)),
		Sunset:        sunset,
		IsRoshChodesh: e.oracle.IsRoshChodesh(d),
	}, nil
}
