package hebrew

import "time"

// Weekly reading numbers. 1..54 are the single parshiyot from Bereshit to
// V'Zot HaBerachah; the joined readings follow.
const (
	ParshaNone           = 0
	ParshaBereshit       = 1
	ParshaVayakhel       = 22
	ParshaPekudei        = 23
	ParshaTzav           = 25
	ParshaShemini        = 26
	ParshaTazria         = 27
	ParshaMetzora        = 28
	ParshaAchareiMot     = 29
	ParshaKedoshim       = 30
	ParshaBehar          = 32
	ParshaBechukotai     = 33
	ParshaChukat         = 39
	ParshaBalak          = 40
	ParshaMatot          = 42
	ParshaMasei          = 43
	ParshaDevarim        = 44
	ParshaVaetchanan     = 45
	ParshaNitzavim       = 51
	ParshaVayelech       = 52
	ParshaHaazinu        = 53
	ParshaVezotHaberacha = 54

	ParshaVayakhelPekudei    = 55
	ParshaTazriaMetzora      = 56
	ParshaAchareiMotKedoshim = 57
	ParshaBeharBechukotai    = 58
	ParshaChukatBalak        = 59
	ParshaMatotMasei         = 60
	ParshaNitzavimVayelech   = 61
)

// joinable is a pair of parshiyot that may be read together.
type joinable struct {
	first, second, joined int
}

var (
	joinVayakhelPekudei = joinable{ParshaVayakhel, ParshaPekudei, ParshaVayakhelPekudei}
	joinTazriaMetzora   = joinable{ParshaTazria, ParshaMetzora, ParshaTazriaMetzora}
	joinAchareiKedoshim = joinable{ParshaAchareiMot, ParshaKedoshim, ParshaAchareiMotKedoshim}
	joinBeharBechukotai = joinable{ParshaBehar, ParshaBechukotai, ParshaBeharBechukotai}
	joinChukatBalak     = joinable{ParshaChukat, ParshaBalak, ParshaChukatBalak}
	joinMatotMasei      = joinable{ParshaMatot, ParshaMasei, ParshaMatotMasei}

	// Pairs joined after Pesach, in the order they give up a Shabbat.
	commonYearJoinOrder = []joinable{joinTazriaMetzora, joinAchareiKedoshim, joinBeharBechukotai, joinMatotMasei, joinChukatBalak}
	leapYearJoinOrder   = []joinable{joinMatotMasei, joinChukatBalak, joinBeharBechukotai, joinAchareiKedoshim}
)

// ParshaIndex returns the weekly reading for a Saturday in the diaspora.
// It returns ParshaNone for weekdays and for Saturdays that are festival days.
func ParshaIndex(d CivilDate) int {
	rd := d.RD()
	if weekdayOfRD(rd) != time.Saturday {
		return ParshaNone
	}
	schedule := yearSchedule(hebrewFromRD(rd).Year)
	return schedule[rd]
}

// yearSchedule assigns a reading to every Saturday from 1 Tishrei of year
// up to the next Rosh Hashana.
func yearSchedule(year int) map[int64]int {
	rh := newYear(year)
	nextRH := newYear(year + 1)
	leap := IsLeapYear(year)

	simchatTorah := rh + 22
	pesach := rdFromHebrew(Date{Year: year, Month: Nisan, Day: 15})
	devarim := saturdayOnOrBefore(rdFromHebrew(Date{Year: year, Month: Av, Day: 9}))

	schedule := make(map[int64]int)
	var tishrei, prePesach, postPesach, summer []int64

	for sat := saturdayOnOrAfter(rh); sat < nextRH; sat += 7 {
		if isFestivalSaturday(sat) {
			schedule[sat] = ParshaNone
			continue
		}
		switch {
		case sat <= simchatTorah:
			tishrei = append(tishrei, sat)
		case sat < pesach:
			prePesach = append(prePesach, sat)
		case sat < devarim:
			postPesach = append(postPesach, sat)
		default:
			summer = append(summer, sat)
		}
	}

	// Shabbat Shuva reads Vayelech only when Nitzavim stood alone before
	// Rosh Hashana, which happens when Rosh Hashana falls on Monday or Tuesday.
	var fall []int
	switch weekdayOfRD(rh) {
	case time.Monday, time.Tuesday:
		fall = []int{ParshaVayelech, ParshaHaazinu}
	default:
		fall = []int{ParshaHaazinu}
	}
	assign(schedule, tishrei, fall)

	winter := sequence(ParshaBereshit, ParshaTzav)
	if leap {
		winter = sequence(ParshaBereshit, ParshaBereshit+len(prePesach)-1)
	} else if len(prePesach) < len(winter) {
		winter = join(winter, joinVayakhelPekudei)
	}
	assign(schedule, prePesach, winter)

	next := ParshaShemini
	if len(winter) > 0 {
		next = lastSingle(winter[len(winter)-1]) + 1
	}
	spring := sequence(next, ParshaMasei)
	order := commonYearJoinOrder
	if leap {
		order = leapYearJoinOrder
	}
	for _, pair := range order {
		if len(spring) <= len(postPesach) {
			break
		}
		if contains(spring, pair.first) && contains(spring, pair.second) {
			spring = join(spring, pair)
		}
	}
	assign(schedule, postPesach, spring)

	closing := sequence(ParshaDevarim, ParshaNitzavim)
	switch weekdayOfRD(nextRH) {
	case time.Thursday, time.Saturday:
		closing[len(closing)-1] = ParshaNitzavimVayelech
	}
	assign(schedule, summer, closing)

	return schedule
}

// isFestivalSaturday reports whether the Saturday's reading is displaced by
// a festival reading.
func isFestivalSaturday(rd int64) bool {
	d := hebrewFromRD(rd)
	return IsYomTovAssurBemelacha(d) || IsCholHamoed(d)
}

func assign(schedule map[int64]int, saturdays []int64, readings []int) {
	for i, sat := range saturdays {
		if i < len(readings) {
			schedule[sat] = readings[i]
			continue
		}
		schedule[sat] = ParshaNone
	}
}

func sequence(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, p)
	}
	return out
}

func join(readings []int, pair joinable) []int {
	out := make([]int, 0, len(readings))
	for i := 0; i < len(readings); i++ {
		if readings[i] == pair.first && i+1 < len(readings) && readings[i+1] == pair.second {
			out = append(out, pair.joined)
			i++
			continue
		}
		out = append(out, readings[i])
	}
	return out
}

func contains(readings []int, p int) bool {
	for _, r := range readings {
		if r == p {
			return true
		}
	}
	return false
}

// lastSingle maps a joined reading to the second parsha it contains.
func lastSingle(p int) int {
	for _, pair := range []joinable{joinVayakhelPekudei, joinTazriaMetzora, joinAchareiKedoshim,
		joinBeharBechukotai, joinChukatBalak, joinMatotMasei} {
		if pair.joined == p {
			return pair.second
		}
	}
	return p
}
