package hebrew

import "time"

// Festival predicates follow diaspora practice (two-day Yom Tov).

// IsRoshChodesh reports whether d is Rosh Chodesh: the 30th of a month or
// the 1st of any month except Tishrei (which is Rosh Hashana).
func IsRoshChodesh(d Date) bool {
	return d.Day == 30 || (d.Day == 1 && d.Month != Tishrei)
}

// IsYomTovAssurBemelacha reports whether d is a festival on which labor is
// forbidden: Pesach, Shavuot, Rosh Hashana, Yom Kippur, Sukkot, Shemini
// Atzeret and Simchat Torah.
func IsYomTovAssurBemelacha(d Date) bool {
	switch d.Month {
	case Nisan:
		return d.Day == 15 || d.Day == 16 || d.Day == 21 || d.Day == 22
	case Sivan:
		return d.Day == 6 || d.Day == 7
	case Tishrei:
		switch d.Day {
		case 1, 2, 10, 15, 16, 22, 23:
			return true
		}
	}
	return false
}

// IsCholHamoed reports whether d is an intermediate festival day.
// Hoshana Rabba (21 Tishrei) is included.
func IsCholHamoed(d Date) bool {
	switch d.Month {
	case Nisan:
		return d.Day >= 17 && d.Day <= 20
	case Tishrei:
		return d.Day >= 17 && d.Day <= 21
	}
	return false
}

// IsChanukah reports whether d is one of the eight days starting 25 Kislev.
func IsChanukah(d Date) bool {
	if d.Month != Kislev && d.Month != Tevet {
		return false
	}
	start := rdFromHebrew(Date{Year: d.Year, Month: Kislev, Day: 25})
	offset := rdFromHebrew(d) - start
	return offset >= 0 && offset < 8
}

// PurimMonth returns the month Purim is kept in: Adar II in a leap year,
// otherwise Adar.
func PurimMonth(year int) Month {
	if IsLeapYear(year) {
		return AdarII
	}
	return Adar
}

// IsPurim reports whether d is Purim (14th) or Shushan Purim (15th).
func IsPurim(d Date) bool {
	return d.Month == PurimMonth(d.Year) && (d.Day == 14 || d.Day == 15)
}

// IsPurimKatan reports whether d is the 14th or 15th of Adar I.
func IsPurimKatan(d Date) bool {
	return IsLeapYear(d.Year) && d.Month == Adar && (d.Day == 14 || d.Day == 15)
}

// IsYomTov reports whether d carries a festival designation. Besides the
// labor-forbidden festivals and Chol HaMoed this includes the minor festive
// days: Pesach Sheni, Lag BaOmer, Tu B'Av, Chanukah, Tu B'Shvat, Purim and
// Purim Katan. Fast days and Isru Chag are not included.
func IsYomTov(d Date) bool {
	switch {
	case IsYomTovAssurBemelacha(d), IsCholHamoed(d):
		return true
	case d.Month == Iyar && (d.Day == 14 || d.Day == 18):
		return true
	case d.Month == Av && d.Day == 15:
		return true
	case d.Month == Shevat && d.Day == 15:
		return true
	case IsChanukah(d), IsPurim(d), IsPurimKatan(d):
		return true
	}
	return false
}

// IsAssurBemelacha reports whether labor is forbidden on the day: Shabbat or
// a labor-forbidden festival.
func IsAssurBemelacha(weekday time.Weekday, d Date) bool {
	return weekday == time.Saturday || IsYomTovAssurBemelacha(d)
}
