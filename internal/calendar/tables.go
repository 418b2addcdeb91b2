package calendar

import (
	"fmt"
	"strconv"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Unknown is shown when a lookup index falls outside its table.
const Unknown = "לא ידוע"

// ParshaNone is the table entry for "no weekly reading".
const ParshaNone = "אין"

// parshaNames is indexed by the oracle's parsha number.
var parshaNames = [...]string{
	"אין", "בראשית", "נח", "לך לך", "וירא", "חיי שרה", "תולדות", "ויצא", "וישלח", "וישב", "מקץ", "ויגש", "ויחי",
	"שמות", "וארא", "בא", "בשלח", "יתרו", "משפטים", "תרומה", "תצוה", "כי תשא", "ויקהל", "פקודי", "ויקרא", "צו", "שמני",
	"תזריע", "מצרע", "אחרי מות", "קדושים", "אמר", "בהר", "בחקתי", "במדבר", "נשא", "בהעלתך", "שלח", "קרח", "חקת",
	"בלק", "פנחס", "מטות", "מסעי", "דברים", "ואתחנן", "עקב", "ראה", "שפטים", "כי תצא", "כי תבוא", "נצבים", "וילך", "האזינו", "וזאת הברכה",
}

// joinedParshiyot names the double readings by their two halves.
var joinedParshiyot = map[int][2]int{
	hebrew.ParshaVayakhelPekudei:    {hebrew.ParshaVayakhel, hebrew.ParshaPekudei},
	hebrew.ParshaTazriaMetzora:      {hebrew.ParshaTazria, hebrew.ParshaMetzora},
	hebrew.ParshaAchareiMotKedoshim: {hebrew.ParshaAchareiMot, hebrew.ParshaKedoshim},
	hebrew.ParshaBeharBechukotai:    {hebrew.ParshaBehar, hebrew.ParshaBechukotai},
	hebrew.ParshaChukatBalak:        {hebrew.ParshaChukat, hebrew.ParshaBalak},
	hebrew.ParshaMatotMasei:         {hebrew.ParshaMatot, hebrew.ParshaMasei},
	hebrew.ParshaNitzavimVayelech:   {hebrew.ParshaNitzavim, hebrew.ParshaVayelech},
}

// ParshaName returns the display name of a parsha number. The second result
// is false, and the name is Unknown, when the number is outside the table.
func ParshaName(index int) (string, bool) {
	if index >= 0 && index < len(parshaNames) {
		return parshaNames[index], true
	}
	if pair, ok := joinedParshiyot[index]; ok {
		return parshaNames[pair[0]] + "-" + parshaNames[pair[1]], true
	}
	return Unknown, false
}

var monthNames = [...]string{
	"", "ניסן", "אייר", "סיון", "תמוז", "אב", "אלול",
	"תשרי", "חשון", "כסלו", "טבת", "שבט", "אדר", "אדר ב'",
}

// MonthName returns the Hebrew name of a month. Adar is written Adar I in a
// leap year.
func MonthName(month hebrew.Month, leap bool) string {
	if month < hebrew.Nisan || int(month) >= len(monthNames) {
		return Unknown
	}
	if month == hebrew.Adar && leap {
		return "אדר א'"
	}
	return monthNames[month]
}

var hebrewNumerals = [...]string{
	"", "א'", "ב'", "ג'", "ד'", "ה'", "ו'", "ז'", "ח'", "ט'", "י'",
	`י"א`, `י"ב`, `י"ג`, `י"ד`, `ט"ו`, `ט"ז`, `י"ז`, `י"ח`, `י"ט`, "כ'",
	`כ"א`, `כ"ב`, `כ"ג`, `כ"ד`, `כ"ה`, `כ"ו`, `כ"ז`, `כ"ח`, `כ"ט`, "ל'",
}

// HebrewNumeral writes a day of the month (1..30) in Hebrew letters.
// Anything else falls back to decimal digits.
func HebrewNumeral(day int) string {
	if day >= 1 && day < len(hebrewNumerals) {
		return hebrewNumerals[day]
	}
	return strconv.Itoa(day)
}

// FormatHebrewDate renders "<day> <month> <year>", e.g. `ט"ו ניסן 5785`.
func FormatHebrewDate(d hebrew.Date, leap bool) string {
	return fmt.Sprintf("%s %s %d", HebrewNumeral(d.Day), MonthName(d.Month, leap), d.Year)
}
