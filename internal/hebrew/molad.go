package hebrew

import "time"

// moladOffsetParts places the first molad (BaHaRaD, 5 hours 204 parts into
// the night before 1 Tishrei AM 1) relative to midnight of the epoch.
const moladOffsetParts = -876

// jerusalemLongitude is the meridian of the mean local time the molad is
// announced in.
const jerusalemLongitude = 35.2354

// Molad returns the mean conjunction that begins the given Hebrew month,
// as an instant in UTC.
func Molad(year int, month Month) time.Time {
	y := year
	if month < Tishrei {
		y++
	}
	monthsElapsed := int64(month-Tishrei) + monthsBefore(y)

	parts := monthsElapsed*partsPerMonth + moladOffsetParts
	days := floorDiv(parts, partsPerDay)
	dayParts := parts - days*partsPerDay

	midnight := time.Unix((hebrewEpoch+days-unixEpochRD)*86400, 0).UTC()
	// One part (chelek) is 10/3 seconds.
	local := midnight.Add(time.Duration(dayParts * 10 * int64(time.Second) / 3))

	return local.Add(-jerusalemMeanOffset())
}

// jerusalemMeanOffset is the difference between Jerusalem mean local time and UTC.
func jerusalemMeanOffset() time.Duration {
	return time.Duration(jerusalemLongitude * 4 * float64(time.Minute))
}
