package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// moladBefore returns a stub molad that lies the given duration before
// nightfall on shabbat, whatever month is asked for.
func moladBefore(shabbat hebrew.CivilDate, d time.Duration) func(int, hebrew.Month) time.Time {
	return func(int, hebrew.Month) time.Time {
		return fixedNightfall(shabbat).Add(-d)
	}
}

func TestKiddushLevana_Boundaries(t *testing.T) {
	// 4 Tevet 5785: no festival, not Tishrei, not the Nine Days.
	shabbat := date(t, "2025-01-04")

	tests := []struct {
		name       string
		sinceMolad time.Duration
		canSay     bool
		reason     string
	}{
		{"exactly 72 hours", 72 * time.Hour, true, ""},
		{"71 hours 59 minutes", 71*time.Hour + 59*time.Minute, false, "too early"},
		{"exactly 354 hours", 354 * time.Hour, true, ""},
		{"354 hours and one second", 354*time.Hour + time.Second, false, "too late"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			stub.molad = moladBefore(shabbat, tt.sinceMolad)
			engine := setupEngine(t, stub)

			got, err := engine.KiddushLevana(shabbat)
			if err != nil {
				t.Fatalf("KiddushLevana: %v", err)
			}
			if got.CanSayTonight != tt.canSay {
				t.Errorf("CanSayTonight = %v, want %v", got.CanSayTonight, tt.canSay)
			}
			if tt.reason != "" && !strings.Contains(got.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to mention %q", got.Reason, tt.reason)
			}

			wantDeadline := fixedNightfall(shabbat).Add(-tt.sinceMolad).Add(354 * time.Hour)
			if got.LastTimeToSay == nil || !got.LastTimeToSay.Equal(wantDeadline) {
				t.Errorf("LastTimeToSay = %v, want %v", got.LastTimeToSay, wantDeadline)
			}
		})
	}
}

func TestKiddushLevana_Flags(t *testing.T) {
	shabbat := date(t, "2025-01-04")

	tests := []struct {
		name       string
		sinceMolad time.Duration
		ideal      bool
		lastChance bool
		lastMotzei bool
	}{
		// Deadline is 254 hours after nightfall: next week is still open.
		{"early in the month", 100 * time.Hour, false, false, false},
		// Deadline is 186 hours after nightfall: next Motzei Shabbat is too.
		{"ideal from seven days", 168 * time.Hour, true, false, false},
		// Deadline is 154 hours after nightfall: tonight is the last Motzei Shabbat.
		{"last motzei shabbos", 200 * time.Hour, true, false, true},
		// Deadline is 14 hours after nightfall: tomorrow night is too late.
		{"last chance", 340 * time.Hour, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			stub.molad = moladBefore(shabbat, tt.sinceMolad)
			engine := setupEngine(t, stub)

			got, err := engine.KiddushLevana(shabbat)
			if err != nil {
				t.Fatalf("KiddushLevana: %v", err)
			}
			if !got.CanSayTonight {
				t.Fatalf("CanSayTonight = false, reason %q", got.Reason)
			}
			if got.IsIdealTime == nil || *got.IsIdealTime != tt.ideal {
				t.Errorf("IsIdealTime = %v, want %v", got.IsIdealTime, tt.ideal)
			}
			if got.LastChance == nil || *got.LastChance != tt.lastChance {
				t.Errorf("LastChance = %v, want %v", got.LastChance, tt.lastChance)
			}
			if got.LastMotzeiShabbos == nil || *got.LastMotzeiShabbos != tt.lastMotzei {
				t.Errorf("LastMotzeiShabbos = %v, want %v", got.LastMotzeiShabbos, tt.lastMotzei)
			}

			wantDeadline := fixedNightfall(shabbat).Add(-tt.sinceMolad).Add(354 * time.Hour)
			if got.LastTimeToSay == nil || !got.LastTimeToSay.Equal(wantDeadline) {
				t.Errorf("LastTimeToSay = %v, want %v", got.LastTimeToSay, wantDeadline)
			}
		})
	}
}

func TestKiddushLevana_SeasonalRules(t *testing.T) {
	tests := []struct {
		name       string
		shabbat    string
		sinceMolad time.Duration
		canSay     bool
		reason     string
		lastMotzei bool
	}{
		{"nine days", "2025-08-02", 200 * time.Hour, false, ReasonNineDays, false},
		{"motzei yom tov", "2024-10-19", 180 * time.Hour, true, ReasonMotzeiYomTov, false},
		{"aseret yemei teshuva with time to spare", "2024-10-05", 100 * time.Hour, false, ReasonTishreiCustom, false},
		{"aseret yemei teshuva on the last motzei shabbat", "2024-10-05", 200 * time.Hour, true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shabbat := date(t, tt.shabbat)
			stub := newStub()
			stub.molad = moladBefore(shabbat, tt.sinceMolad)
			engine := setupEngine(t, stub)

			got, err := engine.KiddushLevana(shabbat)
			if err != nil {
				t.Fatalf("KiddushLevana: %v", err)
			}
			if got.CanSayTonight != tt.canSay {
				t.Errorf("CanSayTonight = %v, want %v", got.CanSayTonight, tt.canSay)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
			if tt.lastMotzei && (got.LastMotzeiShabbos == nil || !*got.LastMotzeiShabbos) {
				t.Errorf("LastMotzeiShabbos = %v, want true", got.LastMotzeiShabbos)
			}
		})
	}
}

func TestKiddushLevana_MotzeiYomTovIdealTime(t *testing.T) {
	shabbat := date(t, "2024-10-19")
	stub := newStub()
	stub.molad = moladBefore(shabbat, 100*time.Hour)
	engine := setupEngine(t, stub)

	got, err := engine.KiddushLevana(shabbat)
	if err != nil {
		t.Fatalf("KiddushLevana: %v", err)
	}
	if got.IsIdealTime == nil || *got.IsIdealTime {
		t.Errorf("IsIdealTime = %v, want false", got.IsIdealTime)
	}
}

func TestKiddushLevana_SunsetError(t *testing.T) {
	stub := newStub()
	stub.sunset = func(hebrew.CivilDate) (time.Time, error) { return time.Time{}, errNoSunset }
	engine := setupEngine(t, stub)

	_, err := engine.KiddushLevana(date(t, "2025-01-04"))
	if !errors.Is(err, errNoSunset) {
		t.Errorf("KiddushLevana error = %v, want %v", err, errNoSunset)
	}
}

func TestKiddushLevana_RecomputedPerShabbat(t *testing.T) {
	engine := setupEngine(t, newStub())

	// Real molad of Tevet 5785 falls on 2024-12-31.
	inWindow, err := engine.KiddushLevana(date(t, "2025-01-11"))
	if err != nil {
		t.Fatalf("KiddushLevana: %v", err)
	}
	pastWindow, err := engine.KiddushLevana(date(t, "2025-01-25"))
	if err != nil {
		t.Fatalf("KiddushLevana: %v", err)
	}

	if !inWindow.CanSayTonight {
		t.Errorf("2025-01-11: CanSayTonight = false (%s), want true", inWindow.Reason)
	}
	if pastWindow.CanSayTonight || !strings.Contains(pastWindow.Reason, "too late") {
		t.Errorf("2025-01-25: got %+v, want too late", pastWindow)
	}
}
