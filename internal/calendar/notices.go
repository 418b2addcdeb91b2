package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Service is a prayer service.
type Service string

const (
	Mincha    Service = "mincha"
	Maariv    Service = "maariv"
	Shacharit Service = "shacharit"
)

// ParseService parses a service name. Matching is case-insensitive and
// accepts the Ashkenazi spelling "shacharis".
func ParseService(s string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mincha":
		return Mincha, nil
	case "maariv":
		return Maariv, nil
	case "shacharit", "shacharis":
		return Shacharit, nil
	}
	return "", fmt.Errorf("unknown service %q", s)
}

// Liturgical insertions and omissions.
const (
	NoticeHamelechHakadosh = "המלך הקדוש"
	NoticeTeshuvaInserts   = "זכרנו, מי כמוך, וכתוב, ובספר חיים"
	NoticeYaaleVyavo       = "יעלה ויבא"
	NoticeAlHanissim       = "על הניסים"
	NoticeLeDavid          = "לדוד"
	NoticeMashivHaruach    = "משיב הרוח (first 30 days)"
	NoticeVihiNoam         = "ויהי נועם (Yom Tov this week)"
)

// mashivHaruachDays is how long the Mashiv Haruach reminder stays up after
// Simchat Torah.
const mashivHaruachDays = 30

// NoticeSet is a set of notices that remembers insertion order for display.
// The zero value is not usable; create one with NewNoticeSet.
type NoticeSet struct {
	items []string
	seen  map[string]struct{}
}

// NewNoticeSet creates a set holding the given notices.
func NewNoticeSet(items ...string) *NoticeSet {
	s := &NoticeSet{seen: make(map[string]struct{})}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts a notice. Adding a notice twice has no effect.
func (s *NoticeSet) Add(item string) {
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}

// Has reports whether the notice is in the set.
func (s *NoticeSet) Has(item string) bool {
	_, ok := s.seen[item]
	return ok
}

// Len returns the number of notices.
func (s *NoticeSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the notices in insertion order.
func (s *NoticeSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// MarshalJSON renders the set as a JSON array, never null.
func (s *NoticeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// UnmarshalJSON reads a JSON array of notices.
func (s *NoticeSet) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*s = *NewNoticeSet(items...)
	return nil
}

// MarshalYAML renders the set as a YAML sequence.
func (s *NoticeSet) MarshalYAML() (interface{}, error) {
	return s.Items(), nil
}

// Notices are the insertions and omissions for one service.
type Notices struct {
	Additions *NoticeSet `json:"additions" yaml:"additions"`
	Omissions *NoticeSet `json:"omissions" yaml:"omissions"`
}

// Compose returns the liturgical insertions for service s on civil date d.
// Maariv belongs to the following Hebrew day, so it is evaluated on d+1.
func (e *Engine) Compose(d hebrew.CivilDate, s Service) Notices {
	ref := d
	if s == Maariv {
		ref = d.AddDays(1)
	}
	heb := e.oracle.ToHebrew(ref)

	n := Notices{Additions: NewNoticeSet(), Omissions: NewNoticeSet()}

	if heb.Month == hebrew.Tishrei && heb.Day >= 3 && heb.Day <= 9 {
		n.Additions.Add(NoticeHamelechHakadosh)
		n.Additions.Add(NoticeTeshuvaInserts)
	}

	if e.oracle.IsRoshChodesh(ref) {
		n.Additions.Add(NoticeYaaleVyavo)
	}
	if e.oracle.IsYomTovAssurBemelacha(ref) || e.oracle.IsCholHamoed(ref) {
		n.Additions.Add(NoticeYaaleVyavo)
	}

	if e.oracle.IsChanukah(ref) {
		n.Additions.Add(NoticeAlHanissim)
	}

	if s == Maariv && (heb.Month == hebrew.Elul || (heb.Month == hebrew.Tishrei && heb.Day <= 21)) {
		n.Additions.Add(NoticeLeDavid)
	}

	if e.inMashivHaruachWindow(ref, heb) {
		n.Additions.Add(NoticeMashivHaruach)
	}

	return n
}

// inMashivHaruachWindow reports whether ref is within 30 days of the most
// recent Simchat Torah.
func (e *Engine) inMashivHaruachWindow(ref hebrew.CivilDate, heb hebrew.Date) bool {
	start := e.oracle.FromHebrew(hebrew.Date{Year: heb.Year, Month: hebrew.Tishrei, Day: 23})
	if ref.Before(start) {
		start = e.oracle.FromHebrew(hebrew.Date{Year: heb.Year - 1, Month: hebrew.Tishrei, Day: 23})
	}
	days := e.oracle.AbsoluteDay(ref) - e.oracle.AbsoluteDay(start)
	return days >= 0 && days < mashivHaruachDays
}

// VihiNoamOmitted reports whether any day after shabbat and before the next
// Saturday is labor-forbidden. Vihi Noam is then skipped at Motzei Shabbat.
func (e *Engine) VihiNoamOmitted(shabbat hebrew.CivilDate) bool {
	for d := shabbat.AddDays(1); d.Weekday() != time.Saturday; d = d.AddDays(1) {
		if e.oracle.IsAssurBemelacha(d) {
			return true
		}
	}
	return false
}
