// Package announce loads the general announcements shown with each week.
package announce

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

// Announcement is one message with an optional date window. A zero From or
// Until leaves that side open.
type Announcement struct {
	Text  string           `yaml:"text"`
	From  *hebrew.CivilDate `yaml:"from,omitempty"`
	Until *hebrew.CivilDate `yaml:"until,omitempty"`
}

// ActiveOn reports whether the announcement applies on d. Both ends are
// inclusive.
func (a Announcement) ActiveOn(d hebrew.CivilDate) bool {
	if a.From != nil && d.Before(*a.From) {
		return false
	}
	if a.Until != nil && a.Until.Before(d) {
		return false
	}
	return true
}

// List is the announcements file.
type List struct {
	Announcements []Announcement `yaml:"announcements"`
}

// Load reads the announcements file. A missing file is an empty list.
func Load(path string) (*List, error) {
	if path == "" {
		return &List{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &List{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read announcements: %w", err)
	}

	return Parse(data)
}

// Parse decodes announcements YAML. Entries without text are rejected.
func Parse(data []byte) (*List, error) {
	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse announcements: %w", err)
	}

	for i, a := range list.Announcements {
		if strings.TrimSpace(a.Text) == "" {
			return nil, fmt.Errorf("announcement %d: text is required", i+1)
		}
		if a.From != nil && a.Until != nil && a.Until.Before(*a.From) {
			return nil, fmt.Errorf("announcement %d: until %s is before from %s", i+1, a.Until, a.From)
		}
	}
	return &list, nil
}

// Active returns the texts that apply on d, in file order. The result is
// never nil.
func (l *List) Active(on hebrew.CivilDate) []string {
	out := []string{}
	if l == nil {
		return out
	}
	for _, a := range l.Announcements {
		if a.ActiveOn(on) {
			out = append(out, strings.TrimSpace(a.Text))
		}
	}
	return out
}
