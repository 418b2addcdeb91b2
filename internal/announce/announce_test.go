package announce

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
)

const sample = `
announcements:
  - text: "Kiddush sponsored by the Cohen family"
    from: 2025-01-03
    until: 2025-01-04
  - text: "Daf Yomi shiur after Maariv"
  - text: "Winter schedule begins"
    from: 2025-01-10
`

func TestActive(t *testing.T) {
	list, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		date string
		want []string
	}{
		{"2025-01-02", []string{"Daf Yomi shiur after Maariv"}},
		{"2025-01-04", []string{"Kiddush sponsored by the Cohen family", "Daf Yomi shiur after Maariv"}},
		{"2025-01-11", []string{"Daf Yomi shiur after Maariv", "Winter schedule begins"}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := hebrew.ParseCivilDate(tt.date)
			if err != nil {
				t.Fatalf("ParseCivilDate: %v", err)
			}
			if got := list.Active(d); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Active(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing text", "announcements:\n  - from: 2025-01-03\n"},
		{"reversed window", "announcements:\n  - text: x\n    from: 2025-01-10\n    until: 2025-01-03\n"},
		{"bad date", "announcements:\n  - text: x\n    from: next week\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	list, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := list.Active(hebrew.NewCivilDate(2025, 1, 3)); len(got) != 0 {
		t.Errorf("Active() = %v, want empty", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "announcements.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(list.Announcements) != 3 {
		t.Errorf("len(Announcements) = %d, want 3", len(list.Announcements))
	}
}
