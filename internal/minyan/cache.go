// Package minyan keeps the cache of minyan times scraped from the
// synagogue calendar, and the job that refreshes it.
package minyan

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// NoData is shown in place of a time the cache does not have.
const NoData = "No data available for this date"

// ErrNoData is returned when the cache has no entry for a Friday.
var ErrNoData = errors.New("no minyan times for this date")

//go:embed schema.json
var fileSchema string

// Entry holds the times for one Shabbat. A nil field was not found.
type Entry struct {
	FridayMincha     *string `json:"fridayMincha"`
	ShabbatMincha    *string `json:"shabbatMincha"`
	ShabbatMaariv    *string `json:"shabbatMaariv"`
	ShabbatShacharis *string `json:"shabbatShacharis,omitempty"`
}

// Found returns how many of the times are present.
func (e Entry) Found() int {
	n := 0
	for _, f := range []*string{e.FridayMincha, e.ShabbatMincha, e.ShabbatMaariv, e.ShabbatShacharis} {
		if f != nil {
			n++
		}
	}
	return n
}

// File is the on-disk cache document, keyed by Friday date.
type File struct {
	LastUpdated *time.Time       `json:"lastUpdated"`
	Times       map[string]Entry `json:"times"`
}

// Times are the display strings for one Shabbat. Missing values are NoData.
type Times struct {
	FridayMincha     string `json:"fridayMincha" yaml:"fridayMincha"`
	ShabbatMincha    string `json:"shabbatMincha" yaml:"shabbatMincha"`
	ShabbatMaariv    string `json:"shabbatMaariv" yaml:"shabbatMaariv"`
	ShabbatShacharis string `json:"shabbatShacharis" yaml:"shabbatShacharis"`
}

// DateKey returns the cache key for a Friday. The key is built from t's own
// calendar fields, so any instant on that local day gives the same key.
func DateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ValidationError reports a cache file that does not match the schema.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid minyan cache:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// ValidateDocument checks raw cache JSON against the embedded schema.
func ValidateDocument(doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fileSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate minyan cache: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

// Store is the file-backed cache. It is safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	file File
	// gen counts in-memory changes; saved is the gen last written to or
	// read from disk. They differ while merged times are unsaved.
	gen   uint64
	saved uint64
}

// NewStore creates a store for the file at path. Nothing is read until Load.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger,
		file:   File{Times: make(map[string]Entry)},
	}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache file. A missing file leaves the store empty. An
// invalid file is rejected and the store keeps what it had.
func (s *Store) Load() error {
	_, err := s.reload(false)
	return err
}

// ReloadIfClean reads the cache file unless the store holds merged times that
// have not been saved yet, in which case it reports false and changes
// nothing. The pending save rewrites the file anyway.
func (s *Store) ReloadIfClean() (bool, error) {
	return s.reload(true)
}

// Dirty reports whether the store has changes that are not on disk.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen != s.saved
}

func (s *Store) reload(skipIfDirty bool) (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("minyan cache not found, starting empty", "path", s.path)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read minyan cache: %w", err)
	}

	if err := ValidateDocument(data); err != nil {
		return false, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return false, fmt.Errorf("decode minyan cache: %w", err)
	}
	if f.Times == nil {
		f.Times = make(map[string]Entry)
	}

	// The dirty check and the swap share one critical section so a merge
	// cannot slip in between them.
	s.mu.Lock()
	if skipIfDirty && s.gen != s.saved {
		s.mu.Unlock()
		return false, nil
	}
	s.file = f
	s.saved = s.gen
	s.mu.Unlock()

	s.logger.Debug("minyan cache loaded", "path", s.path, "entries", len(f.Times))
	return true, nil
}

// Save writes the cache with two-space indentation. The file is replaced
// atomically so readers never see a partial document.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.file, "", "  ")
	gen := s.gen
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode minyan cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".minyan-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace minyan cache: %w", err)
	}

	s.mu.Lock()
	if gen > s.saved {
		s.saved = gen
	}
	s.mu.Unlock()
	return nil
}

// Get returns the entry for a Friday key, or ErrNoData.
func (s *Store) Get(key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.file.Times[key]
	if !ok {
		return Entry{}, ErrNoData
	}
	return e, nil
}

// Lookup returns display times for a Friday key. It never fails: anything
// missing reads NoData.
func (s *Store) Lookup(key string) Times {
	e, err := s.Get(key)
	if err != nil {
		return Times{FridayMincha: NoData, ShabbatMincha: NoData, ShabbatMaariv: NoData, ShabbatShacharis: NoData}
	}
	return Times{
		FridayMincha:     orNoData(e.FridayMincha),
		ShabbatMincha:    orNoData(e.ShabbatMincha),
		ShabbatMaariv:    orNoData(e.ShabbatMaariv),
		ShabbatShacharis: orNoData(e.ShabbatShacharis),
	}
}

func orNoData(s *string) string {
	if s == nil || *s == "" {
		return NoData
	}
	return *s
}

// Merge folds fresh values into the entry for key. Fields that are nil in
// fresh keep their previous value; entries are never removed.
func (s *Store) Merge(key string, fresh Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.file.Times[key]
	if fresh.FridayMincha != nil {
		cur.FridayMincha = fresh.FridayMincha
	}
	if fresh.ShabbatMincha != nil {
		cur.ShabbatMincha = fresh.ShabbatMincha
	}
	if fresh.ShabbatMaariv != nil {
		cur.ShabbatMaariv = fresh.ShabbatMaariv
	}
	if fresh.ShabbatShacharis != nil {
		cur.ShabbatShacharis = fresh.ShabbatShacharis
	}
	s.file.Times[key] = cur
	s.gen++
}

// Touch sets lastUpdated.
func (s *Store) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t = t.UTC()
	s.file.LastUpdated = &t
	s.gen++
}

// Snapshot returns a copy of the cache document.
func (s *Store) Snapshot() File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := File{Times: make(map[string]Entry, len(s.file.Times))}
	if s.file.LastUpdated != nil {
		t := *s.file.LastUpdated
		out.LastUpdated = &t
	}
	for k, v := range s.file.Times {
		out.Times[k] = v
	}
	return out
}
