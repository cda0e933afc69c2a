// Package samples persists labeled glyph rasters as JSON so drawn and
// scanned training data survives between runs. Only samples are stored;
// the network is always retrained from them.
package samples

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"glyphocr/internal/raster"

	"github.com/google/uuid"
)

// Sample sources.
const (
	SourceDrawn     = "drawn"
	SourceFont      = "font"
	SourceImage     = "image"
	SourceReference = "reference"
)

// Sample is one labeled glyph.
type Sample struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Rows      []string  `json:"rows"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Grid parses the stored rows.
func (s Sample) Grid() (*raster.Grid, error) {
	g, err := raster.ParseRows(s.Rows)
	if err != nil {
		return nil, fmt.Errorf("sample %s (%q): %w", s.ID, s.Label, err)
	}
	return g, nil
}

// Set holds at most one sample per label.
type Set struct {
	mu       sync.RWMutex
	Samples  []Sample `json:"samples"`
	FilePath string   `json:"-"`
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{Samples: make([]Sample, 0)}
}

// DefaultPath returns ~/.config/glyphocr/samples.json, creating the
// directory if needed.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	appDir := filepath.Join(configDir, "glyphocr")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return filepath.Join(appDir, "samples.json"), nil
}

// Load reads a set from a JSON file. A missing file yields an empty set
// bound to path.
func Load(path string) (*Set, error) {
	s := NewSet()
	s.FilePath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read sample set: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse sample set: %w", err)
	}
	for _, smp := range s.Samples {
		if _, err := smp.Grid(); err != nil {
			return nil, fmt.Errorf("failed to parse sample set: %w", err)
		}
	}
	return s, nil
}

// Save writes the set to its FilePath.
func (s *Set) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FilePath == "" {
		return fmt.Errorf("no file path set")
	}

	if err := os.MkdirAll(filepath.Dir(s.FilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sample set: %w", err)
	}
	if err := os.WriteFile(s.FilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write sample set: %w", err)
	}
	return nil
}

// SetFilePath sets the file path for persistence.
func (s *Set) SetFilePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilePath = path
}

// Put stores g under label, replacing any sample with the same label in
// place. The returned sample carries a fresh id.
func (s *Set) Put(label string, g *raster.Grid, source string) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(label, g, source)
}

func (s *Set) put(label string, g *raster.Grid, source string) Sample {
	smp := Sample{
		ID:        uuid.NewString(),
		Label:     label,
		Rows:      g.Rows(),
		Source:    source,
		Timestamp: time.Now(),
	}
	if i := s.indexOf(label); i >= 0 {
		s.Samples[i] = smp
	} else {
		s.Samples = append(s.Samples, smp)
	}
	return smp
}

// Merge stores every glyph of the map and returns how many were added or
// replaced. Labels are processed in sorted order.
func (s *Set) Merge(glyphs map[string]*raster.Grid, source string) int {
	labels := make([]string, 0, len(glyphs))
	for label := range glyphs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, label := range labels {
		s.put(label, glyphs[label], source)
	}
	return len(labels)
}

// MergeSet copies the samples of other into s, replacing samples with the
// same label. Ids, sources and timestamps are kept.
func (s *Set) MergeSet(other *Set) int {
	other.mu.RLock()
	incoming := append([]Sample(nil), other.Samples...)
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range incoming {
		if i := s.indexOf(smp.Label); i >= 0 {
			s.Samples[i] = smp
		} else {
			s.Samples = append(s.Samples, smp)
		}
	}
	return len(incoming)
}

// Get returns the glyph stored under label.
func (s *Set) Get(label string) (*raster.Grid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(label)
	if i < 0 {
		return nil, false
	}
	g, err := s.Samples[i].Grid()
	if err != nil {
		return nil, false
	}
	return g, true
}

// Remove deletes the sample for label and reports whether it existed.
func (s *Set) Remove(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(label)
	if i < 0 {
		return false
	}
	s.Samples = append(s.Samples[:i], s.Samples[i+1:]...)
	return true
}

// Clear removes all samples.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Samples = s.Samples[:0]
}

// Len returns the number of samples.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Samples)
}

// Labels returns the stored labels, sorted.
func (s *Set) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Label
	}
	sort.Strings(out)
	return out
}

// List returns a copy of the samples sorted by label.
func (s *Set) List() []Sample {
	s.mu.RLock()
	out := append([]Sample(nil), s.Samples...)
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Grids returns label -> glyph for every sample.
func (s *Set) Grids() (map[string]*raster.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*raster.Grid, len(s.Samples))
	for _, smp := range s.Samples {
		g, err := smp.Grid()
		if err != nil {
			return nil, err
		}
		out[smp.Label] = g
	}
	return out, nil
}

func (s *Set) indexOf(label string) int {
	for i, smp := range s.Samples {
		if smp.Label == label {
			return i
		}
	}
	return -1
}
