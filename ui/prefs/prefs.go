// Package prefs stores the demo window's preferences in a JSON file.
package prefs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const prefsFile = "preferences.json"

// Keys used by the demo window.
const (
	KeyBrush        = "brush"
	KeyScale        = "scale"
	KeyShowSkeleton = "showSkeleton"
	KeyLastDir      = "lastDirectory"
	KeySamplesPath  = "samplesPath"
)

// Prefs is a key-value store backed by one file. Keys are
// case-insensitive.
type Prefs struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// Load reads preferences from ~/.config/glyphocr/preferences.json.
// Returns empty preferences if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "glyphocr", prefsFile))
}

// LoadFrom reads preferences from path. An unreadable or malformed file
// yields empty preferences that still save to path.
func LoadFrom(path string) *Prefs {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		v = viper.New()
		v.SetConfigType("json")
	}
	return &Prefs{v: v, path: path}
}

// Path returns the preferences file.
func (p *Prefs) Path() string { return p.path }

// Save writes preferences to disk, creating the directory if needed.
func (p *Prefs) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v.WriteConfigAs(p.path)
}

// Int returns an int preference, or fallback if it is unset or not a
// number.
func (p *Prefs) Int(key string, fallback int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.v.IsSet(key) {
		return fallback
	}
	n, err := cast.ToIntE(p.v.Get(key))
	if err != nil {
		return fallback
	}
	return n
}

// String returns a string preference, or "".
func (p *Prefs) String(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, _ := p.v.Get(key).(string)
	return s
}

// Bool returns a bool preference, or fallback if it is unset or not a
// bool.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.v.Get(key).(bool)
	if !ok {
		return fallback
	}
	return b
}

// SetInt stores an int preference.
func (p *Prefs) SetInt(key string, val int) { p.set(key, val) }

// SetString stores a string preference.
func (p *Prefs) SetString(key, val string) { p.set(key, val) }

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) { p.set(key, val) }

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	p.v.Set(key, val)
	p.mu.Unlock()
}
