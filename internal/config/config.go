// Package config loads recognizer and preprocessing settings from
// defaults, an optional config file and GLYPHOCR_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"glyphocr/internal/binarize"
	"glyphocr/internal/glyphgen"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/ocr"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// GLYPHOCR_TRAIN_LEARN_RATE.
const EnvPrefix = "GLYPHOCR"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Train mirrors kohonen.TrainOptions with the method spelled out.
type Train struct {
	LearnRate  float64 `mapstructure:"learn_rate" json:"learn_rate"`
	QuitError  float64 `mapstructure:"quit_error" json:"quit_error"`
	RateDecay  float64 `mapstructure:"rate_decay" json:"rate_decay"`
	Method     string  `mapstructure:"method" json:"method"`
	MaxRetries int     `mapstructure:"max_retries" json:"max_retries"`
	MaxEpochs  int     `mapstructure:"max_epochs" json:"max_epochs"`
}

// Config is the full application configuration.
type Config struct {
	GridWidth      int   `mapstructure:"grid_width" json:"grid_width"`
	GridHeight     int   `mapstructure:"grid_height" json:"grid_height"`
	Thin           bool  `mapstructure:"thin" json:"thin"`
	MergeThreshold int   `mapstructure:"merge_threshold" json:"merge_threshold"`
	Train          Train `mapstructure:"train" json:"train"`

	Binarize binarize.Params `mapstructure:"binarize" json:"binarize"`

	// Glyph generation
	FontPath string  `mapstructure:"font_path" json:"font_path,omitempty"`
	FontSize float64 `mapstructure:"font_size" json:"font_size"`
	Alphabet string  `mapstructure:"alphabet" json:"alphabet"`

	SamplesPath string `mapstructure:"samples_path" json:"samples_path,omitempty"`
	LogLevel    string `mapstructure:"log_level" json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := ocr.DefaultParams()
	t := p.Train
	return Config{
		GridWidth:      p.GridWidth,
		GridHeight:     p.GridHeight,
		Thin:           p.Thin,
		MergeThreshold: p.MergeThreshold,
		Train: Train{
			LearnRate:  t.LearnRate,
			QuitError:  t.QuitError,
			RateDecay:  t.RateDecay,
			Method:     t.Method.String(),
			MaxRetries: t.MaxRetries,
			MaxEpochs:  t.MaxEpochs,
		},
		Binarize: binarize.DefaultParams(),
		FontSize: glyphgen.DefaultSize,
		Alphabet: glyphgen.DefaultAlphabet,
		LogLevel: "info",
	}
}

// Load reads the configuration. Values come from, in increasing
// priority: defaults, the file at path (skipped when empty) and
// environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables can override
// nested fields.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("grid_width", d.GridWidth)
	v.SetDefault("grid_height", d.GridHeight)
	v.SetDefault("thin", d.Thin)
	v.SetDefault("merge_threshold", d.MergeThreshold)

	v.SetDefault("train.learn_rate", d.Train.LearnRate)
	v.SetDefault("train.quit_error", d.Train.QuitError)
	v.SetDefault("train.rate_decay", d.Train.RateDecay)
	v.SetDefault("train.method", d.Train.Method)
	v.SetDefault("train.max_retries", d.Train.MaxRetries)
	v.SetDefault("train.max_epochs", d.Train.MaxEpochs)

	b := d.Binarize
	v.SetDefault("binarize.max_dim", b.MaxDim)
	v.SetDefault("binarize.clahe_clip", b.CLAHEClipLimit)
	v.SetDefault("binarize.clahe_tile", b.CLAHETileSize)
	v.SetDefault("binarize.use_otsu", b.UseOtsu)
	v.SetDefault("binarize.fixed_threshold", b.FixedThreshold)
	v.SetDefault("binarize.use_adaptive", b.UseAdaptive)
	v.SetDefault("binarize.adaptive_block", b.AdaptiveBlock)
	v.SetDefault("binarize.adaptive_c", b.AdaptiveC)
	v.SetDefault("binarize.dilate", b.DilateIterations)
	v.SetDefault("binarize.erode", b.ErodeIterations)

	v.SetDefault("font_path", d.FontPath)
	v.SetDefault("font_size", d.FontSize)
	v.SetDefault("alphabet", d.Alphabet)
	v.SetDefault("samples_path", d.SamplesPath)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate checks the configuration for values the pipeline rejects.
func (c Config) Validate() error {
	if _, err := c.OCRParams(); err != nil {
		return err
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("%w: font_size must be positive, got %v", ErrInvalid, c.FontSize)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// OCRParams converts the configuration into recognizer parameters.
func (c Config) OCRParams() (ocr.Params, error) {
	method, err := kohonen.ParseLearnMethod(c.Train.Method)
	if err != nil {
		return ocr.Params{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Train.LearnRate < 0 || c.Train.QuitError < 0 || c.Train.RateDecay < 0 {
		return ocr.Params{}, fmt.Errorf("%w: training rates must not be negative", ErrInvalid)
	}
	p := ocr.Params{
		GridWidth:      c.GridWidth,
		GridHeight:     c.GridHeight,
		Thin:           c.Thin,
		MergeThreshold: c.MergeThreshold,
		Train: kohonen.TrainOptions{
			LearnRate:  c.Train.LearnRate,
			QuitError:  c.Train.QuitError,
			RateDecay:  c.Train.RateDecay,
			Method:     method,
			MaxRetries: c.Train.MaxRetries,
			MaxEpochs:  c.Train.MaxEpochs,
		},
	}
	if err := p.Validate(); err != nil {
		return ocr.Params{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return p, nil
}

// Level returns the parsed log level, Info when unset or invalid.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
