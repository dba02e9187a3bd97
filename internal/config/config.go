// Package config loads stepwise settings from YAML.
//
// Files are decoded strictly (unknown keys are errors) on top of Default,
// then checked against an embedded CUE schema.
//
// Example:
//
//	database: reports.db
//	vocabulary: ru
//	tms:
//	  prefix: FIND-
//	  pattern: https://tms.example.com/case/
//	diff:
//	  compare_expected: true
//	log:
//	  level: debug
//	  format: tint
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stepwise/internal/htmldiff"
	"github.com/roach88/stepwise/internal/jsoncodec"
	"github.com/roach88/stepwise/internal/logging"
	"github.com/roach88/stepwise/internal/steps"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalid is returned when a configuration violates the schema.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of settings.
type Config struct {
	Database   string `yaml:"database" json:"database"`
	Vocabulary string `yaml:"vocabulary" json:"vocabulary"`
	TMS        TMS    `yaml:"tms" json:"tms"`
	Diff       Diff   `yaml:"diff" json:"diff"`
	JSON       JSON   `yaml:"json" json:"json"`
	Log        Log    `yaml:"log" json:"log"`
}

// TMS configures test management links.
type TMS struct {
	Prefix  string `yaml:"prefix" json:"prefix"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Diff configures diff attachments. An empty Label means the vocabulary's.
type Diff struct {
	Label           string `yaml:"label" json:"label"`
	CompareExpected bool   `yaml:"compare_expected" json:"compare_expected"`
}

// JSON configures attachment serialization.
type JSON struct {
	TrimTimestamps bool   `yaml:"trim_timestamps" json:"trim_timestamps"`
	Timezone       string `yaml:"timezone" json:"timezone"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Database:   "stepwise.db",
		Vocabulary: "en",
		TMS:        TMS{Prefix: steps.DefaultTMSPrefix},
		JSON:       JSON{TrimTimestamps: true, Timezone: "Local"},
		Log:        Log{Level: "info", Format: logging.FormatText},
	}
}

// Load reads path over Default and validates the result.
// An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks c against the schema and resolves its time zone.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, cueerrors.Details(err, nil))
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Location resolves JSON.Timezone. Empty and "Local" mean the process zone.
func (c Config) Location() (*time.Location, error) {
	switch c.JSON.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.JSON.Timezone)
	if err != nil {
		return nil, fmt.Errorf("json.timezone: %w", err)
	}
	return loc, nil
}

// Codec builds the JSON codec for attachments.
func (c Config) Codec() (*jsoncodec.Codec, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return jsoncodec.New(
		jsoncodec.WithLocation(loc),
		jsoncodec.WithTrimTimestamps(c.JSON.TrimTimestamps),
	), nil
}

// StepperOptions translates c into options for steps.New.
func (c Config) StepperOptions(logger *slog.Logger) ([]steps.Option, error) {
	vocab, err := steps.VocabularyByName(c.Vocabulary)
	if err != nil {
		return nil, err
	}
	codec, err := c.Codec()
	if err != nil {
		return nil, err
	}

	label := c.Diff.Label
	if label == "" {
		label = vocab.DiffLabel
	}
	renderer := htmldiff.New(codec,
		htmldiff.WithLabel(label),
		htmldiff.WithCompareExpected(c.Diff.CompareExpected),
	)

	return []steps.Option{
		steps.WithVocabulary(vocab),
		steps.WithCodec(codec),
		steps.WithDiffRenderer(renderer),
		steps.WithTMS(steps.TMS{Prefix: c.TMS.Prefix, Pattern: c.TMS.Pattern}),
		steps.WithLogger(logger),
	}, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, c.Log.Format, lvl)
}
