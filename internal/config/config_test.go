package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwise/internal/lifecycle"
	"github.com/roach88/stepwise/internal/steps"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: reports.db
vocabulary: ru
tms:
  pattern: https://tms.example.com/case/
diff:
  compare_expected: true
json:
  timezone: UTC
log:
  level: debug
  format: tint
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "reports.db", cfg.Database)
	assert.Equal(t, "ru", cfg.Vocabulary)
	assert.Equal(t, "FIND-", cfg.TMS.Prefix, "unset keys keep defaults")
	assert.Equal(t, "https://tms.example.com/case/", cfg.TMS.Pattern)
	assert.True(t, cfg.Diff.CompareExpected)
	assert.True(t, cfg.JSON.TrimTimestamps)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "tint", cfg.Log.Format)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "vocabluary: ru\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vocabluary")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"vocabulary", func(c *Config) { c.Vocabulary = "de" }},
		{"empty database", func(c *Config) { c.Database = "" }},
		{"empty prefix", func(c *Config) { c.TMS.Prefix = "" }},
		{"pattern scheme", func(c *Config) { c.TMS.Pattern = "tms.example.com/" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"timezone", func(c *Config) { c.JSON.Timezone = "Mars/Olympus" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.JSON.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestStepperOptions(t *testing.T) {
	cfg := Default()
	cfg.Vocabulary = "ru"
	cfg.TMS.Pattern = "https://tms.example.com/case/"

	opts, err := cfg.StepperOptions(nil)
	require.NoError(t, err)

	l := lifecycle.New()
	_, err = l.Begin("Suite FIND-T7: вход")
	require.NoError(t, err)

	s := steps.New(l, opts...)
	assert.Equal(t, steps.Russian, s.Vocabulary())
	require.NoError(t, s.InitializeTest())
	require.NoError(t, s.AttachDiff(nil, 1))

	id, err := l.CurrentTestCase()
	require.NoError(t, err)
	tc, ok := l.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, "FIND-T7: вход", tc.Name)
	require.Len(t, tc.Links, 1)
	assert.Equal(t, "полученное", tc.Attachments[0].Name)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"

	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Info("ready")
	assert.Contains(t, buf.String(), `"msg":"ready"`)
}
