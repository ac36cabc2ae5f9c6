package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/apierrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Millisecond, cfg.HeadingIDDelay())
	assert.Equal(t, 10*time.Millisecond, cfg.CaretDelay())
	assert.Equal(t, 150*time.Millisecond, cfg.NormalizeDebounce())
	assert.Equal(t, 300*time.Millisecond, cfg.HistoryDebounce())
	assert.Equal(t, 100, cfg.HistoryDepth)
	assert.False(t, cfg.MinifyOutput)
}

func TestReadConfigEnv(t *testing.T) {
	t.Setenv("BLOCKEDITOR_NORMALIZE_DEBOUNCE_MS", "200")
	t.Setenv("BLOCKEDITOR_HISTORY_DEPTH", "not a number")
	t.Setenv("BLOCKEDITOR_MINIFY", "true")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.NormalizeDebounceMs)
	assert.Equal(t, 100, cfg.HistoryDepth)
	assert.True(t, cfg.MinifyOutput)
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// медленный ввод
		"heading_id_delay_ms": 120,
		"history_depth": 20,
	}`), 0o644))
	t.Setenv("BLOCKEDITOR_CONFIG", path)
	t.Setenv("BLOCKEDITOR_HISTORY_DEPTH", "50")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.HeadingIDDelayMs)
	assert.Equal(t, 20, cfg.HistoryDepth, "file overlays environment")
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestReadConfigBadFile(t *testing.T) {
	t.Setenv("BLOCKEDITOR_CONFIG", filepath.Join(t.TempDir(), "missing.jsonc"))
	_, err := ReadConfig()
	assert.True(t, errors.Is(err, apierrors.ErrConfigFile))

	cfg := Default()
	assert.Error(t, Overlay(cfg, []byte(`{"history_depth": `)))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "negative delays reset",
			in:   Config{HeadingIDDelayMs: -1, CaretDelayMs: -5, NormalizeDebounceMs: 99999, HistoryDebounceMs: 0, HistoryDepth: 0},
			want: Config{HeadingIDDelayMs: 60, CaretDelayMs: 10, NormalizeDebounceMs: 150, HistoryDebounceMs: 0, HistoryDepth: 100},
		},
		{
			name: "heading waits for caret",
			in:   Config{HeadingIDDelayMs: 20, CaretDelayMs: 40, NormalizeDebounceMs: 150, HistoryDebounceMs: 300, HistoryDepth: 5},
			want: Config{HeadingIDDelayMs: 90, CaretDelayMs: 40, NormalizeDebounceMs: 150, HistoryDebounceMs: 300, HistoryDepth: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Clamp()
			assert.Equal(t, tt.want, cfg)
		})
	}
}
