// Управление конфигурацией редактора из переменных окружения и необязательного JSONC-файла.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Наложение значений из JSONC-файла (комментарии и завершающие запятые допустимы).
//   - Значения по умолчанию для всех задержек и глубины истории.
//   - Ограничение значений: отрицательные задержки, слишком большая глубина, задержка заголовка не больше задержки курсора.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"time"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/apierrors"
	"github.com/tailscale/hujson"
)

const (
	maxDelayMs   = 10_000
	maxDepth     = 10_000
	headingAfter = 50
)

type Config struct {
	HeadingIDDelayMs    int  `env:"BLOCKEDITOR_HEADING_ID_DELAY_MS" json:"heading_id_delay_ms"`
	CaretDelayMs        int  `env:"BLOCKEDITOR_CARET_DELAY_MS" json:"caret_delay_ms"`
	NormalizeDebounceMs int  `env:"BLOCKEDITOR_NORMALIZE_DEBOUNCE_MS" json:"normalize_debounce_ms"`
	HistoryDebounceMs   int  `env:"BLOCKEDITOR_HISTORY_DEBOUNCE_MS" json:"history_debounce_ms"`
	HistoryDepth        int  `env:"BLOCKEDITOR_HISTORY_DEPTH" json:"history_depth"`
	MinifyOutput        bool `env:"BLOCKEDITOR_MINIFY" json:"minify_output"`

	ConfigFile string `env:"BLOCKEDITOR_CONFIG" json:"-"`
}

func Default() *Config {
	return &Config{
		HeadingIDDelayMs:    60,
		CaretDelayMs:        10,
		NormalizeDebounceMs: 150,
		HistoryDebounceMs:   300,
		HistoryDepth:        100,
	}
}

// ReadConfig собирает конфигурацию: значения по умолчанию, затем переменные окружения,
// затем файл из BLOCKEDITOR_CONFIG, если он задан. Результат всегда проходит Clamp.
func ReadConfig() (*Config, error) {
	config := Default()

	envConfig("env", config)

	if config.ConfigFile != "" {
		if err := LoadFile(config, config.ConfigFile); err != nil {
			return nil, err
		}
	}

	config.Clamp()
	return config, nil
}

// LoadFile накладывает на config значения из JSONC-файла. Отсутствующие в файле поля не меняются.
func LoadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrConfigFile.WithFormattedMessage(path), err)
	}
	return Overlay(config, data)
}

// Overlay накладывает на config значения из JSONC-документа.
func Overlay(config *Config, data []byte) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrConfigFile.WithFormattedMessage("(invalid JSONC)"), err)
	}
	if err := json.Unmarshal(standardized, config); err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrConfigFile.WithFormattedMessage("(invalid JSON)"), err)
	}
	return nil
}

// Clamp приводит значения к допустимым диапазонам.
func (c *Config) Clamp() {
	clampMs := func(v *int, def int) {
		if *v < 0 || *v > maxDelayMs {
			*v = def
		}
	}
	def := Default()
	clampMs(&c.CaretDelayMs, def.CaretDelayMs)
	clampMs(&c.HeadingIDDelayMs, def.HeadingIDDelayMs)
	clampMs(&c.NormalizeDebounceMs, def.NormalizeDebounceMs)
	clampMs(&c.HistoryDebounceMs, def.HistoryDebounceMs)

	// отложенная фаза заголовка должна стартовать после перемещения курсора
	if c.HeadingIDDelayMs <= c.CaretDelayMs {
		c.HeadingIDDelayMs = c.CaretDelayMs + headingAfter
	}

	if c.HistoryDepth <= 0 || c.HistoryDepth > maxDepth {
		c.HistoryDepth = def.HistoryDepth
	}
}

func (c *Config) HeadingIDDelay() time.Duration {
	return time.Duration(c.HeadingIDDelayMs) * time.Millisecond
}

func (c *Config) CaretDelay() time.Duration {
	return time.Duration(c.CaretDelayMs) * time.Millisecond
}

func (c *Config) NormalizeDebounce() time.Duration {
	return time.Duration(c.NormalizeDebounceMs) * time.Millisecond
}

func (c *Config) HistoryDebounce() time.Duration {
	return time.Duration(c.HistoryDebounceMs) * time.Millisecond
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s any) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		raw := GetEnv(fEnvTag)
		if raw == "" {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int:
			n, ok := GetIntEnv(fEnvTag)
			if !ok {
				slog.Warn("Invalid config value", "key", typeParam.Name()+"."+fName, "value", raw)
				continue
			}
			field.SetInt(int64(n))
		case reflect.Bool:
			field.SetBool(GetBoolEnv(fEnvTag))
		default:
			continue
		}

		slog.Debug("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", raw),
			slog.String("source", "ENVIRONMENT"),
		)
	}
}
