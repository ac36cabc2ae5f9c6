package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HeadingIDDelayMs = 2
	cfg.CaretDelayMs = 1
	cfg.NormalizeDebounceMs = 1
	cfg.HistoryDebounceMs = 1
	return cfg
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.html")
	require.NoError(t, os.WriteFile(in, []byte(`<p>Release notes</p><p>body</p>`), 0o644))

	err := run(ctx, testConfig(), options{
		in:       in,
		out:      out,
		selected: "Release",
		commands: []string{"h2", "bold"},
		inserts:  []string{`table={"rows":2,"cols":2}`},
		docBase:  "/docs/",
	}, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, `<h2 id="release-notes"><strong>Release</strong> notes</h2>`)
	assert.Contains(t, doc, `data-block-type="table"`)
	assert.Contains(t, doc, `data-block-payload=`)
}

func TestRunStdout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stdout bytes.Buffer
	err := run(ctx, testConfig(), options{selected: "item", commands: []string{"checklist"}},
		strings.NewReader(`<p>item</p>`), &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `<ul data-type="taskList"><li data-type="taskItem" data-checked="false"><input type="checkbox"/>item</li></ul>`)
}

func TestRunErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tests := []struct {
		name string
		opts options
		want string
	}{
		{"missing text", options{selected: "absent"}, "not found"},
		{"unknown command", options{commands: []string{"explode"}}, "unknown command"},
		{"bad insert", options{inserts: []string{"table"}}, "expected type=json"},
		{"bad payload", options{inserts: []string{"table={"}}, "not valid json"},
		{"unknown block", options{inserts: []string{`chart={}`}}, "no descriptor"},
		{"unknown block id", options{deletes: []string{"b-99"}}, "b-99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(ctx, testConfig(), tt.opts, strings.NewReader(`<p>text</p>`), &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadInputMissingFile(t *testing.T) {
	_, err := readInput(filepath.Join(t.TempDir(), "nope.html"), nil)
	assert.Error(t, err)
}
