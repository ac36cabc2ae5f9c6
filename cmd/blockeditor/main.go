// Утилита для пакетной обработки блочных документов: загружает документ в редактор, выполняет
// команды форматирования и вставки, дожидается отложенных задач и сохраняет результат.
//
// Пример запуска:
//
//	blockeditor --in doc.html --out doc.html --select "Release notes" --cmd h2 --insert 'table={"rows":2,"cols":3}'
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"unicode/utf8"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/blocks"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/config"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/editor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/schedule"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

var version string = "DEV"

type options struct {
	in       string
	out      string
	selected string
	commands []string
	inserts  []string
	deletes  []string
	docBase  string
	minify   bool
	report   bool
}

func main() {
	var opts options
	flag.StringVarP(&opts.in, "in", "i", "", "Input document, stdin if empty")
	flag.StringVarP(&opts.out, "out", "o", "", "Output document, stdout if empty")
	flag.StringVarP(&opts.selected, "select", "s", "", "Select the first occurrence of the text before running commands")
	flag.StringArrayVarP(&opts.commands, "cmd", "c", nil, "Command to execute, name or name=arg (repeatable)")
	flag.StringArrayVar(&opts.inserts, "insert", nil, "Custom block to insert, type=json (repeatable)")
	flag.StringArrayVar(&opts.deletes, "delete", nil, "Block id to delete (repeatable)")
	flag.StringVar(&opts.docBase, "doc-base", blocks.DefaultDocBase, "Path prefix of document links")
	flag.BoolVar(&opts.minify, "minify", false, "Minify output markup")
	flag.BoolVar(&opts.report, "report", false, "Print headings and custom blocks as JSON to stderr")
	trace := flag.Bool("trace", false, "Verbose logs")
	showVersion := flag.BoolP("version", "v", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	level := slog.LevelInfo
	if *trace {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.ReadConfig()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}
	if opts.minify {
		cfg.MinifyOutput = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdin, os.Stdout); err != nil {
		slog.Error("Document processing failed", "err", err)
		os.Exit(1)
	}
}

// Report - сводка по документу после обработки.
type Report struct {
	Blocks       []edtypes.BlockInfo       `json:"blocks"`
	Headings     []edtypes.Heading         `json:"headings"`
	CustomBlocks []edtypes.CustomBlockInfo `json:"custom_blocks"`
}

// run выполняет сценарий в цикле событий редактора. Все обращения к редактору идут через loop.Call,
// отложенные задачи (идентификаторы заголовков, нормализация, история) выполняет тот же цикл.
func run(ctx context.Context, cfg *config.Config, opts options, stdin io.Reader, stdout io.Writer) error {
	input, err := readInput(opts.in, stdin)
	if err != nil {
		return err
	}

	loop := schedule.NewLoop(0)
	loopCtx, stopLoop := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(loopCtx)

	g.Go(func() error {
		if err := loop.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	var (
		doc    string
		report Report
	)
	g.Go(func() error {
		defer stopLoop()

		var e *editor.Editor
		var scriptErr error
		if err := loop.Call(gctx, func() {
			e = editor.New(editor.Options{
				Config:      cfg,
				Scheduler:   loop,
				Descriptors: blocks.Defaults(opts.docBase),
				Value:       input,
			})
			scriptErr = script(e, opts)
		}); err != nil {
			return err
		}
		if scriptErr != nil {
			return scriptErr
		}

		if err := loop.WaitIdle(gctx); err != nil {
			return err
		}
		return loop.Call(gctx, func() {
			doc = e.GetSerializedDocument()
			report = Report{
				Blocks:       e.Blocks(),
				Headings:     e.GetHeadings(),
				CustomBlocks: e.ListCustomBlockPayloads(),
			}
			e.Close()
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if opts.report {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if opts.out == "" {
		_, err := io.WriteString(stdout, doc+"\n")
		return err
	}
	if err := atomic.WriteFile(opts.out, strings.NewReader(doc)); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	slog.Info("Document saved", "path", opts.out, "blocks", len(report.Blocks), "headings", len(report.Headings))
	return nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// script применяет к редактору выделение, удаления, команды и вставки в этом порядке.
func script(e *editor.Editor, opts options) error {
	if opts.selected != "" {
		sel, ok := findText(e.Root(), opts.selected)
		if !ok {
			return fmt.Errorf("text %q not found", opts.selected)
		}
		e.SetSelection(sel)
	}

	for _, id := range opts.deletes {
		if err := e.DeleteBlock(id); err != nil {
			return err
		}
	}

	for _, raw := range opts.commands {
		name, arg, hasArg := strings.Cut(raw, "=")
		var value any
		if hasArg {
			value = arg
		}
		if err := e.Execute(edtypes.Command(name), value); err != nil {
			return fmt.Errorf("command %s: %w", name, err)
		}
		slog.Debug("Command executed", "command", name, "formats", e.ActiveFormats())
	}

	for _, raw := range opts.inserts {
		typ, payload, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("insert %q: expected type=json", raw)
		}
		if !json.Valid([]byte(payload)) {
			return fmt.Errorf("insert %s: payload is not valid json", typ)
		}
		if err := e.InsertCustomBlock(typ, json.RawMessage(payload)); err != nil {
			return fmt.Errorf("insert %s: %w", typ, err)
		}
	}
	return nil
}

// findText выделяет первое вхождение текста внутри одного текстового узла.
func findText(root *html.Node, text string) (cursor.Selection, bool) {
	var sel cursor.Selection
	found := dom.Find(root, func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return false
		}
		idx := strings.Index(n.Data, text)
		if idx < 0 {
			return false
		}
		start := utf8.RuneCountInString(n.Data[:idx])
		sel = cursor.Selection{
			Anchor: cursor.Position{Node: n, Offset: start},
			Focus:  cursor.Position{Node: n, Offset: start + utf8.RuneCountInString(text)},
		}
		return true
	})
	return sel, found != nil
}
