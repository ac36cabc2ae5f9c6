// Пакет реализует контроллер блочного документа: живое дерево разметки, разбитое на блоки-контейнеры,
// и все операции, которые его меняют.
//
// Основные возможности:
//   - Поддержание блочной структуры: каждый потомок корня - блок с идентификатором и непустым содержимым.
//   - Выполнение команд форматирования как атомарных операций над выделением с защитой от повторного входа.
//   - Синхронизация с внешним значением документа без потери ввода в сфокусированном редакторе.
//   - Нормализация списков и чеклистов с отложенным запуском после структурных изменений.
//   - Вставка пользовательских блоков с полезной нагрузкой и ее восстановление из разметки.
//   - Отложенное присвоение идентификаторов заголовкам и история изменений.
//
// Редактор не потокобезопасен: все вызовы и все отложенные задачи должны выполняться
// в одном цикле событий (см. schedule.Loop).
package editor

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/commands"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/config"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/history"
	policy "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/redactor-policy"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/schedule"
	"github.com/gofrs/uuid"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
	"golang.org/x/sync/semaphore"
)

// Sanitizer очищает разметку по политике редактора.
type Sanitizer interface {
	Sanitize(markup string) string
}

// CursorPrimitives хранит выделение и умеет переносить его через структурные изменения.
type CursorPrimitives interface {
	Selection() cursor.Selection
	Select(sel cursor.Selection)
	SaveCursorPosition(root *html.Node) cursor.Token
	RestoreCursorPosition(root *html.Node, tok cursor.Token) bool
	PositionCursorInElement(n *html.Node, edge cursor.Edge)
}

// CommandDispatcher - примитивы форматирования. Каждый примитив сам восстанавливает выделение.
type CommandDispatcher interface {
	ApplyInlineStyle(tag string) bool
	ApplyBlockFormat(tag string) bool
	ToggleListType(kind string) bool
	ToggleChecklistState() bool
	InsertHorizontalRule() bool
	ApplyLink(href, text string) *html.Node
	InsertAtCaret(n *html.Node) bool
	GenerateHeadingID(text string) string
}

type History interface {
	Request()
	Capture()
	Undo() bool
	Redo() bool
	Cancel()
}

// HostRequest - запрос к хосту за данными, которые требуют его интерфейса.
// Для вставки пользовательского блока Command пуст, а BlockType содержит тип блока.
type HostRequest struct {
	Command   edtypes.Command
	BlockType string
}

// HostCallback возвращает аргумент команды. false означает, что пользователь отказался.
type HostCallback func(req HostRequest) (any, bool)

type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Scheduler для отложенных задач. По умолчанию schedule.NewManual(): задачи выполняются только по Advance.
	Scheduler schedule.Scheduler
	Sanitizer Sanitizer
	Cursor    CursorPrimitives
	// NewDispatcher строит примитивы форматирования над корнем редактора.
	NewDispatcher func(root *html.Node, sel commands.Selector) CommandDispatcher
	// NewHistory строит историю над снимками документа.
	NewHistory  func(target history.Target, sched schedule.Scheduler, key string, cfg *config.Config, logger *slog.Logger) History
	Descriptors map[string]edtypes.CustomBlockDescriptor
	Host        HostCallback
	OnChange    func(value string)
	// Value - начальное значение документа.
	Value string
}

type Editor struct {
	id  uuid.UUID
	log *slog.Logger
	cfg *config.Config

	root        *html.Node
	sched       schedule.Scheduler
	sanitizer   Sanitizer
	cursor      CursorPrimitives
	dispatcher  CommandDispatcher
	history     History
	descriptors map[string]edtypes.CustomBlockDescriptor
	host        HostCallback
	onChange    func(value string)
	minifier    *minify.M

	commandLock *semaphore.Weighted
	enforceLock *semaphore.Weighted

	// закодированные полезные нагрузки пользовательских блоков по идентификатору блока
	payloads    map[string]string
	nextBlockID int

	lastEmitted string
	lastValue   string

	focused   bool
	disabled  bool
	detached  bool
	closed    bool
	restoring bool

	activeBlock   *html.Node
	activeFormats edtypes.FormatSet
}

func New(opts Options) *Editor {
	e := &Editor{
		id:          uuid.Must(uuid.NewV4()),
		cfg:         opts.Config,
		root:        dom.NewRoot(),
		sched:       opts.Scheduler,
		sanitizer:   opts.Sanitizer,
		cursor:      opts.Cursor,
		descriptors: opts.Descriptors,
		host:        opts.Host,
		onChange:    opts.OnChange,
		commandLock: semaphore.NewWeighted(1),
		enforceLock: semaphore.NewWeighted(1),
		payloads:    make(map[string]string),
	}

	if e.cfg == nil {
		e.cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e.log = logger.With("editor", e.id.String())
	if e.sched == nil {
		e.sched = schedule.NewManual()
	}
	if e.sanitizer == nil {
		e.sanitizer = policy.New()
	}
	if e.cursor == nil {
		e.cursor = cursor.NewTracker()
	}
	if e.descriptors == nil {
		e.descriptors = make(map[string]edtypes.CustomBlockDescriptor)
	}
	if opts.NewDispatcher != nil {
		e.dispatcher = opts.NewDispatcher(e.root, e.cursor)
	} else {
		e.dispatcher = commands.New(e.root, e.cursor)
	}
	newHistory := opts.NewHistory
	if newHistory == nil {
		newHistory = defaultHistory
	}
	e.history = newHistory(historyTarget{e}, e.sched, e.key("history"), e.cfg, e.log)
	if e.cfg.MinifyOutput {
		e.minifier = minify.New()
		e.minifier.Add("text/html", &mhtml.Minifier{
			KeepDefaultAttrVals: true,
			KeepEndTags:         true,
			KeepQuotes:          true,
		})
	}

	if opts.Value != "" {
		e.replaceTree(e.sanitizer.Sanitize(opts.Value))
	} else {
		e.Enforce(false, false)
	}
	e.recompute()
	e.lastEmitted = e.serialize()
	e.lastValue = e.lastEmitted
	e.history.Capture()

	e.log.Debug("Editor created", "blocks", len(e.blocks()))
	return e
}

func defaultHistory(target history.Target, sched schedule.Scheduler, key string, cfg *config.Config, logger *slog.Logger) History {
	m := history.NewManager(target, cfg.HistoryDepth).WithLogger(logger)
	return history.NewDebounced(m, sched, key, cfg.HistoryDebounce())
}

// historyTarget отдает истории снимки документа, не открывая Restore хосту.
type historyTarget struct {
	e *Editor
}

func (t historyTarget) Snapshot() string {
	return t.e.serialize()
}

func (t historyTarget) Restore(value string) {
	t.e.replaceTree(t.e.sanitizer.Sanitize(value))
}

// ID возвращает идентификатор экземпляра редактора.
func (e *Editor) ID() uuid.UUID {
	return e.id
}

// Root возвращает корень живого дерева. Изменять дерево в обход редактора нельзя, для ввода есть ApplyInput.
func (e *Editor) Root() *html.Node {
	return e.root
}

// key строит ключ отложенной задачи этого экземпляра.
func (e *Editor) key(name string) string {
	return e.id.String() + ":" + name
}

// ready сообщает, можно ли выполнять правки пользователя.
func (e *Editor) ready() bool {
	return !e.disabled && e.alive()
}

// alive сообщает, что поверхность на странице и редактор не закрыт.
func (e *Editor) alive() bool {
	return !e.detached && !e.closed
}

func (e *Editor) OnChange(fn func(value string)) {
	e.onChange = fn
}

func (e *Editor) Focus() {
	e.focused = true
	if e.ready() {
		e.Enforce(true, true)
		e.recompute()
	}
}

// Blur снимает фокус. Внешнее значение, отложенное на время фокуса, не применяется:
// хосту отправляется живое дерево, чтобы значения сошлись.
func (e *Editor) Blur() {
	e.focused = false
	if e.alive() && e.lastValue != e.lastEmitted {
		e.log.Debug("Deferred external value superseded by live document")
		e.publish(e.serialize())
	}
}

func (e *Editor) Focused() bool {
	return e.focused
}

func (e *Editor) SetDisabled(disabled bool) {
	e.disabled = disabled
}

// Detach отмечает, что поверхность убрана со страницы. Отложенные задачи после этого ничего не меняют.
func (e *Editor) Detach() {
	e.detached = true
}

// Close отменяет все отложенные задачи редактора. После Close редактор ничего не меняет.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.sched.CancelPrefix(e.id.String() + ":")
	e.log.Debug("Editor closed")
}

// nextID выдает следующий идентификатор блока.
func (e *Editor) nextID() string {
	e.nextBlockID++
	return "b-" + strconv.Itoa(e.nextBlockID)
}

// seedIDs сдвигает счетчик за все идентификаторы вида b-N, уже присутствующие в дереве.
func (e *Editor) seedIDs() {
	dom.Walk(e.root, func(n *html.Node) bool {
		raw, ok := strings.CutPrefix(dom.GetAttr(n, edtypes.AttrBlockID), "b-")
		if !ok {
			return false
		}
		if v, err := strconv.Atoi(raw); err == nil && v > e.nextBlockID {
			e.nextBlockID = v
		}
		return false
	})
}

func (e *Editor) newBlock(typ string) *html.Node {
	if typ == "" {
		typ = edtypes.DefaultBlockType
	}
	return dom.NewElement("div",
		html.Attribute{Key: edtypes.AttrBlock},
		html.Attribute{Key: edtypes.AttrBlockID, Val: e.nextID()},
		html.Attribute{Key: edtypes.AttrBlockType, Val: typ},
	)
}

func (e *Editor) isBlock(n *html.Node) bool {
	return n != nil && n.Parent == e.root && dom.IsElement(n) && dom.HasAttr(n, edtypes.AttrBlock)
}

// blocks возвращает блоки корня в порядке документа.
func (e *Editor) blocks() []*html.Node {
	var res []*html.Node
	for c := e.root.FirstChild; c != nil; c = c.NextSibling {
		if e.isBlock(c) {
			res = append(res, c)
		}
	}
	return res
}

func (e *Editor) firstBlock() *html.Node {
	for c := e.root.FirstChild; c != nil; c = c.NextSibling {
		if e.isBlock(c) {
			return c
		}
	}
	return nil
}

// blockOf возвращает блок, содержащий узел, или nil.
func (e *Editor) blockOf(n *html.Node) *html.Node {
	if !dom.IsAttached(n, e.root) {
		return nil
	}
	return dom.Closest(n, e.root, e.isBlock)
}

func (e *Editor) blockByID(id string) *html.Node {
	for _, b := range e.blocks() {
		if dom.GetAttr(b, edtypes.AttrBlockID) == id {
			return b
		}
	}
	return nil
}

// isStamped сообщает, помечен ли узел типом пользовательского блока.
func isStamped(n *html.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	typ := dom.GetAttr(n, edtypes.AttrBlockType)
	return typ != "" && typ != edtypes.DefaultBlockType
}

func (e *Editor) stampedNodes() []*html.Node {
	return dom.FindAll(e.root, isStamped)
}
