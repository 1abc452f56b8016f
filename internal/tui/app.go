// internal/tui/app.go
//
// This is the interactive front end for refclone.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the node list, the clone controls and the status line
// 2. Update: key presses and finished clone runs change the model
// 3. View: lipgloss renders the model to a string
//
// A clone run is a tea.Cmd. While it runs the trigger is disabled.

package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/refclone/internal/clone"
	"github.com/kingrea/refclone/internal/config"
	"github.com/kingrea/refclone/internal/logbook"
	"github.com/kingrea/refclone/internal/scene"
)

// Version is shown in the header and the about panel.
const Version = "0.2.0"

const (
	successColor = lipgloss.Color("#207527")
	failureColor = lipgloss.Color("#872323")
	infoColor    = lipgloss.Color("#3E5158")
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusFailure
)

// cloneFinishedMsg carries the outcome of a clone command
type cloneFinishedMsg struct {
	request clone.CloneRequest
	result  clone.Result
	err     error
	saveErr error
}

// statusExpiredMsg clears the status line if nothing newer replaced it
type statusExpiredMsg struct {
	seq int
}

// sceneChangedMsg is sent when the scene file changed on disk
type sceneChangedMsg struct {
	event scene.Event
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook journals clone runs and shows the tail in the log panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithLogger sends the orchestrator trace to logger.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWatcher reloads the node list when the scene file changes.
func WithWatcher(w *scene.Watcher) AppOption {
	return func(a *App) {
		a.watcher = w
	}
}

// WithPersistDefaults controls whether a successful clone stores the
// controls as the next defaults.
func WithPersistDefaults(enabled bool) AppOption {
	return func(a *App) {
		a.persistDefaults = enabled
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config       *config.Config
	scene        *scene.Scene
	orchestrator *clone.Orchestrator
	logbook      *logbook.Logbook
	logger       *slog.Logger
	watcher      *scene.Watcher

	persistDefaults bool
	statusDuration  time.Duration

	// Node list
	filters  scene.Filter
	entries  []scene.Entry
	selected map[string]bool
	search   textinput.Model
	nodes    list.Model

	// Clone controls
	namespaceKind   clone.NamespaceKind
	customNamespace textinput.Model
	offset          [3]textinput.Model
	copies          textinput.Model
	grouping        bool
	groupName       textinput.Model

	focus     focusArea
	cloning   bool
	showAbout bool

	// pendingReload defers a disk change seen while a clone is running
	pendingReload bool

	statusMsg  string
	statusKind statusKind
	statusSeq  int

	width  int
	height int
}

// NewApp creates the model for one scene.
func NewApp(cfg *config.Config, sc *scene.Scene, opts ...AppOption) *App {
	defaults := cfg.CloneDefaults()
	filters := cfg.Filters()
	selected := map[string]bool{}
	app := &App{
		config:          cfg,
		scene:           sc,
		persistDefaults: true,
		statusDuration:  cfg.StatusDuration(),
		filters: scene.Filter{
			VisibleOnly:    filters.VisibleOnly,
			TopOnly:        filters.TopNodesOnly,
			ReferencesOnly: filters.ReferencesOnly,
		},
		selected:        selected,
		search:          newInput("Search...", "", 64),
		nodes:           newNodeList(selected),
		namespaceKind:   defaults.NamespaceMode().Kind,
		customNamespace: newInput("namespace", defaults.Namespace.Custom, 64),
		copies:          newInput("1", fmt.Sprint(defaults.Copies), 6),
		grouping:        defaults.Grouping.Enabled,
		groupName:       newInput("myGroup01", defaults.Grouping.Name, 64),
	}
	app.offset[0] = newInput("0", formatFloat(defaults.Offset.X), 16)
	app.offset[1] = newInput("0", formatFloat(defaults.Offset.Y), 16)
	app.offset[2] = newInput("0", formatFloat(defaults.Offset.Z), 16)
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	var orchOpts []clone.Option
	if app.logger != nil {
		orchOpts = append(orchOpts, clone.WithLogger(app.logger))
	}
	app.orchestrator = clone.New(sc, orchOpts...)
	app.reloadNodes()
	app.setFocus(focusList)
	app.logbook.Info("Session opened · scene %s", filepath.Base(sc.Path()))
	return app
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.waitForSceneChange()
}

func (a *App) waitForSceneChange() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	events := a.watcher.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sceneChangedMsg{event: ev}
	}
}

// setStatus shows a transient message and schedules its removal.
func (a *App) setStatus(kind statusKind, text string) tea.Cmd {
	a.statusSeq++
	a.statusKind = kind
	a.statusMsg = text
	seq := a.statusSeq
	if a.statusDuration <= 0 {
		return nil
	}
	return tea.Tick(a.statusDuration, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.nodes.SetSize(max(20, a.leftWidth()-4), max(5, msg.Height-16))
		return a, nil

	case statusExpiredMsg:
		if msg.seq == a.statusSeq {
			a.statusMsg = ""
		}
		return a, nil

	case cloneFinishedMsg:
		return a, a.handleCloneFinished(msg)

	case sceneChangedMsg:
		if a.cloning {
			a.pendingReload = true
			return a, a.waitForSceneChange()
		}
		return a, tea.Batch(a.reloadScene(), a.waitForSceneChange())

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.cycleFocus(1)
		return a, nil
	case "shift+tab":
		a.cycleFocus(-1)
		return a, nil
	case "ctrl+s":
		return a, a.triggerClone()
	case "esc":
		if a.showAbout {
			a.showAbout = false
			return a, nil
		}
		if a.focus != focusList {
			a.setFocus(focusList)
		}
		return a, nil
	}

	if a.showAbout {
		a.showAbout = false
		return a, nil
	}

	if a.focus == focusList {
		return a.handleListKey(msg)
	}

	if key == "enter" {
		if a.focus == focusSearch {
			a.setFocus(focusList)
			return a, nil
		}
		return a, a.triggerClone()
	}

	input := a.inputs()[a.focus]
	if input == nil {
		return a, nil
	}
	if a.focus == focusSearch && !searchKeyAllowed(msg) {
		return a, nil
	}
	before := input.Value()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	if a.focus == focusSearch && input.Value() != before {
		a.applySearch()
	}
	return a, cmd
}

func (a *App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case " ", "enter", "x":
		a.toggleCurrent()
		return a, nil
	case "a":
		a.selectAll()
		return a, nil
	case "n":
		a.selectNone()
		return a, nil
	case "g":
		if !a.adoptHostSelection() {
			return a, a.setStatus(statusFailure, "Must be selected at least one item")
		}
		return a, a.setStatus(statusInfo, fmt.Sprintf("%d item(s) taken from the scene selection", len(a.entries)))
	case "r":
		a.reloadNodes()
		return a, a.setStatus(statusInfo, "List reloaded")
	case "v":
		a.filters.VisibleOnly = !a.filters.VisibleOnly
		a.reloadNodes()
		return a, nil
	case "t":
		a.filters.TopOnly = !a.filters.TopOnly
		a.reloadNodes()
		return a, nil
	case "f":
		a.filters.ReferencesOnly = !a.filters.ReferencesOnly
		a.reloadNodes()
		return a, nil
	case "m":
		a.toggleNamespaceMode()
		return a, nil
	case "G":
		a.toggleGrouping()
		return a, nil
	case "/":
		a.setFocus(focusSearch)
		return a, nil
	case "c":
		return a, a.triggerClone()
	case "?":
		a.showAbout = true
		return a, nil
	}
	var cmd tea.Cmd
	a.nodes, cmd = a.nodes.Update(msg)
	return a, cmd
}

// triggerClone builds the request and starts the clone command.
func (a *App) triggerClone() tea.Cmd {
	if a.cloning {
		return a.setStatus(statusInfo, "A clone is already running")
	}
	req, err := a.buildRequest()
	if err != nil {
		if errors.Is(err, clone.ErrEmptySelection) {
			return a.setStatus(statusFailure, "Must be selected at least one item in the list")
		}
		return a.setStatus(statusFailure, sentence(err.Error()))
	}
	a.cloning = true
	a.statusSeq++
	a.statusKind = statusInfo
	a.statusMsg = fmt.Sprintf("Cloning %d item(s) × %d...", len(req.Sources), req.CopiesPerSource)
	orch := a.orchestrator
	sc := a.scene
	return func() tea.Msg {
		res, err := orch.Clone(req)
		var saveErr error
		if err == nil || len(clone.PartialInstances(err)) > 0 {
			if sc.Path() != "" {
				saveErr = sc.Save()
			}
		}
		return cloneFinishedMsg{request: req, result: res, err: err, saveErr: saveErr}
	}
}

// reloadScene picks up an external edit of the scene file.
func (a *App) reloadScene() tea.Cmd {
	changed, err := a.scene.Reload()
	switch {
	case err != nil:
		a.logbook.Error("Scene reload failed: %v", err)
		return a.setStatus(statusFailure, sentence(err.Error()))
	case changed:
		a.reloadNodes()
		a.logbook.Info("Scene changed on disk · list reloaded")
		return a.setStatus(statusInfo, "Scene changed on disk, list reloaded")
	}
	return nil
}

func (a *App) handleCloneFinished(msg cloneFinishedMsg) tea.Cmd {
	cmd := a.finishClone(msg)
	if !a.pendingReload {
		return cmd
	}
	a.pendingReload = false
	changed, err := a.scene.Reload()
	switch {
	case err != nil:
		a.logbook.Error("Scene reload failed: %v", err)
	case changed:
		a.reloadNodes()
		a.logbook.Info("Scene changed on disk during the clone · list reloaded")
	default:
		a.logbook.Warn("Scene changed on disk during the clone · replaced by the saved clone result")
	}
	return cmd
}

func (a *App) finishClone(msg cloneFinishedMsg) tea.Cmd {
	a.cloning = false
	if msg.err != nil {
		if errors.Is(msg.err, clone.ErrBusy) {
			return a.setStatus(statusInfo, "A clone is already running")
		}
		a.logbook.Error("Clone failed: %v", msg.err)
		if partial := clone.PartialInstances(msg.err); len(partial) > 0 {
			names := make([]string, len(partial))
			for i, inst := range partial {
				names[i] = inst.NewIdentifier
			}
			a.logbook.Warn("Left %d instance(s) in the scene: %s", len(partial), strings.Join(names, ", "))
		}
		if msg.saveErr != nil {
			a.logbook.Error("Scene save failed: %v", msg.saveErr)
		}
		return a.setStatus(statusFailure, sentence(msg.err.Error()))
	}
	res := msg.result
	a.logbook.Info("Clone %s · %d source(s) × %d → %d instance(s) in %d chunk(s)%s",
		shortID(res.OperationID), len(msg.request.Sources), msg.request.CopiesPerSource,
		len(res.Instances), len(res.Chunks), groupedSuffix(msg.request.Grouping))
	if msg.saveErr != nil {
		a.logbook.Error("Scene save failed: %v", msg.saveErr)
		return a.setStatus(statusFailure, sentence(msg.saveErr.Error()))
	}
	if a.persistDefaults {
		defaults, filters := a.controlDefaults(msg.request)
		if err := a.config.SaveCloneDefaults(defaults, filters); err != nil {
			a.logbook.Warn("Could not store clone defaults: %v", err)
		}
	}
	return a.setStatus(statusSuccess, fmt.Sprintf("%d items cloned successfully!", len(msg.request.Sources)))
}

func groupedSuffix(g clone.GroupingMode) string {
	if !g.Enabled {
		return ""
	}
	return fmt.Sprintf(" grouped under %s", g.Name)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sentence upper-cases the first letter of an error for the status line.
func sentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
