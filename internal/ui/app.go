package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/control"
	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/prefs"
	"github.com/five82/thermo/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewDashboard View = iota
	ViewLogs
)

// Sender is the part of gateway.Client the UI drives.
type Sender interface {
	Send(cmd gateway.Command) error
	Reconnect()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    Sender
	Store     *state.Store
	Config    *config.Config
	PollTick  time.Duration
	ThemeName string
	ChartMode config.ChartMode
	PrefsPath string
	LogPath   string
	Logger    zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Sender
	store     *state.Store
	config    *config.Config
	prefsPath string
	logPath   string
	pollTick  time.Duration
	log       zerolog.Logger
	heater    bool

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	chartMode   config.ChartMode
	spinner     spinner.Model
	now         time.Time

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	targetRev   uint64

	// Target edit session
	editor *control.TargetEditor
	input  textinput.Model

	// Transient status line
	flash      string
	flashErr   bool
	flashUntil time.Time

	// Log state
	logViewport viewport.Model
	logLines    []string
	logFollow   bool
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	heater := true
	chart := config.ChartStatic
	if opts.Config != nil {
		heater = opts.Config.Features.Heater
		if opts.Config.Features.Chart != "" {
			chart = opts.Config.Features.Chart
		}
	}
	if opts.ChartMode != "" {
		chart = opts.ChartMode
	}

	theme := GetTheme(themeName)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "--.-"
	input.CharLimit = TargetCharLimit
	input.Width = TargetInputWidth

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		config:      opts.Config,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		log:         opts.Logger,
		heater:      heater,
		theme:       theme,
		keys:        DefaultKeyMap(),
		currentView: ViewDashboard,
		chartMode:   chart,
		spinner:     sp,
		now:         time.Now(),
		editor:      control.NewTargetEditor(),
		input:       input,
		logFollow:   true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), waitForChangeCmd(m.ctx, m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case changeMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, waitForChangeCmd(m.ctx, m.store)

	case sendResultMsg:
		m.handleSendResult(msg)
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.editor.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// applySnapshot takes a new store snapshot. A fresh remote target reaches
// the input only through the editor, which leaves an active edit alone.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.lastUpdated = time.Now()

	th := snap.Thermostat
	if th.Target != nil && th.TargetRevision != m.targetRev {
		m.targetRev = th.TargetRevision
		m.editor.ApplyRemote(*th.Target)
		m.syncInput()
	}
}

// syncInput mirrors the editor into the text input when no edit is active.
func (m *Model) syncInput() {
	if m.editor.Focused() {
		return
	}
	m.input.SetValue(m.editor.Display())
	m.input.CursorEnd()
}

// handleTick processes the refresh tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	if !m.flashUntil.IsZero() && now.After(m.flashUntil) {
		m.flash = ""
		m.flashUntil = time.Time{}
	}

	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.refreshLogs())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashUntil = time.Now().Add(FlashDuration)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderDashboard())
	}

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// changeMsg carries a snapshot taken after the store signalled a change.
type changeMsg state.Snapshot

type sendResultMsg struct {
	cmd gateway.Command
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitForChangeCmd(ctx context.Context, store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-store.Changes():
			return changeMsg(store.Snapshot())
		case <-ctx.Done():
			return nil
		}
	}
}

func sendCmd(client Sender, cmd gateway.Command) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return sendResultMsg{cmd: cmd, err: gateway.ErrNotConnected}
		}
		return sendResultMsg{cmd: cmd, err: client.Send(cmd)}
	}
}

func reconnectCmd(client Sender) tea.Cmd {
	return func() tea.Msg {
		if client != nil {
			client.Reconnect()
		}
		return nil
	}
}

// Run starts the Bubble Tea program. It returns when the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
