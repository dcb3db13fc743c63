package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/prefs"
	"github.com/five82/thermo/internal/state"
)

type fakeSender struct {
	mu         sync.Mutex
	sent       []gateway.Command
	err        error
	reconnects int
}

func (f *fakeSender) Send(cmd gateway.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeSender) Reconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
}

type harness struct {
	t      *testing.T
	m      Model
	sender *fakeSender
	store  *state.Store
	prefs  string
}

func newHarness(t *testing.T, heater bool) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Features.Heater = heater

	h := &harness{
		t:      t,
		sender: &fakeSender{},
		store:  &state.Store{},
		prefs:  filepath.Join(t.TempDir(), "prefs.toml"),
	}
	h.m = New(Options{
		Client:    h.sender,
		Store:     h.store,
		Config:    &cfg,
		PrefsPath: h.prefs,
	})
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(Model)
	if !ok {
		h.t.Fatalf("Update returned %T, want Model", next)
	}
	h.m = m
	return cmd
}

// run executes cmd and feeds its message back into the model.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		h.t.Fatal("expected a command")
	}
	if msg := cmd(); msg != nil {
		h.update(msg)
	}
}

func (h *harness) push(patch gateway.Patch) {
	h.t.Helper()
	h.store.ApplyPatch(patch, time.Now())
	h.update(snapshotMsg(h.store.Snapshot()))
}

func (h *harness) typeText(text string) {
	h.t.Helper()
	for _, r := range text {
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) sent() []gateway.Command {
	h.sender.mu.Lock()
	defer h.sender.mu.Unlock()
	return append([]gateway.Command(nil), h.sender.sent...)
}

func target(v float64) gateway.Patch {
	return gateway.Patch{TargetTemperature: &v}
}

func heaterPatch(on bool) gateway.Patch {
	return gateway.Patch{HeaterState: &on}
}

func TestRemoteTargetFillsIdleInput(t *testing.T) {
	h := newHarness(t, true)
	h.push(target(60))

	if got := h.m.input.Value(); got != "60.0" {
		t.Fatalf("input = %q, want 60.0", got)
	}
}

func TestRemoteTargetDoesNotClobberDraft(t *testing.T) {
	h := newHarness(t, true)
	h.push(target(60))

	h.typeText("55")
	if !h.m.editor.Focused() {
		t.Fatal("typing a digit should start an edit")
	}
	if got := h.m.input.Value(); got != "55" {
		t.Fatalf("draft = %q, want 55", got)
	}

	h.push(target(70))
	if got := h.m.input.Value(); got != "55" {
		t.Fatalf("draft after remote push = %q, want 55", got)
	}

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	if h.m.editor.Focused() {
		t.Fatal("esc should end the edit")
	}
	if got := h.m.input.Value(); got != "70.0" {
		t.Fatalf("input after esc = %q, want 70.0", got)
	}
	if len(h.sent()) != 0 {
		t.Fatalf("esc sent %v", h.sent())
	}
}

func TestEnterSendsTarget(t *testing.T) {
	h := newHarness(t, true)
	h.push(target(60))

	h.typeText("42")
	cmd := h.update(tea.KeyMsg{Type: tea.KeyEnter})
	h.run(cmd)

	sent := h.sent()
	if len(sent) != 1 || sent[0] != gateway.SetTargetTemperature(42) {
		t.Fatalf("sent = %v, want target_temperature=42", sent)
	}
	data, err := sent[0].MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != `{"target_temperature":42}` {
		t.Fatalf("wire = %s", data)
	}
	if got := h.m.input.Value(); got != "42" {
		t.Fatalf("input after enter = %q, want 42", got)
	}
	if !strings.Contains(h.m.flash, "42.0") || h.m.flashErr {
		t.Fatalf("flash = %q (err %v)", h.m.flash, h.m.flashErr)
	}

	// The echo replaces the committed draft with the formatted value.
	h.push(target(42))
	if got := h.m.input.Value(); got != "42.0" {
		t.Fatalf("input after echo = %q, want 42.0", got)
	}
}

func TestTypedInputIsClamped(t *testing.T) {
	h := newHarness(t, true)
	h.push(target(60))

	h.typeText("120")
	if got := h.m.input.Value(); got != "95" {
		t.Fatalf("input = %q, want 95", got)
	}
}

func TestSendFailureRevertsAndFlashes(t *testing.T) {
	h := newHarness(t, true)
	h.sender.err = gateway.ErrNotConnected
	h.push(target(60))

	h.typeText("42")
	h.run(h.update(tea.KeyMsg{Type: tea.KeyEnter}))

	if got := h.m.input.Value(); got != "60.0" {
		t.Fatalf("input after failed send = %q, want 60.0", got)
	}
	if !h.m.flashErr || !strings.Contains(h.m.flash, "Not connected") {
		t.Fatalf("flash = %q (err %v)", h.m.flash, h.m.flashErr)
	}
}

func TestSendFailureOtherError(t *testing.T) {
	h := newHarness(t, true)
	h.sender.err = errors.New("broken pipe")
	h.push(target(60))

	h.typeText("42")
	h.run(h.update(tea.KeyMsg{Type: tea.KeyEnter}))
	if h.m.flash != "Send failed: broken pipe" {
		t.Fatalf("flash = %q", h.m.flash)
	}
}

func TestHeaterToggleIsNotOptimistic(t *testing.T) {
	h := newHarness(t, true)
	h.push(heaterPatch(false))

	h.run(h.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}))

	sent := h.sent()
	if len(sent) != 1 || sent[0] != gateway.SetHeaterState(true) {
		t.Fatalf("sent = %v, want heater_state=true", sent)
	}
	if on := h.m.snapshot.Thermostat.Heater; on == nil || *on {
		t.Fatal("checkbox changed before the echo")
	}
	if !strings.Contains(h.m.View(), "[ ] off") {
		t.Fatal("view should still show the heater off")
	}

	h.push(heaterPatch(true))
	if !strings.Contains(h.m.View(), "[x] on") {
		t.Fatal("view should show the echoed heater state")
	}
}

func TestHeaterDisabled(t *testing.T) {
	h := newHarness(t, false)
	h.push(heaterPatch(false))

	if cmd := h.update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}); cmd != nil {
		t.Fatal("space should do nothing without heater control")
	}
	if strings.Contains(h.m.View(), "Heater") {
		t.Fatal("heater row should be hidden")
	}
}

func TestReconnectKey(t *testing.T) {
	h := newHarness(t, true)
	h.run(h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}))

	if h.sender.reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", h.sender.reconnects)
	}
}

func TestCycleChartPersists(t *testing.T) {
	h := newHarness(t, true)
	if h.m.chartMode != config.ChartStatic {
		t.Fatalf("chart = %q, want static", h.m.chartMode)
	}

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if h.m.chartMode != config.ChartLive {
		t.Fatalf("chart = %q, want live", h.m.chartMode)
	}
	if got := prefs.Load(h.prefs).Chart; got != "live" {
		t.Fatalf("saved chart = %q, want live", got)
	}
}

func TestConnectionShownInHeader(t *testing.T) {
	h := newHarness(t, true)
	now := time.Now()
	h.store.SetConnection(gateway.StateClosed, "", 1, errors.New("dial refused"), 2*time.Second, now)
	h.store.SetConnection(gateway.StateClosed, "", 2, nil, 2*time.Second, now)
	h.update(snapshotMsg(h.store.Snapshot()))

	header := h.m.renderHeader()
	if !strings.Contains(header, "CLOSED") {
		t.Fatalf("header = %q", header)
	}
	if !strings.Contains(header, "2 failures") {
		t.Fatalf("header should report failures: %q", header)
	}
}
