package control

import (
	"errors"

	"github.com/five82/thermo/internal/gateway"
)

// ErrNothingToConfirm is returned by Confirm when no edit is in progress or
// the buffer holds no number.
var ErrNothingToConfirm = errors.New("no target temperature to confirm")

// TargetEditor tracks the edit session of the target temperature field.
//
// While focused the buffer holds the user's draft and remote pushes only
// update the authoritative value. Leaving the field without confirming
// restores the authoritative value.
type TargetEditor struct {
	buffer     string
	focused    bool
	confirming bool
	remote     *float64
}

// NewTargetEditor returns an editor with an empty field and no remote value.
func NewTargetEditor() *TargetEditor {
	return &TargetEditor{}
}

// Focus starts an edit session. The visible value is kept as the draft.
func (e *TargetEditor) Focus() {
	e.focused = true
}

// Focused reports whether an edit session is active.
func (e *TargetEditor) Focused() bool {
	return e.focused
}

// Input replaces the draft with the sanitized form of raw and returns it.
// Typing starts an edit session if none is active.
func (e *TargetEditor) Input(raw string) string {
	e.focused = true
	e.buffer = Sanitize(raw)
	return e.buffer
}

// Confirm handles Enter: it marks the confirmation, ends the session and
// returns the command to send. The field keeps the committed draft.
func (e *TargetEditor) Confirm() (gateway.Command, error) {
	if !e.focused {
		return gateway.Command{}, ErrNothingToConfirm
	}
	value, ok := ParseTarget(e.buffer)
	if !ok {
		e.Blur()
		return gateway.Command{}, ErrNothingToConfirm
	}
	e.confirming = true
	e.Blur()
	return gateway.SetTargetTemperature(value), nil
}

// Blur ends the session. After a confirmation the flag is consumed and the
// draft stays; otherwise the field reverts to the remote value.
func (e *TargetEditor) Blur() {
	e.focused = false
	if e.confirming {
		e.confirming = false
		return
	}
	e.buffer = e.remoteText()
}

// ApplyRemote records an inbound target. The visible field follows it only
// when no edit session is active.
func (e *TargetEditor) ApplyRemote(v float64) {
	e.remote = &v
	if !e.focused {
		e.buffer = e.remoteText()
	}
}

// Reject reverts a committed draft that could not be sent.
func (e *TargetEditor) Reject() {
	e.confirming = false
	e.focused = false
	e.buffer = e.remoteText()
}

// Display returns the text the field shows.
func (e *TargetEditor) Display() string {
	return e.buffer
}

// Remote returns the last authoritative target, if any.
func (e *TargetEditor) Remote() (float64, bool) {
	if e.remote == nil {
		return 0, false
	}
	return *e.remote, true
}

func (e *TargetEditor) remoteText() string {
	if e.remote == nil {
		return ""
	}
	return FormatOneDecimal(*e.remote)
}
