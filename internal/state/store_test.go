package state

import (
	"errors"
	"testing"
	"time"

	"github.com/five82/thermo/internal/gateway"
)

func patchOf(t *testing.T, raw string) gateway.Patch {
	t.Helper()
	p, err := gateway.DecodePatch([]byte(raw))
	if err != nil {
		t.Fatalf("DecodePatch(%q): %v", raw, err)
	}
	return p
}

func TestStore_ApplyPatchAndSnapshotClone(t *testing.T) {
	var s Store

	at := time.Now()
	s.ApplyPatch(patchOf(t, `{"current_temperature":21.5,"target_temperature":50,"heater_state":false}`), at)

	snap := s.Snapshot()
	th := snap.Thermostat
	if th.Current == nil || *th.Current != 21.5 {
		t.Fatalf("Current = %v, want 21.5", th.Current)
	}
	if th.Target == nil || *th.Target != 50 {
		t.Fatalf("Target = %v, want 50", th.Target)
	}
	if th.Heater == nil || *th.Heater {
		t.Fatalf("Heater = %v, want false", th.Heater)
	}
	if th.TargetRevision != 1 {
		t.Fatalf("TargetRevision = %d, want 1", th.TargetRevision)
	}
	if !snap.LastUpdated.Equal(at) {
		t.Fatalf("LastUpdated = %v, want %v", snap.LastUpdated, at)
	}

	// Returned snapshot should be independent of the stored one.
	*snap.Thermostat.Current = 99
	snap.History[0].Celsius = 99
	snap2 := s.Snapshot()
	if *snap2.Thermostat.Current != 21.5 {
		t.Fatalf("Snapshot should clone thermostat; got %v", *snap2.Thermostat.Current)
	}
	if snap2.History[0].Celsius != 21.5 {
		t.Fatalf("Snapshot should clone history; got %v", snap2.History[0].Celsius)
	}
}

func TestStore_MalformedLeavesValuesUntouched(t *testing.T) {
	var s Store
	s.ApplyPatch(patchOf(t, `{"current_temperature":20,"target_temperature":40}`), time.Now())
	before := s.Snapshot()

	_, err := gateway.DecodePatch([]byte("{not json"))
	s.RecordMalformed(err)

	snap := s.Snapshot()
	if *snap.Thermostat.Current != *before.Thermostat.Current || *snap.Thermostat.Target != *before.Thermostat.Target {
		t.Fatalf("thermostat changed after malformed payload: %+v", snap.Thermostat)
	}
	if snap.Thermostat.TargetRevision != before.Thermostat.TargetRevision {
		t.Fatalf("TargetRevision changed after malformed payload")
	}
	if snap.Malformed != 1 {
		t.Fatalf("Malformed = %d, want 1", snap.Malformed)
	}
	if !errors.Is(snap.LastError, gateway.ErrMalformed) {
		t.Fatalf("LastError = %v, want ErrMalformed", snap.LastError)
	}
}

func TestStore_ConnectionFailuresAndRecovery(t *testing.T) {
	var s Store
	now := time.Now()

	s.SetConnection(gateway.StateConnecting, "", 1, nil, 0, now)
	s.SetConnection(gateway.StateClosed, "", 1, errors.New("refused"), 2*time.Second, now)
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after one failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	if want := now.Add(2 * time.Second); !snap.RetryAt.Equal(want) {
		t.Fatalf("RetryAt = %v, want %v", snap.RetryAt, want)
	}

	s.SetConnection(gateway.StateConnecting, "", 2, nil, 0, now)
	s.SetConnection(gateway.StateClosed, "", 2, errors.New("refused"), 2*time.Second, now)
	snap = s.Snapshot()
	if !snap.IsOffline() {
		t.Fatalf("expected offline after 2 failures")
	}
	if snap.LastError == nil || snap.LastError.Error() != "refused" {
		t.Fatalf("LastError = %v, want refused", snap.LastError)
	}

	s.SetConnection(gateway.StateOpen, "abc", 3, nil, 0, now)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("open should reset failures; got %d err=%v", snap.ConsecutiveFailures, snap.LastError)
	}
	if snap.Connection != gateway.StateOpen || snap.ConnID != "abc" || snap.Epoch != 3 {
		t.Fatalf("connection = %v/%q/%d", snap.Connection, snap.ConnID, snap.Epoch)
	}
	if !snap.RetryAt.IsZero() {
		t.Fatalf("RetryAt should clear when open")
	}
}

func TestStore_HistoryKeepsNewestReadingsInOrder(t *testing.T) {
	var s Store
	base := time.Now()
	total := HistorySize + 15
	for i := 0; i < total; i++ {
		s.ApplyPatch(gateway.Patch{CurrentTemperature: floatPtr(float64(i))}, base.Add(time.Duration(i)*time.Second))
	}
	s.ApplyPatch(gateway.Patch{HeaterState: new(bool)}, base)

	hist := s.Snapshot().History
	if len(hist) != HistorySize {
		t.Fatalf("len(History) = %d, want %d", len(hist), HistorySize)
	}
	if hist[0].Celsius != 15 || hist[len(hist)-1].Celsius != float64(total-1) {
		t.Fatalf("History bounds = %v..%v, want 15..%d", hist[0].Celsius, hist[len(hist)-1].Celsius, total-1)
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Celsius != hist[i-1].Celsius+1 {
			t.Fatalf("History out of order at %d: %v after %v", i, hist[i].Celsius, hist[i-1].Celsius)
		}
	}
}

func TestStore_ChangesCoalesce(t *testing.T) {
	var s Store
	ch := s.Changes()

	s.ApplyPatch(patchOf(t, `{"current_temperature":1}`), time.Now())
	s.ApplyPatch(patchOf(t, `{"current_temperature":2}`), time.Now())

	select {
	case <-ch:
	default:
		t.Fatalf("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatalf("signals should coalesce")
	default:
	}
}

func TestSnapshot_ZeroValue(t *testing.T) {
	var s Store
	snap := s.Snapshot()
	if snap.Connection != gateway.StateDisconnected {
		t.Fatalf("Connection = %v, want disconnected", snap.Connection)
	}
	if snap.Thermostat.Current != nil || snap.Thermostat.Target != nil || snap.Thermostat.Heater != nil {
		t.Fatalf("zero store should have no values: %+v", snap.Thermostat)
	}
	if snap.History != nil {
		t.Fatalf("History = %v, want nil", snap.History)
	}
}
