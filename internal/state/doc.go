// Package state holds the thermostat values reported by the gateway.
//
// # Overview
//
// Reconcile is a pure function that applies one sparse gateway.Patch to a
// Thermostat. Fields missing from the patch keep their previous value.
//
// Store wraps the reconciled Thermostat together with connection status and
// a short history of current-temperature readings. The gateway pump writes
// to it and the UI reads copies through Snapshot.
//
//	gateway.Client.Events()          ui.Model
//	┌────────────────────┐          ┌──────────────────┐
//	│ EventPatch         │          │                  │
//	│ EventStateChanged  │          │                  │
//	│      ↓             │          │                  │
//	│ store.ApplyPatch() │─────────→│ store.Snapshot() │
//	│ store.SetConn...() │ (mutex)  │      ↓           │
//	└────────────────────┘          │ render           │
//	                                └──────────────────┘
//
// # Target Revision
//
// Thermostat.TargetRevision increments for every inbound target_temperature.
// The UI compares revisions to decide whether a new remote target arrived
// since it last looked, which lets it leave an in-progress edit alone and
// still pick up the latest value once editing ends.
//
// # Changes
//
// Changes returns a channel with a buffer of one that is signalled after each
// update. Multiple updates between reads collapse into a single signal.
//
// # Zero Value
//
// A zero Store is ready to use. Its snapshot reports StateDisconnected and
// nil thermostat fields.
package state
