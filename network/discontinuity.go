package network

import "github.com/go-gl/mathgl/mgl64"

// Discontinuity accumulates the position/orientation correction a snapped
// or extrapolated snapshot applied to a body, so the presentation layer
// can blend it out over a few frames instead of popping the rendered
// transform to the corrected value instantly.
type Discontinuity struct {
	PositionOffset mgl64.Vec3
	RotationOffset mgl64.Quat
}

// Input is an empty marker type for client-authored input components
// (steering, throttle, aim). Exporter.ExportInput does not look at it; it
// selects components by their codec's IsInput flag (see NewInputCodec).
type Input struct{}

// ActionHistoryEntry is one discrete client action (a jump press, a fire
// command) queued for authoritative replay rather than continuous state.
type ActionHistoryEntry struct {
	Time    float64         `json:"time"`
	Payload []byte          `json:"payload"`
}

// ActionHistory queues a client's pending discrete actions for export;
// unlike InputHistory (continuous, replayed for extrapolation) these are
// consumed once the server applies them.
type ActionHistory struct {
	Entries []ActionHistoryEntry
}

// Push appends a new action.
func (h *ActionHistory) Push(time float64, payload []byte) {
	h.Entries = append(h.Entries, ActionHistoryEntry{Time: time, Payload: payload})
}

// Drain returns and clears every pending entry.
func (h *ActionHistory) Drain() []ActionHistoryEntry {
	out := h.Entries
	h.Entries = nil
	return out
}
