package network

// InputRecord is one timestamped input snapshot kept for possible
// re-simulation during extrapolation.
type InputRecord struct {
	Time    float64
	Payload Snapshot
}

// InputHistory retains a client's own recent input long enough for
// extrapolation to replay it against a stale server snapshot, and no
// longer — retention tracks the current round trip so a laggy connection
// keeps more history than a tight one.
type InputHistory struct {
	records []InputRecord
}

// Emplace records one input snapshot taken at t.
func (h *InputHistory) Emplace(t float64, payload Snapshot) {
	h.records = append(h.records, InputRecord{Time: t, Payload: payload})
}

// EraseUntil drops every record older than t.
func (h *InputHistory) EraseUntil(t float64) {
	i := 0
	for i < len(h.records) && h.records[i].Time < t {
		i++
	}
	h.records = h.records[i:]
}

// Since returns every record at or after t, oldest first.
func (h *InputHistory) Since(t float64) []InputRecord {
	i := 0
	for i < len(h.records) && h.records[i].Time < t {
		i++
	}
	return h.records[i:]
}

// RetentionWindow returns how far back input should be kept given the
// server's playout delay and the current round-trip estimate: the client
// needs input covering however far in the past a snapshot can describe
// (serverPlayoutDelay + half the round trip), padded 10% plus a fixed
// 200ms for scheduling jitter.
func RetentionWindow(serverPlayoutDelay, rtt float64) float64 {
	return (serverPlayoutDelay+rtt/2)*1.1 + 0.2
}
