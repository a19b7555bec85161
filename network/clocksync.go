package network

// clockSyncAlpha is the exponential moving average weight applied to each
// new time-sync sample, favoring recent samples while still smoothing out
// a single noisy round trip.
const clockSyncAlpha = 0.1

// ClockSync estimates the offset and round-trip time between a client's
// clock and its server's from a running series of TimeRequest/TimeResponse
// exchanges, smoothed with an exponential moving average rather than
// trusting any single sample.
type ClockSync struct {
	TimeDelta     float64
	RoundTripTime float64
	Count         int
}

// Sample folds one round trip into the estimate. sent and received are the
// client's local clock readings when it sent the request and received the
// response; serverTime is the server clock value the response carried.
func (c *ClockSync) Sample(sent, received, serverTime float64) {
	rtt := received - sent
	delta := serverTime - (sent + rtt/2)

	if c.Count == 0 {
		c.RoundTripTime = rtt
		c.TimeDelta = delta
	} else {
		c.RoundTripTime += clockSyncAlpha * (rtt - c.RoundTripTime)
		c.TimeDelta += clockSyncAlpha * (delta - c.TimeDelta)
	}
	c.Count++
}

// ServerTime converts a local clock reading into its estimated server-time
// equivalent.
func (c *ClockSync) ServerTime(local float64) float64 {
	return local + c.TimeDelta
}
