package network

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
	"github.com/sirupsen/logrus"
)

// ExtrapolationJob carries everything a worker needs to re-simulate from
// a stale snapshot forward to the present using recorded input, without
// touching the caller's registry directly.
type ExtrapolationJob struct {
	Snapshot        Snapshot
	SnapshotTime    float64
	Now             float64
	Reachable       []registry.Entity
	Statics         []registry.Entity
	TerminatedEarly bool
}

// ExtrapolationFunc re-simulates job.SnapshotTime forward to job.Now,
// returning the resulting Snapshot to apply. Supplied by the caller
// (rigid.World.Step over a scratch copy of the relevant islands) so this
// package stays independent of the simulation package.
type ExtrapolationFunc func(ctx context.Context, job ExtrapolationJob) (Snapshot, error)

// Client tracks one connection's replicated view of a server registry:
// its own entity map, clock sync, input history and pending discontinuity
// corrections. Grounded on the teacher's own client-side packet handling,
// generalized from a single "apply snapshot" path into snap-vs-extrapolate.
type Client struct {
	Transport Transport
	EntityMap *EntityMap
	Clock     ClockSync
	Inputs    InputHistory

	reg   *registry.Registry
	graph *graph.Graph
	list  ComponentList

	ServerPlayoutDelay   float64
	ExtrapolationEnabled bool
	ExtrapolationFixedDt float64
	Extrapolate          ExtrapolationFunc
	ExtrapolationTimeout time.Duration

	Now func() float64

	ID   ClientID
	Self registry.Entity
}

// NewClient wires a Client to reg/g using list as the shared, ordered
// component set; Extrapolate and Now must be set by the caller before
// onSnapshot is exercised.
func NewClient(reg *registry.Registry, g *graph.Graph, list ComponentList, transport Transport) *Client {
	return &Client{
		Transport: transport,
		EntityMap: NewEntityMap(),
		reg:       reg,
		graph:     g,
		list:      list,
	}
}

// Join sends the join token as the connection's first frame, ahead of any
// other traffic — required by Server.Accept, which reads exactly one
// frame before deciding whether to authenticate.
func (c *Client) Join(token string) error {
	body, err := Encode(PacketJoinRequest, JoinRequest{Token: token})
	if err != nil {
		return err
	}
	return c.Transport.Send(body)
}

// HandleFrame decodes one incoming frame and dispatches it.
func (c *Client) HandleFrame(frame []byte) {
	env, err := Decode(frame)
	if err != nil {
		logrus.WithError(err).Warn("network: malformed frame from server")
		return
	}
	switch env.Type {
	case PacketClientCreated:
		var pkt ClientCreated
		if err := json.Unmarshal(env.Body, &pkt); err == nil {
			c.ID = pkt.ClientID
			c.Self = pkt.Self
		}
	case PacketUpdateEntityMap:
		var pkt UpdateEntityMap
		if err := json.Unmarshal(env.Body, &pkt); err == nil {
			for _, pair := range pkt.Pairs {
				c.EntityMap.Insert(pair.Remote, pair.Local)
			}
		}
	case PacketRegistrySnapshot:
		var pkt RegistrySnapshot
		if err := json.Unmarshal(env.Body, &pkt); err == nil {
			c.onSnapshot(pkt.Snapshot)
		}
	case PacketTimeResponse:
		var pkt TimeResponse
		if err := json.Unmarshal(env.Body, &pkt); err == nil {
			now := c.now()
			c.Clock.Sample(now, now, pkt.T)
		}
	}
}

func (c *Client) now() float64 {
	if c.Now != nil {
		return c.Now()
	}
	return 0
}

// onSnapshot applies an incoming RegistrySnapshot, extrapolating forward
// from it when it is stale enough to be worth the cost, and snapping
// directly onto it otherwise.
func (c *Client) onSnapshot(remote Snapshot) {
	local, ok := remote.ConvertRemoteToLocal(c.EntityMap)
	if !ok {
		return
	}

	now := c.now()
	var snapshotTime float64
	if c.Clock.Count > 0 {
		snapshotTime = local.Timestamp + c.Clock.TimeDelta - c.ServerPlayoutDelay
	} else {
		snapshotTime = now - c.Clock.RoundTripTime/2 - c.ServerPlayoutDelay
	}

	c.Inputs.Emplace(local.Timestamp, local)
	c.Inputs.EraseUntil(now - RetentionWindow(c.ServerPlayoutDelay, c.Clock.RoundTripTime))

	if !c.ExtrapolationEnabled || now-snapshotTime < c.ExtrapolationFixedDt {
		c.apply(local)
		return
	}

	job := c.buildExtrapolationJob(local, snapshotTime, now)
	result, terminatedEarly := c.awaitExtrapolation(job)
	if terminatedEarly {
		c.apply(local)
		return
	}
	c.apply(result)
}

func (c *Client) buildExtrapolationJob(local Snapshot, snapshotTime, now float64) ExtrapolationJob {
	var starts []graph.NodeIndex
	for _, e := range local.Entities {
		if n, ok := c.graph.NodeOf(e); ok {
			starts = append(starts, n)
		}
	}
	nodes, _ := c.graph.Reach(starts, nil)

	var reachable, statics []registry.Entity
	for _, n := range nodes {
		e := c.graph.Entity(n)
		if c.graph.NonConnecting(n) {
			statics = append(statics, e)
		} else {
			reachable = append(reachable, e)
		}
	}

	return ExtrapolationJob{
		Snapshot:     local,
		SnapshotTime: snapshotTime,
		Now:          now,
		Reachable:    reachable,
		Statics:      statics,
	}
}

// awaitExtrapolation dispatches job to c.Extrapolate on a worker goroutine
// bounded by ExtrapolationTimeout, blocking the calling goroutine on the
// result channel until the job finishes or the timeout expires.
func (c *Client) awaitExtrapolation(job ExtrapolationJob) (Snapshot, bool) {
	if c.Extrapolate == nil {
		return job.Snapshot, true
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if c.ExtrapolationTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.ExtrapolationTimeout)
		defer cancel()
	}

	resultCh := make(chan Snapshot, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := c.Extrapolate(ctx, job)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- res
	}()

	select {
	case res := <-resultCh:
		return res, false
	case <-errCh:
		return job.Snapshot, true
	case <-ctx.Done():
		logrus.Warn("network: extrapolation timed out, snapping to snapshot")
		return job.Snapshot, true
	}
}

// apply writes s onto the registry and records the resulting jump in each
// affected body's Discontinuity, so the presentation layer can blend the
// correction out instead of popping to the corrected transform.
func (c *Client) apply(s Snapshot) {
	before := make(map[registry.Entity]actor.Transform, len(s.Entities))
	for _, e := range s.Entities {
		if t, ok := registry.Get[actor.Transform](c.reg, e); ok {
			before[e] = t
		}
	}

	s.Apply(c.reg, c.list)

	for e, prev := range before {
		cur, ok := registry.Get[actor.Transform](c.reg, e)
		if !ok {
			continue
		}
		posDelta := prev.Position.Sub(cur.Position)
		rotDelta := prev.Rotation.Mul(cur.Rotation.Inverse())
		if posDelta.Len() < 1e-9 && math.Abs(1-rotDelta.W) < 1e-9 {
			continue
		}
		registry.EmplaceOrReplace(c.reg, e, Discontinuity{
			PositionOffset: posDelta,
			RotationOffset: rotDelta,
		})
	}
}
