package main

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/network"
	"github.com/nyxforge/rigid/registry"
	"github.com/nyxforge/rigid/rigid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using defaults")
	}
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	addr := envOr("SERVER_ADDR", "localhost:8080")
	token := envOr("JOIN_TOKEN", "changeme")

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.WithError(err).Fatal("failed to connect")
	}

	world := rigid.NewWorld(rigid.Settings{})
	list := network.ComponentList{
		network.NewAlwaysSyncCodec[actor.Transform]("Transform"),
		network.NewAlwaysSyncCodec[actor.Velocity]("Velocity"),
	}

	transport := network.NewWSTransport(conn)
	client := network.NewClient(world.Reg, world.Graph, list, transport)
	client.Now = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }
	client.ExtrapolationFixedDt = world.Settings.FixedDt
	client.ExtrapolationTimeout = 20 * time.Millisecond
	client.ExtrapolationEnabled = true
	client.Extrapolate = extrapolate(world, list)

	if err := client.Join(token); err != nil {
		log.WithError(err).Fatal("failed to send join request")
	}

	log.WithField("addr", addr).Info("connected, awaiting server")
	for {
		frame, err := transport.Recv()
		if err != nil {
			log.WithError(err).Warn("connection closed")
			return
		}
		client.HandleFrame(frame)
	}
}

// extrapolate re-simulates job.Snapshot forward to job.Now on world, the
// client's own local simulation, and reports the resulting state for
// every entity the snapshot's connected component reached. It runs on
// the goroutine network.Client.awaitExtrapolation spawns per stale
// snapshot, so it must not be called concurrently with world.Step from
// the caller's main loop.
func extrapolate(world *rigid.World, list network.ComponentList) network.ExtrapolationFunc {
	return func(ctx context.Context, job network.ExtrapolationJob) (network.Snapshot, error) {
		job.Snapshot.Apply(world.Reg, list)

		dt := world.Settings.FixedDt
		for t := job.SnapshotTime; t < job.Now; t += dt {
			select {
			case <-ctx.Done():
				return network.Snapshot{}, ctx.Err()
			default:
			}
			world.Step(dt)
		}

		entities := make([]registry.Entity, 0, len(job.Reachable)+len(job.Statics))
		entities = append(entities, job.Reachable...)
		entities = append(entities, job.Statics...)
		return exportAll(world.Reg, list, entities, job.Now), nil
	}
}

// exportAll builds a Snapshot carrying every codec's current value for
// each of entities, unconditionally rather than dirty-tracked, since an
// extrapolation result is a fresh full state rather than an incremental
// update.
func exportAll(reg *registry.Registry, list network.ComponentList, entities []registry.Entity, timestamp float64) network.Snapshot {
	snap := network.Snapshot{Entities: entities, Timestamp: timestamp}
	pools := make(map[network.ComponentIndex]*network.Pool, len(list))
	for _, e := range entities {
		for i, c := range list {
			raw, ok := c.Get(reg, e)
			if !ok {
				continue
			}
			idx := network.ComponentIndex(i)
			p, exists := pools[idx]
			if !exists {
				p = &network.Pool{Index: idx}
				pools[idx] = p
			}
			p.Entries = append(p.Entries, network.PoolEntry{Entity: e, Payload: raw})
		}
	}
	for _, p := range pools {
		snap.Pools = append(snap.Pools, *p)
	}
	return snap
}
