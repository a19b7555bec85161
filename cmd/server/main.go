package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/network"
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
	port := envOr("SERVER_PORT", "8080")
	token := envOr("JOIN_TOKEN", "changeme")
	tickHz, err := strconv.Atoi(envOr("TICK_HZ", "60"))
	if err != nil || tickHz <= 0 {
		tickHz = 60
	}

	world := rigid.NewWorld(rigid.Settings{FixedDt: 1.0 / float64(tickHz)})
	list := network.ComponentList{
		network.NewAlwaysSyncCodec[actor.Transform]("Transform"),
		network.NewAlwaysSyncCodec[actor.Velocity]("Velocity"),
	}

	server, err := network.NewServer(world.Reg, world.Graph, list, token, network.ServerSettings{
		FixedDt:                     world.Settings.FixedDt,
		NumSolverVelocityIterations: world.Settings.NumSolverVelocityIterations,
		NumSolverPositionIterations: world.Settings.NumSolverPositionIterations,
		AllowFullOwnership:          true,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize server")
	}
	server.ClockNow = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		peer, err := server.Accept(w, r)
		if err != nil {
			log.WithError(err).Warn("rejected connection")
			return
		}
		log.WithField("client_id", peer.ID).Info("client joined")
		server.ServePeer(peer)
		log.WithField("client_id", peer.ID).Info("client left")
	})

	go func() {
		ticker := time.NewTicker(time.Duration(world.Settings.FixedDt * float64(time.Second)))
		defer ticker.Stop()
		for range ticker.C {
			world.Step(world.Settings.FixedDt)
		}
	}()

	addr := ":" + port
	log.WithField("addr", addr).Info("server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
