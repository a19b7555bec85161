package network

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Server accepts websocket connections, authenticates each against a
// bcrypt-hashed join token, and tracks the resulting peers' entity maps
// and ownership. Grounded on the sushiag pack's WebSocketManager, adapted
// from a room/user relay to a registry replication endpoint.
type Server struct {
	upgrader  websocket.Upgrader
	tokenHash []byte
	list      ComponentList
	reg       *registry.Registry
	graph     *graph.Graph
	own       *Ownership
	Settings  ServerSettings

	// ClockNow, if set, supplies the server's simulation clock for
	// TimeResponse; nil defaults to a zero clock.
	ClockNow func() float64

	mu     sync.Mutex
	peers  map[ClientID]*ServerPeer
	nextID ClientID
}

// ServerPeer is one authenticated client connection from the server's
// side: its transport, its view of the entity map, and the entity the
// server created to represent it.
type ServerPeer struct {
	ID        ClientID
	Transport Transport
	EntityMap *EntityMap
	Self      registry.Entity
}

// NewServer hashes tokenPlain once at construction, the way the teacher
// hashes a password at registration rather than per request.
func NewServer(reg *registry.Registry, g *graph.Graph, list ComponentList, tokenPlain string, settings ServerSettings) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(tokenPlain), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Server{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		tokenHash: hash,
		list:      list,
		reg:       reg,
		graph:     g,
		own:       NewOwnership(),
		Settings:  settings,
		peers:     make(map[ClientID]*ServerPeer),
		nextID:    1,
	}, nil
}

// Accept upgrades an incoming HTTP request to a websocket connection,
// reads the client's first frame as a JoinRequest, and authenticates its
// token before returning the new ServerPeer. Failed authentication closes
// the connection without ever assigning a ClientID.
func (s *Server) Accept(w http.ResponseWriter, r *http.Request) (*ServerPeer, error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	_, frame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, err
	}
	env, err := Decode(frame)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if env.Type != PacketJoinRequest {
		conn.Close()
		return nil, fmt.Errorf("network: expected join request, got %q", env.Type)
	}
	var join JoinRequest
	if err := json.Unmarshal(env.Body, &join); err != nil {
		conn.Close()
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(s.tokenHash, []byte(join.Token)) != nil {
		logrus.Warn("network: rejected join with invalid token")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
		conn.Close()
		return nil, fmt.Errorf("network: invalid join token")
	}

	transport := NewWSTransport(conn)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	self := s.reg.Create()
	peer := &ServerPeer{ID: id, Transport: transport, EntityMap: NewEntityMap(), Self: self}
	s.peers[id] = peer
	s.mu.Unlock()

	body, err := Encode(PacketClientCreated, ClientCreated{ClientID: id, Self: self})
	if err != nil {
		return nil, err
	}
	if err := transport.Send(body); err != nil {
		return nil, err
	}
	return peer, nil
}

// Disconnect drops a peer's connection and its entity map, leaving any
// entities it owned server-owned rather than destroying them.
func (s *Server) Disconnect(id ClientID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	peer, ok := s.peers[id]
	if !ok {
		return
	}
	_ = peer.Transport.Close()
	delete(s.peers, id)
	for e, owner := range s.own.owner {
		if owner == id {
			delete(s.own.owner, e)
		}
	}
}

// Peer returns the peer for id, if connected.
func (s *Server) Peer(id ClientID) (*ServerPeer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	return p, ok
}

// Broadcast sends body to every connected peer, logging (not failing) any
// individual send error so one dead connection doesn't block the rest of
// the tick's replication.
func (s *Server) Broadcast(body []byte) {
	s.mu.Lock()
	peers := make([]*ServerPeer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		if err := p.Transport.Send(body); err != nil {
			logrus.WithField("client_id", p.ID).WithError(err).Warn("network: broadcast send failed")
		}
	}
}

// Own reports the server's ownership table, for callers building
// ExportOwned snapshots or checking IsFullyOwnedByClient.
func (s *Server) Own() *Ownership { return s.own }

// ServePeer runs peer's read loop until the connection closes, applying
// each incoming packet, and unregisters the peer on exit. Call it in its
// own goroutine right after Accept returns.
func (s *Server) ServePeer(peer *ServerPeer) {
	defer s.Disconnect(peer.ID)
	for {
		frame, err := peer.Transport.Recv()
		if err != nil {
			return
		}
		env, err := Decode(frame)
		if err != nil {
			logrus.WithError(err).Warn("network: malformed frame from client")
			continue
		}
		s.handlePacket(peer, env)
	}
}

func (s *Server) handlePacket(peer *ServerPeer, env Envelope) {
	switch env.Type {
	case PacketRegistrySnapshot:
		var pkt RegistrySnapshot
		if err := json.Unmarshal(env.Body, &pkt); err != nil {
			return
		}
		local, ok := pkt.Snapshot.ConvertRemoteToLocal(peer.EntityMap)
		if !ok {
			return
		}
		local.ApplyFromClient(s.reg, s.graph, peer.EntityMap, s.own, peer.ID, s.list)

	case PacketTimeRequest:
		var pkt TimeRequest
		if err := json.Unmarshal(env.Body, &pkt); err != nil {
			return
		}
		body, err := Encode(PacketTimeResponse, TimeResponse{ID: pkt.ID, T: s.clockNow()})
		if err != nil {
			return
		}
		_ = peer.Transport.Send(body)

	case PacketQueryEntity:
		var pkt QueryEntity
		if err := json.Unmarshal(env.Body, &pkt); err != nil {
			return
		}
		local, ok := peer.EntityMap.ToLocal(pkt.Entity)
		if !ok {
			return
		}
		snap := Snapshot{Entities: []registry.Entity{local}}
		for i, c := range s.list {
			raw, ok := c.Get(s.reg, local)
			if !ok {
				continue
			}
			snap.Pools = append(snap.Pools, Pool{
				Index:   ComponentIndex(i),
				Entries: []PoolEntry{{Entity: pkt.Entity, Payload: raw}},
			})
		}
		body, err := Encode(PacketEntityResponse, EntityResponse{Entity: pkt.Entity, Snapshot: snap})
		if err != nil {
			return
		}
		_ = peer.Transport.Send(body)

	default:
		logrus.WithField("type", env.Type).Debug("network: unhandled packet type")
	}
}

// clockNow is overridable by tests; production callers should set it to
// their simulation clock at construction. Defaults to zero, which is
// harmless for TimeResponse consumers that only care about round-trip
// timing relative to their own request.
func (s *Server) clockNow() float64 {
	if s.ClockNow != nil {
		return s.ClockNow()
	}
	return 0
}
