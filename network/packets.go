package network

import (
	"encoding/json"

	"github.com/nyxforge/rigid/registry"
)

// PacketType tags the envelope so a receiver knows which struct to decode
// the payload into.
type PacketType string

const (
	PacketJoinRequest      PacketType = "join_request"
	PacketClientCreated    PacketType = "client_created"
	PacketUpdateEntityMap  PacketType = "update_entity_map"
	PacketCreateEntity     PacketType = "create_entity"
	PacketDestroyEntity    PacketType = "destroy_entity"
	PacketEntityEntered    PacketType = "entity_entered"
	PacketEntityExited     PacketType = "entity_exited"
	PacketRegistrySnapshot PacketType = "registry_snapshot"
	PacketAssetSync        PacketType = "asset_sync"
	PacketAssetSyncResp    PacketType = "asset_sync_response"
	PacketEntityResponse   PacketType = "entity_response"
	PacketTimeRequest      PacketType = "time_request"
	PacketTimeResponse     PacketType = "time_response"
	PacketServerSettings   PacketType = "server_settings"
	PacketSetPlayoutDelay  PacketType = "set_playout_delay"
	PacketSetAABBInterest  PacketType = "set_aabb_of_interest"
	PacketQueryEntity      PacketType = "query_entity"
)

// Envelope is the wire form every packet travels in: a type tag plus its
// raw JSON body, so Transport stays payload-agnostic.
type Envelope struct {
	Type PacketType      `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Encode wraps a typed packet body into an Envelope ready for Transport.Send.
func Encode(t PacketType, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: t, Body: raw})
}

// Decode splits an incoming frame into its Envelope so the caller can
// switch on Type before unmarshaling Body into the matching struct.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(frame, &env)
	return env, err
}

// ClientCreated is the server's first message to a newly authenticated
// client, assigning it an identity and the entity representing its own
// connection (a client-owned root other packets attach input and
// ownership grants to).
type ClientCreated struct {
	ClientID ClientID        `json:"client_id"`
	Self     registry.Entity `json:"self"`
}

// UpdateEntityMap carries newly negotiated remote/local entity pairs, sent
// whenever the server creates an entity the client didn't already know
// about.
type UpdateEntityMap struct {
	Pairs []EntityPair `json:"pairs"`
}

// CreateEntity announces a new entity, in the sender's local entity space
// (translated by the receiver via its EntityMap on arrival).
type CreateEntity struct {
	Entity registry.Entity `json:"entity"`
}

// DestroyEntity announces an entity's removal.
type DestroyEntity struct {
	Entity registry.Entity `json:"entity"`
}

// EntityEntered notifies a client that an entity has entered its area of
// interest and should start receiving updates for it.
type EntityEntered struct {
	Entity registry.Entity `json:"entity"`
}

// EntityExited notifies a client that an entity has left its area of
// interest.
type EntityExited struct {
	Entity registry.Entity `json:"entity"`
}

// RegistrySnapshot carries a Snapshot plus enough context to place it on
// the simulation timeline.
type RegistrySnapshot struct {
	Snapshot Snapshot `json:"snapshot"`
}

// AssetSync requests the asset manifest a server expects clients to have
// loaded before it will admit them to simulation.
type AssetSync struct{}

// AssetSyncResponse answers AssetSync with the manifest.
type AssetSyncResponse struct {
	Assets []string `json:"assets"`
}

// EntityResponse answers QueryEntity with a point-in-time Snapshot of one
// entity.
type EntityResponse struct {
	Entity   registry.Entity `json:"entity"`
	Snapshot Snapshot        `json:"snapshot"`
}

// TimeRequest starts one clock-sync round trip.
type TimeRequest struct {
	ID uint64 `json:"id"`
}

// TimeResponse answers TimeRequest with the server's clock at the moment
// it received the request.
type TimeResponse struct {
	ID uint64  `json:"id"`
	T  float64 `json:"t"`
}

// ServerSettings announces the simulation parameters a client must mirror
// locally to extrapolate consistently with the server.
type ServerSettings struct {
	FixedDt                     float64    `json:"fixed_dt"`
	Gravity                     [3]float64 `json:"gravity"`
	NumSolverVelocityIterations int        `json:"num_solver_velocity_iterations"`
	NumSolverPositionIterations int        `json:"num_solver_position_iterations"`
	AllowFullOwnership          bool       `json:"allow_full_ownership"`
}

// SetPlayoutDelay adjusts how far in the past the server intentionally
// keeps a client's rendered state, trading responsiveness for smoother
// interpolation over a lossy link.
type SetPlayoutDelay struct {
	Milliseconds float64 `json:"milliseconds"`
}

// SetAABBOfInterest tells the server which world-space region a client
// wants entity-entered/exited notifications for.
type SetAABBOfInterest struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// QueryEntity requests an immediate EntityResponse for one entity outside
// the normal replication cadence.
type QueryEntity struct {
	Entity registry.Entity `json:"entity"`
}

// JoinRequest carries the bcrypt-checked join token a client presents
// before the server will upgrade it past authentication.
type JoinRequest struct {
	Token string `json:"token"`
}
