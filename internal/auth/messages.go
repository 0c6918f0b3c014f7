// Package auth implements the Auth service: the per-client worker loop and
// the single daemon goroutine that owns the database handle and the vault.
package auth

import (
	"github.com/udisondev/moulgo/internal/db"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// Daemon message tags. Every request payload carries the sender's reply
// channel; the daemon posts exactly one reply per request.
const (
	TagShutdown int32 = iota
	TagClientLogin
	TagSetPlayer
	TagCreatePlayer
	TagVaultCreateNode
	TagVaultFetchNode
	TagVaultUpdateNode
	TagVaultRefNode
	TagVaultUnrefNode
	TagVaultFetchNodeTree
	TagVaultFindNode
	TagVaultInitAge
	TagFindGameServer
	TagDisconnect
	TagAddAcct
	TagGetPublic
	TagSetPublic
)

// Request is the common header of every daemon request: the requester's
// private reply channel. Replies carry a net result code as the tag.
type Request struct {
	Reply *msgchan.Channel
}

// LoginRequest authenticates an account and collects its players.
type LoginRequest struct {
	Request
	ServerChallenge uint32
	ClientChallenge uint32
	AcctName        string
	PassHash        wire.ShaHash
	Token           string
	OS              string

	// Filled by the daemon on success.
	AcctUuid    wire.Uuid
	AcctFlags   uint32
	BillingType uint32
	Players     []db.Player
}

// SetPlayerRequest binds a session to one of the account's players.
type SetPlayerRequest struct {
	Request
	AcctUuid  wire.Uuid
	PlayerIdx uint32

	// Filled by the daemon on success.
	Player db.Player
}

// CreatePlayerRequest creates a player and its vault subgraph.
type CreatePlayerRequest struct {
	Request
	AcctUuid    wire.Uuid
	PlayerName  string
	AvatarShape string

	// Filled by the daemon on success.
	PlayerIdx uint32
	Explorer  uint32
}

// NodeRequest carries a vault node for create/fetch/update operations.
type NodeRequest struct {
	Request
	Node     *vault.Node
	Revision wire.Uuid
}

// RefRequest adds or removes one directed edge.
type RefRequest struct {
	Request
	Ref vault.NodeRef
}

// NodeTreeRequest fetches the edges reachable from a root node.
type NodeTreeRequest struct {
	Request
	NodeID uint32
	Refs   []vault.NodeRef
}

// FindNodeRequest matches nodes by a template's present fields.
type FindNodeRequest struct {
	Request
	Template *vault.Node
	Found    []uint32
}

// InitAgeRequest creates (or finds) an age instance's vault subgraph.
type InitAgeRequest struct {
	Request
	InstanceUuid  wire.Uuid
	ParentUuid    wire.Uuid
	Filename      string
	InstanceName  string
	UserName      string
	Description   string
	SeqNumber     int32
	Language      int32

	// Filled by the daemon.
	AgeNodeIdx  uint32
	InfoNodeIdx uint32
}

// GameServerRequest resolves an age instance to its mcp id, starting a
// server row when none exists.
type GameServerRequest struct {
	Request
	AgeFilename  string
	InstanceUuid wire.Uuid

	// Filled by the daemon.
	McpID      uint32
	AgeNodeIdx uint32
	SdlNodeIdx uint32
}

// DisconnectRequest announces a client going away.
type DisconnectRequest struct {
	Request
	PlayerIdx uint32
}

// AddAcctRequest creates an account (console/tooling path).
type AddAcctRequest struct {
	Request
	AcctName string
	PassHash wire.ShaHash
}

// PublicAgeListRequest lists public instances of one age filename.
type PublicAgeListRequest struct {
	Request
	Filename string
	Ages     []PublicAge
}

// PublicAge is one entry of a public age listing.
type PublicAge struct {
	InstanceUuid wire.Uuid
	InstanceName string
	UserName     string
	Description  string
	SeqNumber    int32
	Language     int32
	Population   uint32
}

// SetPublicRequest flips the public flag of an age info node.
type SetPublicRequest struct {
	Request
	AgeInfoIdx uint32
	Public     bool
}
