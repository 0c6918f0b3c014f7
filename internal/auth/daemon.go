package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/db"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// Daemon owns the auth database handle. Every vault mutation in the process
// flows through its channel and is applied serially on the daemon goroutine.
type Daemon struct {
	cfg config.Settings
	db  *db.DB
	ch  *msgchan.Channel
	log *slog.Logger

	systemNode uint32
}

// NewDaemon initializes the vault and returns a daemon ready to Run.
func NewDaemon(ctx context.Context, cfg config.Settings, database *db.DB) (*Daemon, error) {
	d := &Daemon{
		cfg: cfg,
		db:  database,
		ch:  msgchan.New(),
		log: slog.With("service", "auth"),
	}
	if err := d.initVault(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Channel is the daemon's request channel.
func (d *Daemon) Channel() *msgchan.Channel {
	return d.ch
}

// Shutdown posts the shutdown tag; Run returns after processing it.
func (d *Daemon) Shutdown() {
	d.ch.Put(TagShutdown, nil)
}

// Run processes daemon messages until shutdown. Handler panics are not
// recovered: an invariant violation in the single writer is fatal by design
// of the data model, but per-request errors only fail that request.
func (d *Daemon) Run(ctx context.Context) {
	for {
		msg := d.ch.Get()
		switch msg.Tag {
		case TagShutdown:
			d.log.Info("auth daemon shutting down")
			return
		case TagClientLogin:
			d.handleLogin(ctx, msg.Payload.(*LoginRequest))
		case TagSetPlayer:
			d.handleSetPlayer(ctx, msg.Payload.(*SetPlayerRequest))
		case TagCreatePlayer:
			d.handleCreatePlayer(ctx, msg.Payload.(*CreatePlayerRequest))
		case TagVaultCreateNode:
			d.handleCreateNode(ctx, msg.Payload.(*NodeRequest))
		case TagVaultFetchNode:
			d.handleFetchNode(ctx, msg.Payload.(*NodeRequest))
		case TagVaultUpdateNode:
			d.handleUpdateNode(ctx, msg.Payload.(*NodeRequest))
		case TagVaultRefNode:
			d.handleRefNode(ctx, msg.Payload.(*RefRequest))
		case TagVaultUnrefNode:
			d.handleUnrefNode(ctx, msg.Payload.(*RefRequest))
		case TagVaultFetchNodeTree:
			d.handleFetchNodeTree(ctx, msg.Payload.(*NodeTreeRequest))
		case TagVaultFindNode:
			d.handleFindNode(ctx, msg.Payload.(*FindNodeRequest))
		case TagVaultInitAge:
			d.handleInitAge(ctx, msg.Payload.(*InitAgeRequest))
		case TagFindGameServer:
			d.handleFindGameServer(ctx, msg.Payload.(*GameServerRequest))
		case TagDisconnect:
			d.handleDisconnect(ctx, msg.Payload.(*DisconnectRequest))
		case TagAddAcct:
			d.handleAddAcct(ctx, msg.Payload.(*AddAcctRequest))
		case TagGetPublic:
			d.handleGetPublic(ctx, msg.Payload.(*PublicAgeListRequest))
		case TagSetPublic:
			d.handleSetPublic(ctx, msg.Payload.(*SetPublicRequest))
		default:
			// This shouldn't happen; there is no requester to unblock.
			d.log.Error("auth daemon got invalid message", "tag", msg.Tag)
		}
	}
}

func reply(req Request, result int32) {
	req.Reply.Put(result, nil)
}

// isEmailLogin reports whether the account uses the email-style SHA-0
// challenge hash rather than the gametap-style stored-hash comparison.
func isEmailLogin(acctName string) bool {
	return strings.Contains(acctName, "@") && !strings.Contains(acctName, "@gametap")
}

func (d *Daemon) handleLogin(ctx context.Context, req *LoginRequest) {
	acct, err := d.db.GetAccount(ctx, req.AcctName)
	if err != nil {
		d.log.Error("account lookup failed", "acct", req.AcctName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if acct == nil {
		// Deliberately indistinguishable from a wrong password so account
		// names cannot be probed.
		d.log.Info("login to unknown account", "acct", req.AcctName)
		reply(req.Request, netio.NetAuthenticationFailed)
		return
	}

	if isEmailLogin(req.AcctName) {
		expected := wire.ChallengeHash(req.ServerChallenge, req.ClientChallenge, acct.PassHash)
		if expected != req.PassHash {
			d.log.Info("failed login", "acct", req.AcctName)
			reply(req.Request, netio.NetAuthenticationFailed)
			return
		}
	} else {
		// The stored hash is compared word-swapped on this path.
		submitted := req.PassHash
		submitted.SwapWords()
		if acct.PassHash != submitted {
			d.log.Info("failed login", "acct", req.AcctName)
			reply(req.Request, netio.NetAuthenticationFailed)
			return
		}
	}

	if d.cfg.RestrictLogins && acct.AcctFlags == 0 {
		d.log.Info("login denied by restriction", "acct", req.AcctName)
		reply(req.Request, netio.NetLoginDenied)
		return
	}

	players, err := d.db.ListPlayers(ctx, acct.AcctUuid)
	if err != nil {
		d.log.Error("player list failed", "acct", req.AcctName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}

	req.AcctUuid = acct.AcctUuid
	req.AcctFlags = acct.AcctFlags
	req.BillingType = acct.BillingType
	req.Players = players
	d.log.Info("login", "acct", req.AcctName, "uuid", acct.AcctUuid.String())
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleSetPlayer(ctx context.Context, req *SetPlayerRequest) {
	player, err := d.db.GetPlayer(ctx, req.AcctUuid, req.PlayerIdx)
	if err != nil {
		d.log.Error("set player failed", "player", req.PlayerIdx, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if player == nil {
		d.log.Info("requested invalid player id", "acct", req.AcctUuid.String(), "player", req.PlayerIdx)
		reply(req.Request, netio.NetPlayerNotFound)
		return
	}
	req.Player = *player
	d.log.Info("signed in", "acct", req.AcctUuid.String(), "player", player.PlayerName, "id", req.PlayerIdx)
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleCreatePlayer(ctx context.Context, req *CreatePlayerRequest) {
	if req.AvatarShape != "male" && req.AvatarShape != "female" {
		// Cheater!
		req.AvatarShape = "male"
	}

	taken, err := d.db.PlayerNameTaken(ctx, req.PlayerName)
	if err != nil {
		d.log.Error("player name check failed", "name", req.PlayerName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if taken {
		d.log.Info("player already exists", "name", req.PlayerName)
		reply(req.Request, netio.NetPlayerAlreadyExists)
		return
	}

	playerUuid := wire.NewUuid()
	playerNode, err := d.createPlayerVault(ctx, playerUuid, req.PlayerName, req.AvatarShape, true)
	if err != nil {
		// The original kept running past its error reply here; keep the
		// one-reply-per-request contract and log the anomaly instead.
		d.log.Error("player vault creation failed", "name", req.PlayerName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}

	if err := d.db.InsertPlayer(ctx, req.AcctUuid, playerNode, req.PlayerName, req.AvatarShape, 1); err != nil {
		d.log.Error("player insert failed", "name", req.PlayerName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	req.PlayerIdx = playerNode
	req.Explorer = 1
	d.log.Info("player created", "name", req.PlayerName, "idx", playerNode)
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleCreateNode(ctx context.Context, req *NodeRequest) {
	now := uint32(time.Now().Unix())
	req.Node.SetCreateTime(now)
	req.Node.SetModifyTime(now)
	idx, err := d.db.CreateNode(ctx, req.Node)
	if err != nil {
		d.log.Error("vault node create failed", "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	req.Node.SetNodeIdx(idx)
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleFetchNode(ctx context.Context, req *NodeRequest) {
	node, err := d.db.FetchNode(ctx, req.Node.NodeIdx)
	if err != nil {
		d.log.Error("vault node fetch failed", "idx", req.Node.NodeIdx, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if node == nil {
		reply(req.Request, netio.NetVaultNodeNotFound)
		return
	}
	req.Node = node
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleUpdateNode(ctx context.Context, req *NodeRequest) {
	req.Node.SetModifyTime(uint32(time.Now().Unix()))
	if err := d.db.UpdateNode(ctx, req.Node); err != nil {
		d.log.Error("vault node update failed", "idx", req.Node.NodeIdx, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleRefNode(ctx context.Context, req *RefRequest) {
	if err := d.db.RefNode(ctx, req.Ref.Parent, req.Ref.Child, req.Ref.Owner); err != nil {
		d.log.Error("vault ref failed", "parent", req.Ref.Parent, "child", req.Ref.Child, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleUnrefNode(ctx context.Context, req *RefRequest) {
	if err := d.db.UnrefNode(ctx, req.Ref.Parent, req.Ref.Child); err != nil {
		d.log.Error("vault unref failed", "parent", req.Ref.Parent, "child", req.Ref.Child, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleFetchNodeTree(ctx context.Context, req *NodeTreeRequest) {
	refs, err := d.db.FetchNodeTree(ctx, req.NodeID)
	if err != nil {
		d.log.Error("vault tree fetch failed", "root", req.NodeID, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	req.Refs = refs
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleFindNode(ctx context.Context, req *FindNodeRequest) {
	if req.Template == nil || req.Template.IsNull() {
		reply(req.Request, netio.NetInvalidParameter)
		return
	}
	found, err := d.db.FindNodes(ctx, req.Template)
	if err != nil {
		d.log.Error("vault find failed", "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if len(found) == 0 {
		reply(req.Request, netio.NetVaultNodeNotFound)
		return
	}
	req.Found = found
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleInitAge(ctx context.Context, req *InitAgeRequest) {
	ageIdx, infoIdx, err := d.initAge(ctx, req)
	if err != nil {
		d.log.Error("init age failed", "filename", req.Filename, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	req.AgeNodeIdx = ageIdx
	req.InfoNodeIdx = infoIdx
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleFindGameServer(ctx context.Context, req *GameServerRequest) {
	srv, err := d.db.GetGameServerByUuid(ctx, req.InstanceUuid)
	if err != nil {
		d.log.Error("game server lookup failed", "uuid", req.InstanceUuid.String(), "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if srv == nil {
		// First join of this instance: build the vault side, then the row.
		initReq := &InitAgeRequest{
			InstanceUuid: req.InstanceUuid,
			Filename:     req.AgeFilename,
			SeqNumber:    0,
			Language:     -1,
		}
		ageIdx, infoIdx, err := d.initAge(ctx, initReq)
		if err != nil {
			d.log.Error("game server age init failed", "filename", req.AgeFilename, "err", err)
			reply(req.Request, netio.NetInternalError)
			return
		}
		sdlIdx, err := d.findAgeSdlNode(ctx, infoIdx)
		if err != nil {
			d.log.Error("age sdl lookup failed", "filename", req.AgeFilename, "err", err)
			reply(req.Request, netio.NetInternalError)
			return
		}
		idx, err := d.db.CreateGameServer(ctx, req.InstanceUuid, req.AgeFilename, ageIdx, sdlIdx)
		if err != nil {
			d.log.Error("game server create failed", "filename", req.AgeFilename, "err", err)
			reply(req.Request, netio.NetInternalError)
			return
		}
		srv = &db.GameServer{Idx: idx, AgeUuid: req.InstanceUuid, AgeFilename: req.AgeFilename, AgeIdx: ageIdx, SdlIdx: sdlIdx}
	}
	req.McpID = srv.Idx
	req.AgeNodeIdx = srv.AgeIdx
	req.SdlNodeIdx = srv.SdlIdx
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleDisconnect(ctx context.Context, req *DisconnectRequest) {
	// Presence bookkeeping (PlayerInfo online flag) lives in the vault.
	if req.PlayerIdx != 0 {
		template := &vault.Node{}
		template.SetNodeType(vault.NodePlayerInfo)
		template.SetUint32_1(req.PlayerIdx)
		found, err := d.db.FindNodes(ctx, template)
		if err == nil && len(found) == 1 {
			update := &vault.Node{}
			update.SetNodeIdx(found[0])
			update.SetInt32_1(0) // online flag
			if err := d.db.UpdateNode(ctx, update); err != nil {
				d.log.Error("disconnect presence update failed", "player", req.PlayerIdx, "err", err)
			}
		}
	}
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleAddAcct(ctx context.Context, req *AddAcctRequest) {
	acct, err := d.db.GetAccount(ctx, req.AcctName)
	if err != nil {
		d.log.Error("account lookup failed", "acct", req.AcctName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	if acct != nil {
		reply(req.Request, netio.NetAccountAlreadyExists)
		return
	}
	if err := d.db.CreateAccount(ctx, req.AcctName, req.PassHash, wire.NewUuid()); err != nil {
		d.log.Error("account create failed", "acct", req.AcctName, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	d.log.Info("account created", "acct", req.AcctName)
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleGetPublic(ctx context.Context, req *PublicAgeListRequest) {
	template := &vault.Node{}
	template.SetNodeType(vault.NodeAgeInfo)
	template.SetString64_2(req.Filename)
	template.SetInt32_2(1) // public flag
	found, err := d.db.FindNodes(ctx, template)
	if err != nil {
		d.log.Error("public age list failed", "filename", req.Filename, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	for _, idx := range found {
		node, err := d.db.FetchNode(ctx, idx)
		if err != nil || node == nil {
			continue
		}
		req.Ages = append(req.Ages, PublicAge{
			InstanceUuid: node.Uuid_1,
			InstanceName: node.String64_3,
			UserName:     node.String64_4,
			Description:  node.Text_1,
			SeqNumber:    node.Int32_1,
			Language:     node.Int32_3,
		})
	}
	reply(req.Request, netio.NetSuccess)
}

func (d *Daemon) handleSetPublic(ctx context.Context, req *SetPublicRequest) {
	update := &vault.Node{}
	update.SetNodeIdx(req.AgeInfoIdx)
	if req.Public {
		update.SetInt32_2(1)
	} else {
		update.SetInt32_2(0)
	}
	if err := d.db.UpdateNode(ctx, update); err != nil {
		d.log.Error("set public failed", "idx", req.AgeInfoIdx, "err", err)
		reply(req.Request, netio.NetInternalError)
		return
	}
	reply(req.Request, netio.NetSuccess)
}
