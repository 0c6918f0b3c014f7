package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/moulgo/internal/auth"
	"github.com/udisondev/moulgo/internal/db"
	"github.com/udisondev/moulgo/internal/moul"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/sdl"
	"github.com/udisondev/moulgo/internal/status"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// ageSDLHook is the special object whose state is the age SDL.
const ageSDLHook = "AgeSDLHook"

// Host runs one age instance. All game messages for the instance are
// dispatched serially on the host goroutine, giving a total order of state
// mutations per age. The client map is guarded by mu so workers can insert
// and remove themselves.
type Host struct {
	serverIdx    uint32 // the ageMcpId
	instanceUuid wire.Uuid
	ageFilename  string
	ageIdx       uint32
	sdlIdx       uint32
	seqPrefix    int32

	db     *db.DB
	authCh *msgchan.Channel
	sdlDb  *sdl.DescriptorDb
	ch     *msgchan.Channel
	log    *slog.Logger

	mu      sync.Mutex
	clients map[uint32]*Client
	closing atomic.Bool

	ageSDL    []byte
	buf       *wire.BufferStream
	vaultPort *msgchan.Channel // reply port for the host's own vault requests

	onExit func(*Host)
}

// Channel is the host's request channel.
func (h *Host) Channel() *msgchan.Channel {
	return h.ch
}

// Run dispatches host messages until shutdown.
func (h *Host) Run(ctx context.Context) {
	for {
		msg := h.ch.Get()
		switch msg.Tag {
		case TagShutdown:
			h.shutdown()
			return
		case TagCleanup:
			h.cleanup()
		case TagJoinAge:
			h.join(msg.Payload.(*ClientMessage))
		case TagPropagate:
			h.gameMessage(ctx, msg.Payload.(*PropagateMessage))
		case TagDisconnect:
			h.disconnect(msg.Payload.(*ClientMessage))
		default:
			// This shouldn't happen; there is no requester to unblock.
			h.log.Error("game host got invalid message", "tag", msg.Tag)
		}
	}
}

func (h *Host) shutdown() {
	// Workers skip their disconnect round trip once this is set; the host
	// is no longer answering its channel.
	h.closing.Store(true)

	h.mu.Lock()
	for _, cli := range h.clients {
		cli.conn.Close()
	}
	h.mu.Unlock()

	drained := false
	for i := 0; i < 50 && !drained; i++ {
		h.mu.Lock()
		drained = len(h.clients) == 0
		h.mu.Unlock()
		if !drained {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if !drained {
		h.log.Warn("game clients did not drain within 5 seconds")
	}

	h.cleanup()
	if h.onExit != nil {
		h.onExit(h)
	}
	h.vaultPort.Close()
	h.ch.Close()
}

// cleanup writes the age SDL back to its vault node.
func (h *Host) cleanup() {
	if h.sdlIdx == 0 || len(h.ageSDL) == 0 {
		return
	}
	node := &vault.Node{}
	node.SetNodeIdx(h.sdlIdx)
	node.SetBlob_1(h.ageSDL)
	req := &auth.NodeRequest{
		Request: auth.Request{Reply: h.vaultPort},
		Node:    node,
	}
	h.authCh.Put(auth.TagVaultUpdateNode, req)
	if h.vaultPort.Get().Tag != netio.NetSuccess {
		h.log.Error("error writing age SDL back to vault", "node", h.sdlIdx)
	}
}

// writeMsg serializes a net message into the host scratch buffer with the
// propagate framing: msg id, creatable type, byte count, body.
func (h *Host) writeMsg(msg moul.Creatable) {
	h.buf.Truncate()
	h.buf.WriteU16(GameToCliPropagateBuffer)
	h.buf.WriteU32(uint32(msg.Type()))
	h.buf.WriteU32(0)
	moul.WriteCreatable(h.buf, msg)
	size := h.buf.Size()
	_ = h.buf.Seek(6, wire.SeekSet)
	h.buf.WriteU32(uint32(size - 10))
	_ = h.buf.Seek(0, wire.SeekEnd)
}

// propagate sends the scratch buffer to every client except sender. A send
// failure on one client never skips the rest; hung-up sockets are reaped by
// their own workers.
func (h *Host) propagate(msg moul.Creatable, sender uint32) {
	h.writeMsg(msg)
	status.Propagated.Inc()

	h.mu.Lock()
	defer h.mu.Unlock()
	for playerID, cli := range h.clients {
		if playerID == sender {
			continue
		}
		if err := cli.conn.SendStream(h.buf); err != nil {
			h.log.Debug("propagate send failed", "player", playerID, "err", err)
		}
	}
}

// propagateTo sends the scratch buffer only to the listed receivers.
func (h *Host) propagateTo(msg moul.Creatable, receivers []uint32) {
	h.writeMsg(msg)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, playerID := range receivers {
		cli, ok := h.clients[playerID]
		if !ok {
			continue
		}
		if err := cli.conn.SendStream(h.buf); err != nil {
			h.log.Debug("propagate send failed", "player", playerID, "err", err)
		}
	}
}

// sendTo sends the scratch buffer to a single client.
func (h *Host) sendTo(cli *Client) {
	if err := cli.conn.SendStream(h.buf); err != nil {
		h.log.Debug("send failed", "player", cli.info.PlayerID, "err", err)
	}
}

// join welcomes a client: it becomes the owner of its own sync group.
func (h *Host) join(msg *ClientMessage) {
	groupMsg := &moul.NetMsgGroupOwner{}
	groupMsg.ContentFlags = moul.NetHasTimeSent | moul.NetIsSystemMessage | moul.NetNeedsReliableSend
	groupMsg.Timestamp = wire.Now()
	groupMsg.Groups = []moul.GroupInfo{{Own: true}}

	h.writeMsg(groupMsg)
	h.sendTo(msg.Client)
	msg.reply(netio.NetSuccess)
}

func (h *Host) disconnect(msg *ClientMessage) {
	h.mu.Lock()
	empty := len(h.clients) == 0
	h.mu.Unlock()
	msg.reply(netio.NetSuccess)
	if empty {
		// Good time to write the age SDL back to the vault.
		h.ch.Put(TagCleanup, nil)
	}
}

// gameMessage parses and dispatches one propagated buffer.
func (h *Host) gameMessage(ctx context.Context, msg *PropagateMessage) {
	netmsg, err := moul.ReadCreatable(wire.FromBytes(msg.Data))
	if err != nil || netmsg == nil {
		h.log.Warn("ignoring unparseable message", "type", msg.MsgType, "err", err)
		msg.reply(netio.NetInternalError)
		return
	}

	sender := msg.Client.info.PlayerID
	switch uint16(msg.MsgType) {
	case moul.IDNetMsgPagingRoom:
		h.propagate(netmsg, sender)

	case moul.IDNetMsgGameStateRequest:
		h.sendState(ctx, msg.Client)

	case moul.IDNetMsgGameMessage:
		gm := netmsg.(*moul.NetMsgGameMessage)
		if gm.Msg != nil && gm.Msg.MakeSafeForNet() {
			h.propagate(netmsg, sender)
		}

	case moul.IDNetMsgGameMessageDirected:
		dm := netmsg.(*moul.NetMsgGameMessageDirected)
		if dm.Msg != nil && dm.Msg.MakeSafeForNet() {
			h.propagateTo(netmsg, dm.Receivers)
		}

	case moul.IDNetMsgVoice:
		vm := netmsg.(*moul.NetMsgVoice)
		h.propagateTo(netmsg, vm.Receivers)

	case moul.IDNetMsgTestAndSet:
		h.testAndSet(msg.Client, netmsg.(*moul.NetMsgTestAndSet))

	case moul.IDNetMsgMembersListReq:
		h.sendMembers(msg.Client)

	case moul.IDNetMsgSDLState:
		h.readSDL(ctx, msg.Client, netmsg.(*moul.NetMsgSDLState), false)

	case moul.IDNetMsgSDLStateBCast:
		h.readSDL(ctx, msg.Client, &netmsg.(*moul.NetMsgSDLStateBCast).NetMsgSDLState, true)

	case moul.IDNetMsgRelevanceRegions:
		// TODO: filter propagation by the client's relevance regions
		rr := netmsg.(*moul.NetMsgRelevanceRegions)
		msg.Client.regionsICareAbout = rr.RegionsICareAbout

	case moul.IDNetMsgLoadClone:
		lc := netmsg.(*moul.NetMsgLoadClone)
		h.mu.Lock()
		msg.Client.clientKey = lc.Object
		msg.Client.hasKey = true
		h.mu.Unlock()
		h.propagate(netmsg, sender)

	case moul.IDNetMsgPlayerPage:
		// TODO: track paged-in avatars; acknowledged only

	default:
		h.log.Warn("unhandled game message", "type", msg.MsgType)
	}
	msg.reply(netio.NetSuccess)
}

// sendState replays the age SDL and every persisted object state, then
// closes the batch with the state count.
func (h *Host) sendState(ctx context.Context, cli *Client) {
	states := uint32(0)

	state := &moul.NetMsgSDLState{}
	state.ContentFlags = moul.NetHasTimeSent | moul.NetNeedsReliableSend
	state.Timestamp = wire.Now()
	state.IsInitial = true
	state.PersistOnServer = true
	state.IsAvatar = false

	if len(h.ageSDL) > 0 {
		state.Object = moul.NewUoid()
		state.Object.Location = moul.MakeLocation(h.seqPrefix, -2, moul.LocBuiltIn)
		state.Object.Name = ageSDLHook
		state.Object.ObjType = 1 // SceneObject
		state.Object.ID = 1
		state.SDLBlob = h.ageSDL
		h.writeMsg(state)
		h.sendTo(cli)
		states++
	}

	persisted, err := h.db.ListAgeStates(ctx, h.serverIdx)
	if err != nil {
		h.log.Error("age state query failed", "err", err)
	}
	for _, st := range persisted {
		var object moul.Uoid
		if err := object.Read(wire.FromBytes(st.ObjectKey)); err != nil {
			h.log.Warn("skipping age state with bad object key", "err", err)
			continue
		}
		state.Object = object
		state.SDLBlob = st.SdlBlob
		h.writeMsg(state)
		h.sendTo(cli)
		states++
	}

	done := &moul.NetMsgInitialAgeStateSent{}
	done.ContentFlags = moul.NetHasTimeSent | moul.NetIsSystemMessage | moul.NetNeedsReliableSend
	done.Timestamp = wire.Now()
	done.NumStates = states
	h.writeMsg(done)
	h.sendTo(cli)
}

// testAndSet affirms every lock request; there is no real lock manager.
func (h *Host) testAndSet(cli *Client, msg *moul.NetMsgTestAndSet) {
	reply := &moul.ServerReplyMsg{}
	reply.Receivers = []moul.Key{moul.KeyFromUoid(msg.Object)}
	reply.BcastFlags = moul.BCastLocalPropagate
	reply.Reply = moul.ServerReplyAffirm

	netReply := &moul.NetMsgGameMessage{}
	netReply.ContentFlags = moul.NetHasTimeSent | moul.NetNeedsReliableSend
	netReply.Timestamp = wire.Now()
	netReply.Msg = reply

	h.writeMsg(netReply)
	h.sendTo(cli)
}

// sendMembers answers a members-list request with every other client that
// has loaded its avatar.
func (h *Host) sendMembers(cli *Client) {
	members := &moul.NetMsgMembersList{}
	members.ContentFlags = moul.NetHasTimeSent | moul.NetHasPlayerID |
		moul.NetIsSystemMessage | moul.NetNeedsReliableSend
	members.Timestamp = wire.Now()
	members.PlayerID = cli.info.PlayerID

	h.mu.Lock()
	for playerID, other := range h.clients {
		if playerID == cli.info.PlayerID || !other.hasKey {
			continue
		}
		members.Members = append(members.Members, moul.MemberInfo{
			Client:    other.info,
			AvatarKey: other.clientKey,
		})
	}
	h.mu.Unlock()

	h.writeMsg(members)
	h.sendTo(cli)
}

// readSDL reconciles one SDL state: the AgeSDLHook updates the in-memory
// age SDL, anything else persists per object. BCast variants rebroadcast.
func (h *Host) readSDL(ctx context.Context, cli *Client, state *moul.NetMsgSDLState, bcast bool) {
	if state.Object.Name == ageSDLHook {
		h.ageSDL = h.reconcileAgeSDL(state.SDLBlob)
	} else if state.PersistOnServer {
		keyBuf := wire.NewBufferStream(64)
		state.Object.Write(keyBuf)
		if err := h.db.UpsertAgeState(ctx, h.serverIdx, keyBuf.Bytes(), state.SDLBlob); err != nil {
			h.log.Error("age state store failed", "err", err)
			return
		}
	}

	if bcast {
		out := &moul.NetMsgSDLState{}
		out.ContentFlags = moul.NetHasTimeSent | moul.NetNeedsReliableSend
		out.Timestamp = wire.Now()
		out.IsInitial = false
		out.PersistOnServer = state.PersistOnServer
		out.IsAvatar = state.IsAvatar
		out.Object = state.Object
		out.SDLBlob = state.SDLBlob
		h.propagate(out, cli.info.PlayerID)
	}
}

// reconcileAgeSDL normalizes an incoming age SDL blob against the newest
// registered descriptor. Blobs the descriptor db cannot interpret are kept
// verbatim so unknown ages still round-trip.
func (h *Host) reconcileAgeSDL(blob []byte) []byte {
	if h.sdlDb == nil {
		return blob
	}
	state, err := sdl.ReadBlob(blob, h.sdlDb)
	if err != nil {
		h.log.Debug("age SDL kept verbatim", "err", err)
		return blob
	}
	return state.WriteBlob()
}
