package auth

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/status"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// Client-to-auth message ids.
const (
	CliToAuthPingRequest          uint16 = 0
	CliToAuthClientRegisterRequest uint16 = 1
	CliToAuthClientSetCCRLevel    uint16 = 2
	CliToAuthAcctLoginRequest     uint16 = 3
	CliToAuthAcctSetPlayerRequest uint16 = 6
	CliToAuthPlayerCreateRequest  uint16 = 17
	CliToAuthVaultNodeCreate      uint16 = 25
	CliToAuthVaultNodeFetch       uint16 = 26
	CliToAuthVaultNodeSave        uint16 = 27
	CliToAuthVaultNodeAdd         uint16 = 29
	CliToAuthVaultNodeRemove      uint16 = 30
	CliToAuthVaultFetchNodeRefs   uint16 = 31
	CliToAuthVaultInitAgeRequest  uint16 = 32
	CliToAuthVaultNodeFind        uint16 = 33
	CliToAuthVaultSetSeen         uint16 = 34
	CliToAuthAgeRequest           uint16 = 36
	CliToAuthGetPublicAgeList     uint16 = 41
	CliToAuthSetAgePublic         uint16 = 42
	CliToAuthLogPythonTraceback   uint16 = 43
	CliToAuthLogStackDump         uint16 = 44
	CliToAuthLogClientDebuggerConnect uint16 = 45
)

// Auth-to-client message ids.
const (
	AuthToCliPingReply           uint16 = 0
	AuthToCliClientRegisterReply uint16 = 3
	AuthToCliAcctLoginReply      uint16 = 4
	AuthToCliAcctPlayerInfo      uint16 = 6
	AuthToCliAcctSetPlayerReply  uint16 = 7
	AuthToCliPlayerCreateReply   uint16 = 16
	AuthToCliVaultNodeCreated    uint16 = 23
	AuthToCliVaultNodeFetched    uint16 = 24
	AuthToCliVaultNodeAdded      uint16 = 27
	AuthToCliVaultNodeRefsFetched uint16 = 29
	AuthToCliVaultInitAgeReply   uint16 = 30
	AuthToCliVaultNodeFindReply  uint16 = 31
	AuthToCliVaultSaveNodeReply  uint16 = 32
	AuthToCliVaultAddNodeReply   uint16 = 33
	AuthToCliVaultRemoveNodeReply uint16 = 34
	AuthToCliAgeReply            uint16 = 35
	AuthToCliPublicAgeList       uint16 = 40
)

// session is one connected auth client.
type session struct {
	conn  *netio.Conn
	reply *msgchan.Channel
	buf   *wire.BufferStream

	serverChallenge uint32
	acctUuid        wire.Uuid
	playerID        uint32
	playerName      string
}

// Service accepts auth connections handed over by the lobby and runs one
// worker goroutine per client.
type Service struct {
	cfg    config.Settings
	daemon *Daemon
	log    *slog.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// NewService wires the auth workers to their daemon.
func NewService(cfg config.Settings, daemon *Daemon) *Service {
	return &Service{
		cfg:      cfg,
		daemon:   daemon,
		log:      slog.With("service", "auth"),
		sessions: make(map[*session]struct{}),
	}
}

// Add takes ownership of an accepted connection.
func (s *Service) Add(conn *netio.Conn) {
	go s.worker(conn)
}

// Shutdown closes every client socket and waits up to five seconds for the
// workers to drain, then stops the daemon.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.Unlock()

	drained := false
	for i := 0; i < 50 && !drained; i++ {
		s.mu.Lock()
		drained = len(s.sessions) == 0
		s.mu.Unlock()
		if !drained {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if !drained {
		s.log.Warn("auth clients did not drain within 5 seconds")
	}
	s.daemon.Shutdown()
}

func (s *Service) worker(conn *netio.Conn) {
	sess := &session{
		conn:  conn,
		reply: msgchan.New(),
		buf:   wire.NewBufferStream(512),
	}
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		if sess.playerID != 0 {
			req := &DisconnectRequest{Request: Request{Reply: sess.reply}, PlayerIdx: sess.playerID}
			s.post(sess, TagDisconnect, req)
		}
		sess.reply.Close()
		conn.Close()
	}()

	if err := s.initSession(sess); err != nil {
		if !errors.Is(err, netio.ErrHangup) {
			s.log.Warn("auth handshake failed", "remote", conn.IP(), "err", err)
		}
		return
	}

	for {
		msgID, err := conn.ReadU16()
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("auth read failed", "remote", conn.IP(), "err", err)
			}
			return
		}
		if err := s.dispatch(sess, msgID); err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("auth client error", "remote", conn.IP(), "msg", msgID, "err", err)
			}
			return
		}
	}
}

// initSession reads the auth framing header and runs the cipher handshake.
func (s *Service) initSession(sess *session) error {
	// Auth header: size, null uuid (ignored)
	size, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	if size != 20 {
		return errors.New("bad auth header size")
	}
	if _, err := sess.conn.ReadUuid(); err != nil {
		return err
	}
	return netio.EstablishServer(sess.conn, s.cfg.AuthN, s.cfg.AuthK)
}

func (sess *session) startReply(msgID uint16) *wire.BufferStream {
	sess.buf.Truncate()
	sess.buf.WriteU16(msgID)
	return sess.buf
}

func (sess *session) sendReply() error {
	return sess.conn.SendStream(sess.buf)
}

// post sends a daemon request and blocks on the session's reply channel.
func (s *Service) post(sess *session, tag int32, payload any) int32 {
	s.daemon.Channel().Put(tag, payload)
	return sess.reply.Get().Tag
}

func (s *Service) dispatch(sess *session, msgID uint16) error {
	switch msgID {
	case CliToAuthPingRequest:
		return s.onPing(sess)
	case CliToAuthClientRegisterRequest:
		return s.onRegister(sess)
	case CliToAuthClientSetCCRLevel:
		_, err := sess.conn.ReadU32()
		return err
	case CliToAuthAcctLoginRequest:
		return s.onLogin(sess)
	case CliToAuthAcctSetPlayerRequest:
		return s.onSetPlayer(sess)
	case CliToAuthPlayerCreateRequest:
		return s.onCreatePlayer(sess)
	case CliToAuthVaultNodeCreate:
		return s.onNodeCreate(sess)
	case CliToAuthVaultNodeFetch:
		return s.onNodeFetch(sess)
	case CliToAuthVaultNodeSave:
		return s.onNodeSave(sess)
	case CliToAuthVaultNodeAdd:
		return s.onNodeAdd(sess)
	case CliToAuthVaultNodeRemove:
		return s.onNodeRemove(sess)
	case CliToAuthVaultFetchNodeRefs:
		return s.onFetchNodeRefs(sess)
	case CliToAuthVaultInitAgeRequest:
		return s.onInitAge(sess)
	case CliToAuthVaultNodeFind:
		return s.onNodeFind(sess)
	case CliToAuthVaultSetSeen:
		// parent, child, seen flag; acknowledged without a reply
		if _, err := sess.conn.ReadU32(); err != nil {
			return err
		}
		if _, err := sess.conn.ReadU32(); err != nil {
			return err
		}
		_, err := sess.conn.ReadU8()
		return err
	case CliToAuthAgeRequest:
		return s.onAgeRequest(sess)
	case CliToAuthGetPublicAgeList:
		return s.onGetPublicAgeList(sess)
	case CliToAuthSetAgePublic:
		return s.onSetAgePublic(sess)
	case CliToAuthLogPythonTraceback, CliToAuthLogStackDump:
		text, err := sess.conn.ReadStringUTF16()
		if err != nil {
			return err
		}
		s.log.Info("client log", "remote", sess.conn.IP(), "text", text)
		return nil
	case CliToAuthLogClientDebuggerConnect:
		_, err := sess.conn.ReadU32()
		return err
	default:
		s.log.Warn("invalid auth message", "remote", sess.conn.IP(), "msg", msgID)
		return errors.New("invalid message id")
	}
}

func (s *Service) onPing(sess *session) error {
	pingTime, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	payloadSize, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	payload, err := sess.conn.ReadBytes(int(payloadSize))
	if err != nil {
		return err
	}

	buf := sess.startReply(AuthToCliPingReply)
	buf.WriteU32(pingTime)
	buf.WriteU32(transID)
	buf.WriteU32(payloadSize)
	buf.WriteBytes(payload)
	return sess.sendReply()
}

func (s *Service) onRegister(sess *session) error {
	buildID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	if buildID != 0 && buildID != s.cfg.ClientBuildID {
		s.log.Warn("wrong build id", "remote", sess.conn.IP(), "build", buildID)
		return errors.New("wrong build id")
	}

	var challenge [4]byte
	if _, err := rand.Read(challenge[:]); err != nil {
		return err
	}
	sess.serverChallenge = binary.LittleEndian.Uint32(challenge[:])

	buf := sess.startReply(AuthToCliClientRegisterReply)
	buf.WriteU32(sess.serverChallenge)
	return sess.sendReply()
}

func (s *Service) onLogin(sess *session) error {
	req := &LoginRequest{Request: Request{Reply: sess.reply}}
	req.ServerChallenge = sess.serverChallenge

	var err error
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	if req.ClientChallenge, err = sess.conn.ReadU32(); err != nil {
		return err
	}
	if req.AcctName, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	hashRaw, err := sess.conn.ReadBytes(20)
	if err != nil {
		return err
	}
	copy(req.PassHash[:], hashRaw)
	if req.Token, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	if req.OS, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}

	result := s.post(sess, TagClientLogin, req)
	if result != netio.NetSuccess {
		buf := sess.startReply(AuthToCliAcctLoginReply)
		buf.WriteU32(transID)
		buf.WriteU32(uint32(result))
		wire.Uuid{}.Write(buf)
		buf.WriteU32(0)
		buf.WriteU32(0)
		buf.WriteBytes(make([]byte, 16))
		return sess.sendReply()
	}

	sess.acctUuid = req.AcctUuid
	status.Logins.Inc()

	// One player-info message per avatar, then the final login reply.
	for _, player := range req.Players {
		buf := sess.startReply(AuthToCliAcctPlayerInfo)
		buf.WriteU32(transID)
		buf.WriteU32(player.PlayerIdx)
		buf.WritePString16UTF16(player.PlayerName)
		buf.WritePString16UTF16(player.AvatarShape)
		buf.WriteU32(player.Explorer)
		if err := sess.sendReply(); err != nil {
			return err
		}
	}

	buf := sess.startReply(AuthToCliAcctLoginReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(netio.NetSuccess))
	req.AcctUuid.Write(buf)
	buf.WriteU32(req.AcctFlags)
	buf.WriteU32(req.BillingType)
	buf.WriteBytes(s.cfg.WdysKey[:])
	return sess.sendReply()
}

func (s *Service) onSetPlayer(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	playerID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}

	result := netio.NetSuccess
	if playerID == 0 {
		// Deselect the active player.
		sess.playerID = 0
		sess.playerName = ""
	} else {
		req := &SetPlayerRequest{
			Request:   Request{Reply: sess.reply},
			AcctUuid:  sess.acctUuid,
			PlayerIdx: playerID,
		}
		result = s.post(sess, TagSetPlayer, req)
		if result == netio.NetSuccess {
			sess.playerID = playerID
			sess.playerName = req.Player.PlayerName
		}
	}

	buf := sess.startReply(AuthToCliAcctSetPlayerReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	return sess.sendReply()
}

func (s *Service) onCreatePlayer(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	name, err := sess.conn.ReadStringUTF16()
	if err != nil {
		return err
	}
	shape, err := sess.conn.ReadStringUTF16()
	if err != nil {
		return err
	}
	// Friend invite key; unused
	if _, err := sess.conn.ReadStringUTF16(); err != nil {
		return err
	}

	req := &CreatePlayerRequest{
		Request:     Request{Reply: sess.reply},
		AcctUuid:    sess.acctUuid,
		PlayerName:  name,
		AvatarShape: shape,
	}
	result := s.post(sess, TagCreatePlayer, req)

	buf := sess.startReply(AuthToCliPlayerCreateReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	if result == netio.NetSuccess {
		buf.WriteU32(req.PlayerIdx)
		buf.WriteU32(req.Explorer)
		buf.WritePString16UTF16(req.PlayerName)
		buf.WritePString16UTF16(req.AvatarShape)
	} else {
		buf.WriteU32(0)
		buf.WriteU32(0)
		buf.WriteU16(0)
		buf.WriteU16(0)
	}
	return sess.sendReply()
}

// readNodeBuffer reads a u32-prefixed serialized vault node.
func (sess *session) readNodeBuffer() (*vault.Node, error) {
	size, err := sess.conn.ReadU32()
	if err != nil {
		return nil, err
	}
	raw, err := sess.conn.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	node := &vault.Node{}
	if err := node.Read(wire.FromBytes(raw)); err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Service) onNodeCreate(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	node, err := sess.readNodeBuffer()
	if err != nil {
		return err
	}

	req := &NodeRequest{Request: Request{Reply: sess.reply}, Node: node}
	result := s.post(sess, TagVaultCreateNode, req)

	buf := sess.startReply(AuthToCliVaultNodeCreated)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	if result == netio.NetSuccess {
		buf.WriteU32(req.Node.NodeIdx)
	} else {
		buf.WriteU32(0)
	}
	return sess.sendReply()
}

func (s *Service) onNodeFetch(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	nodeID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}

	node := &vault.Node{}
	node.SetNodeIdx(nodeID)
	req := &NodeRequest{Request: Request{Reply: sess.reply}, Node: node}
	result := s.post(sess, TagVaultFetchNode, req)

	buf := sess.startReply(AuthToCliVaultNodeFetched)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	if result == netio.NetSuccess {
		nodeBuf := wire.NewBufferStream(256)
		req.Node.Write(nodeBuf)
		buf.WriteU32(uint32(nodeBuf.Size()))
		buf.WriteBytes(nodeBuf.Bytes())
	} else {
		buf.WriteU32(0)
	}
	return sess.sendReply()
}

func (s *Service) onNodeSave(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	nodeID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	revision, err := sess.conn.ReadUuid()
	if err != nil {
		return err
	}
	node, err := sess.readNodeBuffer()
	if err != nil {
		return err
	}
	node.SetNodeIdx(nodeID)

	req := &NodeRequest{Request: Request{Reply: sess.reply}, Node: node, Revision: revision}
	result := s.post(sess, TagVaultUpdateNode, req)

	buf := sess.startReply(AuthToCliVaultSaveNodeReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	return sess.sendReply()
}

func (s *Service) onNodeAdd(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	var ref vault.NodeRef
	if ref.Parent, err = sess.conn.ReadU32(); err != nil {
		return err
	}
	if ref.Child, err = sess.conn.ReadU32(); err != nil {
		return err
	}
	if ref.Owner, err = sess.conn.ReadU32(); err != nil {
		return err
	}

	req := &RefRequest{Request: Request{Reply: sess.reply}, Ref: ref}
	result := s.post(sess, TagVaultRefNode, req)

	buf := sess.startReply(AuthToCliVaultAddNodeReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	return sess.sendReply()
}

func (s *Service) onNodeRemove(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	var ref vault.NodeRef
	if ref.Parent, err = sess.conn.ReadU32(); err != nil {
		return err
	}
	if ref.Child, err = sess.conn.ReadU32(); err != nil {
		return err
	}

	req := &RefRequest{Request: Request{Reply: sess.reply}, Ref: ref}
	result := s.post(sess, TagVaultUnrefNode, req)

	buf := sess.startReply(AuthToCliVaultRemoveNodeReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	return sess.sendReply()
}

func (s *Service) onFetchNodeRefs(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	nodeID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}

	req := &NodeTreeRequest{Request: Request{Reply: sess.reply}, NodeID: nodeID}
	result := s.post(sess, TagVaultFetchNodeTree, req)

	buf := sess.startReply(AuthToCliVaultNodeRefsFetched)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	if result == netio.NetSuccess {
		buf.WriteU32(uint32(len(req.Refs)))
		for _, ref := range req.Refs {
			ref.Write(buf)
		}
	} else {
		buf.WriteU32(0)
	}
	return sess.sendReply()
}

func (s *Service) onInitAge(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	req := &InitAgeRequest{Request: Request{Reply: sess.reply}}
	if req.InstanceUuid, err = sess.conn.ReadUuid(); err != nil {
		return err
	}
	if req.ParentUuid, err = sess.conn.ReadUuid(); err != nil {
		return err
	}
	if req.Filename, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	if req.InstanceName, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	if req.UserName, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	if req.Description, err = sess.conn.ReadStringUTF16(); err != nil {
		return err
	}
	seqNumber, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	req.SeqNumber = int32(seqNumber)
	language, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	req.Language = int32(language)

	result := s.post(sess, TagVaultInitAge, req)

	buf := sess.startReply(AuthToCliVaultInitAgeReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	buf.WriteU32(req.AgeNodeIdx)
	buf.WriteU32(req.InfoNodeIdx)
	return sess.sendReply()
}

func (s *Service) onNodeFind(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	template, err := sess.readNodeBuffer()
	if err != nil {
		return err
	}

	req := &FindNodeRequest{Request: Request{Reply: sess.reply}, Template: template}
	result := s.post(sess, TagVaultFindNode, req)

	buf := sess.startReply(AuthToCliVaultNodeFindReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	buf.WriteU32(uint32(len(req.Found)))
	for _, idx := range req.Found {
		buf.WriteU32(idx)
	}
	return sess.sendReply()
}

func (s *Service) onAgeRequest(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	ageName, err := sess.conn.ReadStringUTF16()
	if err != nil {
		return err
	}
	instanceUuid, err := sess.conn.ReadUuid()
	if err != nil {
		return err
	}

	req := &GameServerRequest{
		Request:      Request{Reply: sess.reply},
		AgeFilename:  ageName,
		InstanceUuid: instanceUuid,
	}
	result := s.post(sess, TagFindGameServer, req)

	buf := sess.startReply(AuthToCliAgeReply)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	buf.WriteU32(req.McpID)
	instanceUuid.Write(buf)
	buf.WriteU32(req.AgeNodeIdx)
	buf.WriteU32(ipToU32(s.cfg.GameServ))
	return sess.sendReply()
}

func (s *Service) onGetPublicAgeList(sess *session) error {
	transID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	filename, err := sess.conn.ReadStringUTF16()
	if err != nil {
		return err
	}

	req := &PublicAgeListRequest{Request: Request{Reply: sess.reply}, Filename: filename}
	result := s.post(sess, TagGetPublic, req)

	buf := sess.startReply(AuthToCliPublicAgeList)
	buf.WriteU32(transID)
	buf.WriteU32(uint32(result))
	buf.WriteU32(uint32(len(req.Ages)))
	for _, age := range req.Ages {
		age.InstanceUuid.Write(buf)
		writeFixedUTF16(buf, age.InstanceName, 64)
		writeFixedUTF16(buf, age.UserName, 64)
		writeFixedUTF16(buf, age.Description, 1024)
		buf.WriteU32(uint32(age.SeqNumber))
		buf.WriteU32(uint32(age.Language))
		buf.WriteU32(age.Population)
	}
	return sess.sendReply()
}

func (s *Service) onSetAgePublic(sess *session) error {
	ageInfoID, err := sess.conn.ReadU32()
	if err != nil {
		return err
	}
	public, err := sess.conn.ReadU8()
	if err != nil {
		return err
	}

	req := &SetPublicRequest{
		Request:    Request{Reply: sess.reply},
		AgeInfoIdx: ageInfoID,
		Public:     public != 0,
	}
	s.post(sess, TagSetPublic, req)
	// No reply message for this one; the client watches the vault.
	return nil
}

// writeFixedUTF16 writes a zero-padded fixed-width UTF-16 field.
func writeFixedUTF16(buf *wire.BufferStream, value string, width int) {
	units := wire.EncodeUTF16(value)
	if len(units) > width-1 {
		units = units[:width-1]
	}
	for _, u := range units {
		buf.WriteU16(u)
	}
	for i := len(units); i < width; i++ {
		buf.WriteU16(0)
	}
}

// ipToU32 renders a dotted-quad advertised address as the u32 the client
// expects. Hostnames resolve through the system resolver.
func ipToU32(addr string) uint32 {
	ip := net.ParseIP(addr)
	if ip == nil {
		ips, err := net.LookupIP(addr)
		if err != nil || len(ips) == 0 {
			return 0
		}
		ip = ips[0]
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}
