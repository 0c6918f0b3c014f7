package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/moulgo/internal/agefile"
	"github.com/udisondev/moulgo/internal/auth"
	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/db"
	"github.com/udisondev/moulgo/internal/moul"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/sdl"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// Game service message ids.
const (
	CliToGamePingRequest     uint16 = 0
	CliToGameJoinAgeRequest  uint16 = 1
	CliToGamePropagateBuffer uint16 = 2
	CliToGameGameMgrMsg      uint16 = 3

	GameToCliPingReply       uint16 = 0
	GameToCliJoinAgeReply    uint16 = 1
	GameToCliPropagateBuffer uint16 = 2
	GameToCliGameMgrMsg      uint16 = 3
)

// Client is one connected game session.
type Client struct {
	conn  *netio.Conn
	reply *msgchan.Channel
	buf   *wire.BufferStream
	host  *Host

	acctUuid  wire.Uuid
	clientID  wire.Uuid
	info      moul.ClientGuid
	clientKey moul.Uoid
	hasKey    bool

	regionsICareAbout wire.BitVector
}

// Service accepts game connections handed over by the lobby and maintains
// the host registry: exactly one running host per ageMcpId.
type Service struct {
	cfg    config.Settings
	db     *db.DB
	authCh *msgchan.Channel
	sdlDb  *sdl.DescriptorDb
	ages   map[string]agefile.AgeInfo
	log    *slog.Logger

	hostMu sync.Mutex
	hosts  map[uint32]*Host
}

// NewService loads the age descriptors and returns a game service.
func NewService(cfg config.Settings, database *db.DB, authCh *msgchan.Channel, sdlDb *sdl.DescriptorDb) (*Service, error) {
	ages, err := agefile.LoadDirectory(cfg.AgePath)
	if err != nil {
		return nil, fmt.Errorf("loading age descriptors: %w", err)
	}
	return &Service{
		cfg:    cfg,
		db:     database,
		authCh: authCh,
		sdlDb:  sdlDb,
		ages:   ages,
		log:    slog.With("service", "game"),
		hosts:  make(map[uint32]*Host),
	}, nil
}

// Add takes ownership of an accepted connection.
func (s *Service) Add(conn *netio.Conn) {
	go s.worker(conn)
}

// Shutdown stops every host; each host drains its own clients.
func (s *Service) Shutdown() {
	s.hostMu.Lock()
	for _, host := range s.hosts {
		host.Channel().Put(TagShutdown, nil)
	}
	s.hostMu.Unlock()

	drained := false
	for i := 0; i < 50 && !drained; i++ {
		s.hostMu.Lock()
		drained = len(s.hosts) == 0
		s.hostMu.Unlock()
		if !drained {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if !drained {
		s.log.Warn("game hosts did not drain within 5 seconds")
	}
}

// findOrStartHost returns the running host for mcpID, starting one when
// needed. The registry lock covers lookup and insert, so concurrent joins
// of a fresh instance agree on a single host; losers use the winner's.
func (s *Service) findOrStartHost(ctx context.Context, mcpID uint32) (*Host, error) {
	s.hostMu.Lock()
	if host, ok := s.hosts[mcpID]; ok {
		s.hostMu.Unlock()
		return host, nil
	}
	s.hostMu.Unlock()

	// Blocking work happens without the registry lock; the insert below
	// rechecks for a concurrent winner.
	srv, err := s.db.GetGameServer(ctx, mcpID)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, fmt.Errorf("no game server with mcp id %d", mcpID)
	}

	host := &Host{
		serverIdx:    srv.Idx,
		instanceUuid: srv.AgeUuid,
		ageFilename:  srv.AgeFilename,
		ageIdx:       srv.AgeIdx,
		sdlIdx:       srv.SdlIdx,
		db:           s.db,
		authCh:       s.authCh,
		sdlDb:        s.sdlDb,
		ch:           msgchan.New(),
		log:          s.log.With("age", srv.AgeFilename, "mcp", srv.Idx),
		clients:      make(map[uint32]*Client),
		buf:          wire.NewBufferStream(1024),
		vaultPort:    msgchan.New(),
		onExit: func(h *Host) {
			s.hostMu.Lock()
			delete(s.hosts, h.serverIdx)
			s.hostMu.Unlock()
		},
	}
	if age, ok := s.ages[srv.AgeFilename]; ok {
		host.seqPrefix = age.SeqPrefix
	}

	// Pull the authoritative age SDL out of the vault before serving.
	if srv.SdlIdx != 0 {
		node := &vault.Node{}
		node.SetNodeIdx(srv.SdlIdx)
		req := &auth.NodeRequest{Request: auth.Request{Reply: host.vaultPort}, Node: node}
		s.authCh.Put(auth.TagVaultFetchNode, req)
		if host.vaultPort.Get().Tag == netio.NetSuccess && len(req.Node.Blob_1) > 0 {
			host.ageSDL = host.reconcileAgeSDL(req.Node.Blob_1)
		}
	}

	s.hostMu.Lock()
	if winner, ok := s.hosts[mcpID]; ok {
		// Someone else raced us here; their host serves the age.
		s.hostMu.Unlock()
		host.vaultPort.Close()
		host.ch.Close()
		return winner, nil
	}
	s.hosts[mcpID] = host
	s.hostMu.Unlock()

	go host.Run(ctx)
	s.log.Info("game host started", "age", srv.AgeFilename, "mcp", srv.Idx)
	return host, nil
}

func (s *Service) worker(conn *netio.Conn) {
	cli := &Client{
		conn:  conn,
		reply: msgchan.New(),
		buf:   wire.NewBufferStream(512),
	}
	defer func() {
		if cli.host != nil {
			cli.host.mu.Lock()
			delete(cli.host.clients, cli.info.PlayerID)
			cli.host.mu.Unlock()
			if !cli.host.closing.Load() {
				msg := &ClientMessage{Client: cli}
				cli.host.Channel().Put(TagDisconnect, msg)
				cli.reply.Get()
			}
		}
		cli.reply.Close()
		conn.Close()
	}()

	if err := s.initClient(cli); err != nil {
		if !errors.Is(err, netio.ErrHangup) {
			s.log.Warn("game handshake failed", "remote", conn.IP(), "err", err)
		}
		return
	}

	ctx := context.Background()
	for {
		msgID, err := conn.ReadU16()
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("game read failed", "remote", conn.IP(), "err", err)
			}
			return
		}
		switch msgID {
		case CliToGamePingRequest:
			err = s.onPing(cli)
		case CliToGameJoinAgeRequest:
			err = s.onJoinAge(ctx, cli)
		case CliToGamePropagateBuffer:
			if cli.host == nil {
				s.log.Warn("propagate before join", "remote", conn.IP())
				return
			}
			err = s.onPropagate(cli)
		case CliToGameGameMgrMsg:
			if cli.host == nil {
				s.log.Warn("game mgr message before join", "remote", conn.IP())
				return
			}
			err = s.onGameMgrMsg(cli)
		default:
			s.log.Warn("invalid game message", "remote", conn.IP(), "msg", msgID)
			return
		}
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("game client error", "remote", conn.IP(), "err", err)
			}
			return
		}
	}
}

// initClient reads the 36-byte game framing header and runs the handshake.
func (s *Service) initClient(cli *Client) error {
	size, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	if size != 36 {
		return errors.New("bad game header size")
	}
	if cli.acctUuid, err = cli.conn.ReadUuid(); err != nil {
		return err
	}
	// Age instance uuid; the join request names the instance by mcp id.
	if _, err := cli.conn.ReadUuid(); err != nil {
		return err
	}
	return netio.EstablishServer(cli.conn, s.cfg.GameN, s.cfg.GameK)
}

func (s *Service) onPing(cli *Client) error {
	pingTime, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	cli.buf.Truncate()
	cli.buf.WriteU16(GameToCliPingReply)
	cli.buf.WriteU32(pingTime)
	return cli.conn.SendStream(cli.buf)
}

func (s *Service) onJoinAge(ctx context.Context, cli *Client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	mcpID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	if cli.clientID, err = cli.conn.ReadUuid(); err != nil {
		return err
	}
	playerID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}

	sendReply := func(result int32) error {
		cli.buf.Truncate()
		cli.buf.WriteU16(GameToCliJoinAgeReply)
		cli.buf.WriteU32(transID)
		cli.buf.WriteU32(uint32(result))
		return cli.conn.SendStream(cli.buf)
	}

	if playerID == 0 {
		return sendReply(netio.NetInvalidParameter)
	}

	host, err := s.findOrStartHost(ctx, mcpID)
	if err != nil {
		s.log.Warn("join failed", "remote", cli.conn.IP(), "mcp", mcpID, "err", err)
		return sendReply(netio.NetAgeNotFound)
	}

	// The display name comes from the player's vault node.
	node := &vault.Node{}
	node.SetNodeIdx(playerID)
	fetch := &auth.NodeRequest{Request: auth.Request{Reply: cli.reply}, Node: node}
	s.authCh.Put(auth.TagVaultFetchNode, fetch)
	if result := cli.reply.Get().Tag; result != netio.NetSuccess {
		return sendReply(result)
	}

	cli.info.SetPlayerID(playerID)
	cli.info.SetPlayerName(fetch.Node.IString64_1)
	cli.info.SetCCRLevel(0)

	cli.host = host
	msg := &ClientMessage{Client: cli}
	host.Channel().Put(TagJoinAge, msg)
	result := cli.reply.Get().Tag
	if err := sendReply(result); err != nil {
		return err
	}
	if result == netio.NetSuccess {
		host.mu.Lock()
		host.clients[playerID] = cli
		host.mu.Unlock()
	} else {
		cli.host = nil
	}
	return nil
}

func (s *Service) onPropagate(cli *Client) error {
	msgType, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	size, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	data, err := cli.conn.ReadBytes(int(size))
	if err != nil {
		return err
	}

	msg := &PropagateMessage{
		ClientMessage: ClientMessage{Client: cli},
		MsgType:       msgType,
		Data:          data,
	}
	cli.host.Channel().Put(TagPropagate, msg)
	cli.reply.Get()
	return nil
}

// onGameMgrMsg consumes and logs a game-manager message. The subsystem is
// reserved; nothing is dispatched yet.
func (s *Service) onGameMgrMsg(cli *Client) error {
	size, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	data, err := cli.conn.ReadBytes(int(size))
	if err != nil {
		return err
	}
	s.log.Info("game mgr message dropped", "remote", cli.conn.IP(), "bytes", len(data))
	return nil
}
