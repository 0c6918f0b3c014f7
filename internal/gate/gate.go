// Package gate implements the Gatekeeper service: it hands clients the
// addresses of the file and auth servers.
package gate

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/wire"
)

// Gatekeeper message ids.
const (
	CliToGatePingRequest              uint16 = 0
	CliToGateFileServIpAddressRequest uint16 = 1
	CliToGateAuthServIpAddressRequest uint16 = 2

	GateToCliPingReply              uint16 = 0
	GateToCliFileServIpAddressReply uint16 = 1
	GateToCliAuthServIpAddressReply uint16 = 2
)

type client struct {
	conn *netio.Conn
	buf  *wire.BufferStream
}

// Service accepts gatekeeper connections handed over by the lobby.
type Service struct {
	cfg config.Settings
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewService returns a gatekeeper bound to the configured addresses.
func NewService(cfg config.Settings) *Service {
	return &Service{
		cfg:     cfg,
		log:     slog.With("service", "gate"),
		clients: make(map[*client]struct{}),
	}
}

// Add takes ownership of an accepted connection.
func (s *Service) Add(conn *netio.Conn) {
	go s.worker(conn)
}

// Shutdown closes every client socket and waits for the workers to drain.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for cli := range s.clients {
		cli.conn.Close()
	}
	s.mu.Unlock()

	drained := false
	for i := 0; i < 50 && !drained; i++ {
		s.mu.Lock()
		drained = len(s.clients) == 0
		s.mu.Unlock()
		if !drained {
			time.Sleep(100 * time.Millisecond)
		}
	}
	if !drained {
		s.log.Warn("gate clients did not drain within 5 seconds")
	}
}

func (s *Service) worker(conn *netio.Conn) {
	cli := &client{conn: conn, buf: wire.NewBufferStream(256)}
	s.mu.Lock()
	s.clients[cli] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, cli)
		s.mu.Unlock()
		conn.Close()
	}()

	if err := s.initClient(cli); err != nil {
		if !errors.Is(err, netio.ErrHangup) {
			s.log.Warn("gate handshake failed", "remote", conn.IP(), "err", err)
		}
		return
	}

	for {
		msgID, err := conn.ReadU16()
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("gate read failed", "remote", conn.IP(), "err", err)
			}
			return
		}
		switch msgID {
		case CliToGatePingRequest:
			err = s.onPing(cli)
		case CliToGateFileServIpAddressRequest:
			err = s.onFileServAddress(cli)
		case CliToGateAuthServIpAddressRequest:
			err = s.onAuthServAddress(cli)
		default:
			s.log.Warn("invalid gate message", "remote", conn.IP(), "msg", msgID)
			return
		}
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("gate client error", "remote", conn.IP(), "err", err)
			}
			return
		}
	}
}

func (s *Service) initClient(cli *client) error {
	// Gate header: size, null uuid (ignored)
	size, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	if size != 20 {
		return errors.New("bad gate header size")
	}
	if _, err := cli.conn.ReadUuid(); err != nil {
		return err
	}
	return netio.EstablishServer(cli.conn, s.cfg.GateN, s.cfg.GateK)
}

func (s *Service) onPing(cli *client) error {
	pingTime, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	payloadSize, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	payload, err := cli.conn.ReadBytes(int(payloadSize))
	if err != nil {
		return err
	}

	cli.buf.Truncate()
	cli.buf.WriteU16(GateToCliPingReply)
	cli.buf.WriteU32(pingTime)
	cli.buf.WriteU32(transID)
	cli.buf.WriteU32(payloadSize)
	cli.buf.WriteBytes(payload)
	return cli.conn.SendStream(cli.buf)
}

func (s *Service) onFileServAddress(cli *client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	// From patcher? (ignored)
	if _, err := cli.conn.ReadU8(); err != nil {
		return err
	}

	cli.buf.Truncate()
	cli.buf.WriteU16(GateToCliFileServIpAddressReply)
	cli.buf.WriteU32(transID)
	cli.buf.WritePString16UTF16(s.cfg.FileServ)
	return cli.conn.SendStream(cli.buf)
}

func (s *Service) onAuthServAddress(cli *client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}

	cli.buf.Truncate()
	cli.buf.WriteU16(GateToCliAuthServIpAddressReply)
	cli.buf.WriteU32(transID)
	cli.buf.WritePString16UTF16(s.cfg.AuthServ)
	return cli.conn.SendStream(cli.buf)
}
