// Package lobby accepts every client TCP connection and routes it to the
// right service by the connection header's type byte.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/status"
)

// Connection types from the client connect header.
const (
	ConnCliToAuth       uint8 = 10
	ConnCliToGame       uint8 = 11
	ConnCliToFile       uint8 = 16
	ConnCliToCsr        uint8 = 20
	ConnCliToGateKeeper uint8 = 22
)

// Service is anything that can take ownership of a routed connection.
type Service interface {
	Add(conn *netio.Conn)
}

// Lobby is the single accept loop in front of the four services.
type Lobby struct {
	addr string
	log  *slog.Logger

	auth Service
	game Service
	file Service
	gate Service

	mu       sync.Mutex
	listener net.Listener
}

// New wires the lobby to its services.
func New(addr string, auth, game, file, gate Service) *Lobby {
	return &Lobby{
		addr: addr,
		log:  slog.With("service", "lobby"),
		auth: auth,
		game: game,
		file: file,
		gate: gate,
	}
}

// Addr returns the bound listen address, nil before Run.
func (l *Lobby) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Close stops the accept loop.
func (l *Lobby) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}

// Run binds the listen address and accepts until the context is canceled.
func (l *Lobby) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}
	l.mu.Lock()
	l.listener = ln
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	l.log.Info("lobby running", "address", ln.Addr())
	for {
		sock, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.log.Error("accept failed", "err", err)
			continue
		}
		go l.route(netio.NewConn(sock))
	}
}

// route reads the connection header and hands the socket to its service.
// A protocol error here closes only the offending socket.
func (l *Lobby) route(conn *netio.Conn) {
	connType, err := conn.ReadU8()
	if err != nil {
		conn.Close()
		return
	}
	// Header size, build id, build type, branch id, product uuid — parsed
	// and discarded; the per-service framing headers follow.
	if _, err := conn.ReadU16(); err != nil {
		conn.Close()
		return
	}
	for i := 0; i < 3; i++ {
		if _, err := conn.ReadU32(); err != nil {
			conn.Close()
			return
		}
	}
	if _, err := conn.ReadUuid(); err != nil {
		conn.Close()
		return
	}

	switch connType {
	case ConnCliToAuth:
		status.ConnectionsAuth.Inc()
		l.auth.Add(conn)
	case ConnCliToGame:
		status.ConnectionsGame.Inc()
		l.game.Add(conn)
	case ConnCliToFile:
		status.ConnectionsFile.Inc()
		l.file.Add(conn)
	case ConnCliToGateKeeper:
		status.ConnectionsGate.Inc()
		l.gate.Add(conn)
	case ConnCliToCsr:
		l.log.Warn("rejecting CSR client", "remote", conn.IP())
		conn.Close()
	default:
		l.log.Warn("unknown connection type", "remote", conn.IP(), "type", connType)
		conn.Close()
	}
}
