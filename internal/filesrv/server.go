package filesrv

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/moulgo/internal/config"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/wire"
)

// File service message ids.
const (
	CliToFilePingRequest      uint32 = 0
	CliToFileBuildIdRequest   uint32 = 10
	CliToFileManifestRequest  uint32 = 20
	CliToFileDownloadRequest  uint32 = 21
	CliToFileManifestEntryAck uint32 = 22
	CliToFileDownloadChunkAck uint32 = 23

	FileToCliPingReply         uint32 = 0
	FileToCliBuildIdReply      uint32 = 10
	FileToCliManifestReply     uint32 = 20
	FileToCliFileDownloadReply uint32 = 21
)

type client struct {
	conn     *netio.Conn
	buf      *wire.BufferStream
	readerID uint32
}

// Service accepts file-server connections handed over by the lobby. The
// file protocol is plaintext and frame-based: every message carries a u32
// total size before its id.
type Service struct {
	cfg config.Settings
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewService returns a file service rooted at cfg.FileRoot.
func NewService(cfg config.Settings) *Service {
	return &Service{
		cfg:     cfg,
		log:     slog.With("service", "file"),
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
		s.log.Warn("file clients did not drain within 5 seconds")
	}
}

func (s *Service) worker(conn *netio.Conn) {
	cli := &client{conn: conn, buf: wire.NewBufferStream(1024)}
	s.mu.Lock()
	s.clients[cli] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, cli)
		s.mu.Unlock()
		conn.Close()
	}()

	// File header: size, buildId, serverType
	size, err := conn.ReadU32()
	if err != nil || size != 12 {
		return
	}
	if _, err := conn.ReadU32(); err != nil {
		return
	}
	if _, err := conn.ReadU32(); err != nil {
		return
	}

	for {
		// Message size (unused; the bodies are self-describing)
		if _, err := conn.ReadU32(); err != nil {
			return
		}
		msgID, err := conn.ReadU32()
		if err != nil {
			return
		}
		switch msgID {
		case CliToFilePingRequest:
			err = s.onPing(cli)
		case CliToFileBuildIdRequest:
			err = s.onBuildID(cli)
		case CliToFileManifestRequest:
			err = s.onManifest(cli)
		case CliToFileDownloadRequest:
			err = s.onDownload(cli)
		case CliToFileManifestEntryAck, CliToFileDownloadChunkAck:
			// This is TCP; the acks carry nothing we need.
			if _, err = cli.conn.ReadU32(); err == nil {
				_, err = cli.conn.ReadU32()
			}
		default:
			s.log.Warn("invalid file message", "remote", conn.IP(), "msg", msgID)
			return
		}
		if err != nil {
			if !errors.Is(err, netio.ErrHangup) {
				s.log.Warn("file client error", "remote", conn.IP(), "err", err)
			}
			return
		}
	}
}

// startReply reserves the size header; finishReply patches it and sends.
func (cli *client) startReply(msgID uint32) {
	cli.buf.Truncate()
	cli.buf.WriteU32(0)
	cli.buf.WriteU32(msgID)
}

func (cli *client) finishReply() error {
	size := uint32(cli.buf.Size())
	if err := cli.buf.Seek(0, wire.SeekSet); err != nil {
		return err
	}
	cli.buf.WriteU32(size)
	if err := cli.buf.Seek(0, wire.SeekEnd); err != nil {
		return err
	}
	return cli.conn.SendStream(cli.buf)
}

func (s *Service) onPing(cli *client) error {
	pingTime, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	cli.startReply(FileToCliPingReply)
	cli.buf.WriteU32(pingTime)
	return cli.finishReply()
}

func (s *Service) onBuildID(cli *client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	cli.startReply(FileToCliBuildIdReply)
	cli.buf.WriteU32(transID)
	cli.buf.WriteU32(uint32(netio.NetSuccess))
	cli.buf.WriteU32(s.cfg.ClientBuildID)
	return cli.finishReply()
}

// readFixedName reads the fixed 260-cell UTF-16 name field.
func (cli *client) readFixedName() (string, error) {
	raw, err := cli.conn.ReadBytes(260 * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, 0, 260)
	for i := 0; i+1 < len(raw); i += 2 {
		u := uint16(raw[i]) | uint16(raw[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return wire.DecodeUTF16(units), nil
}

func (s *Service) onManifest(cli *client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	name, err := cli.readFixedName()
	if err != nil {
		return err
	}
	buildID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	if buildID != 0 && buildID != s.cfg.ClientBuildID {
		s.log.Warn("wrong build id", "remote", cli.conn.IP(), "build", buildID)
		return errors.New("wrong build id")
	}

	cli.startReply(FileToCliManifestReply)
	cli.buf.WriteU32(transID)

	failReply := func() error {
		cli.buf.WriteU32(uint32(netio.NetFileNotFound))
		cli.buf.WriteU32(0) // Reader ID
		cli.buf.WriteU32(0) // File count
		cli.buf.WriteU32(0) // Data size
		return cli.finishReply()
	}

	// Manifest names may not contain path characters.
	if strings.ContainsAny(name, "./\\:") {
		s.log.Warn("invalid manifest request", "remote", cli.conn.IP(), "name", name)
		return failReply()
	}

	manifest, err := LoadManifest(filepath.Join(s.cfg.FileRoot, name+".mfs"))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("manifest load failed", "name", name, "err", err)
		} else {
			s.log.Warn("requested missing manifest", "remote", cli.conn.IP(), "name", name)
		}
		return failReply()
	}

	cli.readerID++
	cli.buf.WriteU32(uint32(netio.NetSuccess))
	cli.buf.WriteU32(cli.readerID)
	cli.buf.WriteU32(uint32(len(manifest.Files)))
	sizePos := cli.buf.Tell()
	cli.buf.WriteU32(0)
	dataSize := manifest.Encode(cli.buf)
	if err := cli.buf.Seek(sizePos, wire.SeekSet); err != nil {
		return err
	}
	cli.buf.WriteU32(dataSize)
	if err := cli.buf.Seek(0, wire.SeekEnd); err != nil {
		return err
	}
	return cli.finishReply()
}

// onDownload is a stub: the request is consumed and answered with
// FileNotFound so patchers fall back to manifest-driven delivery.
func (s *Service) onDownload(cli *client) error {
	transID, err := cli.conn.ReadU32()
	if err != nil {
		return err
	}
	name, err := cli.readFixedName()
	if err != nil {
		return err
	}
	if _, err := cli.conn.ReadU32(); err != nil { // build id
		return err
	}
	s.log.Info("download request (not served)", "remote", cli.conn.IP(), "name", name)

	cli.startReply(FileToCliFileDownloadReply)
	cli.buf.WriteU32(transID)
	cli.buf.WriteU32(uint32(netio.NetFileNotFound))
	cli.buf.WriteU32(0) // Reader ID
	cli.buf.WriteU32(0) // Total size
	cli.buf.WriteU32(0) // Chunk size
	return cli.finishReply()
}
