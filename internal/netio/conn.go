// Package netio provides the per-connection socket wrapper shared by all
// services: field-at-a-time little-endian reads and writes with the RC4
// connection cipher applied once the handshake completes.
package netio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/udisondev/moulgo/internal/crypto"
	"github.com/udisondev/moulgo/internal/wire"
)

// ErrHangup reports a peer that closed the connection.
var ErrHangup = errors.New("connection closed by peer")

// Conn wraps an accepted socket. Until Encrypt is called all traffic is
// plaintext; afterwards every byte in either direction goes through the
// connection cipher.
type Conn struct {
	sock  net.Conn
	crypt *crypto.State
	ip    string
}

// NewConn wraps an accepted socket.
func NewConn(sock net.Conn) *Conn {
	host, _, err := net.SplitHostPort(sock.RemoteAddr().String())
	if err != nil {
		host = sock.RemoteAddr().String()
	}
	return &Conn{sock: sock, ip: host}
}

// IP returns the remote host address.
func (c *Conn) IP() string {
	return c.ip
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.sock.Close()
}

// Encrypt enables the connection cipher for all further traffic.
func (c *Conn) Encrypt(state *crypto.State) {
	c.crypt = state
}

// Encrypted reports whether the connection cipher is active.
func (c *Conn) Encrypted() bool {
	return c.crypt != nil
}

func wrapRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return ErrHangup
	}
	return err
}

// ReadBytes reads exactly n bytes, decrypting when the cipher is active.
func (c *Conn) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.sock, buf); err != nil {
		return nil, wrapRead(err)
	}
	if c.crypt != nil {
		c.crypt.Decrypt(buf)
	}
	return buf, nil
}

// ReadU8 reads one byte.
func (c *Conn) ReadU8() (uint8, error) {
	buf, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadU16 reads a uint16 (LE).
func (c *Conn) ReadU16() (uint16, error) {
	buf, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32 reads a uint32 (LE).
func (c *Conn) ReadU32() (uint32, error) {
	buf, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadUuid reads the 16-byte legacy uuid layout.
func (c *Conn) ReadUuid() (wire.Uuid, error) {
	buf, err := c.ReadBytes(16)
	if err != nil {
		return wire.Uuid{}, err
	}
	s := wire.FromBytes(buf)
	var u wire.Uuid
	if err := u.Read(s); err != nil {
		return wire.Uuid{}, err
	}
	return u, nil
}

// ReadStringUTF16 reads a u16 code-unit count followed by UTF-16LE units.
func (c *Conn) ReadStringUTF16() (string, error) {
	count, err := c.ReadU16()
	if err != nil {
		return "", err
	}
	buf, err := c.ReadBytes(int(count) * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return wire.DecodeUTF16(units), nil
}

// Send encrypts (when active) and writes the whole buffer. The input slice
// is not modified.
func (c *Conn) Send(data []byte) error {
	out := data
	if c.crypt != nil {
		out = make([]byte, len(data))
		copy(out, data)
		c.crypt.Encrypt(out)
	}
	if _, err := c.sock.Write(out); err != nil {
		return fmt.Errorf("send: %w", wrapRead(err))
	}
	return nil
}

// SendStream sends the stream contents.
func (c *Conn) SendStream(s *wire.BufferStream) error {
	return c.Send(s.Bytes())
}
