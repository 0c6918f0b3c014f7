package netio

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/crypto"
)

// Connection setup message ids shared by every encrypted service.
const (
	CliToServConnect = 0
	ServToCliEncrypt = 0
)

// Handshake sizes: a 2-byte message requests plaintext, a 66-byte message
// carries the client's 64-byte public value.
const (
	connectMsgPlain = 2
	connectMsgCrypt = 66
)

// EstablishServer runs the server side of the cipher handshake using the
// service's N and K secrets. On a 2-byte connect the connection stays
// plaintext; otherwise the derived 7-byte key activates the RC4 pair. Any
// framing deviation is a hard protocol error.
func EstablishServer(conn *Conn, n, k []byte) error {
	msgID, err := conn.ReadU8()
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if msgID != CliToServConnect {
		return fmt.Errorf("handshake: unexpected message id %d", msgID)
	}
	msgSize, err := conn.ReadU8()
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	switch msgSize {
	case connectMsgPlain:
		// Client requests a plaintext session; reply with an empty seed.
		// Nobody can impersonate us without the private key, so a client
		// that wants encryption only succeeds against the correct peer.
		return conn.Send([]byte{ServToCliEncrypt, connectMsgPlain})

	case connectMsgCrypt:
		y, err := conn.ReadBytes(crypto.KeySize)
		if err != nil {
			return fmt.Errorf("handshake: reading Y: %w", err)
		}
		crypto.ReverseBytes(y)

		seed, key, err := crypto.Establish(y, n, k)
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}

		reply := make([]byte, 0, 9)
		reply = append(reply, ServToCliEncrypt, 9)
		reply = append(reply, seed[:]...)
		if err := conn.Send(reply); err != nil {
			return fmt.Errorf("handshake: %w", err)
		}

		state, err := crypto.NewState(key[:])
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		conn.Encrypt(state)
		return nil

	default:
		return fmt.Errorf("handshake: bad connect size %d", msgSize)
	}
}
