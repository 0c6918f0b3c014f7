package netio

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/crypto"
)

func testKeys() (n, k []byte) {
	n = make([]byte, crypto.KeySize)
	k = make([]byte, crypto.KeySize)
	for i := range n {
		n[i] = byte(i + 1)
		k[i] = byte(200 - i)
	}
	n[0] |= 0x80
	return n, k
}

func TestEstablishServer_Plaintext(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	n, k := testKeys()
	done := make(chan error, 1)
	go func() {
		done <- EstablishServer(NewConn(serverSide), n, k)
	}()

	_, err := clientSide.Write([]byte{CliToServConnect, 2})
	require.NoError(t, err)

	reply := make([]byte, 2)
	_, err = io.ReadFull(clientSide, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{ServToCliEncrypt, 2}, reply)
	require.NoError(t, <-done)
}

func TestEstablishServer_Encrypted(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	n, k := testKeys()
	serverConn := NewConn(serverSide)

	done := make(chan error, 1)
	go func() {
		done <- EstablishServer(serverConn, n, k)
	}()

	// The client's public value travels little-endian.
	y := make([]byte, crypto.KeySize)
	for i := range y {
		y[i] = byte(i * 3)
	}
	y[len(y)-1] |= 0x40 // big-endian low byte, first on the wire after the swap
	yLE := make([]byte, len(y))
	copy(yLE, y)
	crypto.ReverseBytes(yLE)

	msg := append([]byte{CliToServConnect, 66}, yLE...)
	_, err := clientSide.Write(msg)
	require.NoError(t, err)

	reply := make([]byte, 9)
	_, err = io.ReadFull(clientSide, reply)
	require.NoError(t, err)
	assert.EqualValues(t, ServToCliEncrypt, reply[0])
	assert.EqualValues(t, 9, reply[1])

	var seed [crypto.SharedKeySize]byte
	copy(seed[:], reply[2:])
	key, err := crypto.DeriveKey(y, n, k, seed)
	require.NoError(t, err)
	require.NoError(t, <-done)

	clientState, err := crypto.NewState(key[:])
	require.NoError(t, err)

	// Server-to-client traffic decrypts with the client's read stream.
	go func() {
		serverConn.Send([]byte("welcome explorer"))
	}()
	data := make([]byte, 16)
	_, err = io.ReadFull(clientSide, data)
	require.NoError(t, err)
	clientState.Decrypt(data)
	assert.Equal(t, "welcome explorer", string(data))

	// Client-to-server traffic decrypts with the server's read stream.
	payload := []byte("shorah")
	enc := make([]byte, len(payload))
	copy(enc, payload)
	clientState.Encrypt(enc)
	go clientSide.Write(enc)

	got, err := serverConn.ReadBytes(len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEstablishServer_BadFraming(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"wrong message id", []byte{9, 2}},
		{"bad connect size", []byte{CliToServConnect, 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			serverSide, clientSide := net.Pipe()
			defer clientSide.Close()

			n, k := testKeys()
			done := make(chan error, 1)
			go func() {
				done <- EstablishServer(NewConn(serverSide), n, k)
			}()
			_, err := clientSide.Write(tc.data)
			require.NoError(t, err)
			assert.Error(t, <-done)
		})
	}
}

func TestConn_FieldReads(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	conn := NewConn(serverSide)
	go func() {
		var buf []byte
		buf = append(buf, 0x05)
		buf = binary.LittleEndian.AppendUint16(buf, 0x1234)
		buf = binary.LittleEndian.AppendUint32(buf, 0xCAFEBABE)
		// UTF-16 string: count then cells
		buf = binary.LittleEndian.AppendUint16(buf, 2)
		buf = binary.LittleEndian.AppendUint16(buf, uint16('h'))
		buf = binary.LittleEndian.AppendUint16(buf, uint16('i'))
		clientSide.Write(buf)
	}()

	v8, err := conn.ReadU8()
	require.NoError(t, err)
	assert.EqualValues(t, 5, v8)
	v16, err := conn.ReadU16()
	require.NoError(t, err)
	assert.EqualValues(t, 0x1234, v16)
	v32, err := conn.ReadU32()
	require.NoError(t, err)
	assert.EqualValues(t, 0xCAFEBABE, v32)
	str, err := conn.ReadStringUTF16()
	require.NoError(t, err)
	assert.Equal(t, "hi", str)
}

func TestConn_HangupMapped(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	conn := NewConn(serverSide)
	clientSide.Close()

	_, err := conn.ReadU32()
	assert.ErrorIs(t, err, ErrHangup)
}
