package lobby

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/netio"
)

type captureService struct {
	got chan *netio.Conn
}

func newCaptureService() *captureService {
	return &captureService{got: make(chan *netio.Conn, 1)}
}

func (c *captureService) Add(conn *netio.Conn) {
	c.got <- conn
}

func connectHeader(connType uint8) []byte {
	var buf []byte
	buf = append(buf, connType)
	buf = binary.LittleEndian.AppendUint16(buf, 31)
	buf = binary.LittleEndian.AppendUint32(buf, 918) // build id
	buf = binary.LittleEndian.AppendUint32(buf, 50)  // build type
	buf = binary.LittleEndian.AppendUint32(buf, 0)   // branch id
	buf = append(buf, make([]byte, 16)...)           // product uuid
	return buf
}

func startLobby(t *testing.T) (*Lobby, *captureService, *captureService, *captureService, *captureService, context.CancelFunc) {
	t.Helper()
	auth := newCaptureService()
	game := newCaptureService()
	file := newCaptureService()
	gate := newCaptureService()

	l := New("127.0.0.1:0", auth, game, file, gate)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	for i := 0; i < 100 && l.Addr() == nil; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, l.Addr(), "lobby did not come up")
	return l, auth, game, file, gate, cancel
}

func TestLobby_RoutesByConnType(t *testing.T) {
	l, auth, game, file, gate, cancel := startLobby(t)
	defer cancel()

	cases := []struct {
		connType uint8
		service  *captureService
	}{
		{ConnCliToAuth, auth},
		{ConnCliToGame, game},
		{ConnCliToFile, file},
		{ConnCliToGateKeeper, gate},
	}
	for _, tc := range cases {
		sock, err := net.Dial("tcp", l.Addr().String())
		require.NoError(t, err)
		_, err = sock.Write(connectHeader(tc.connType))
		require.NoError(t, err)

		select {
		case conn := <-tc.service.got:
			require.NotNil(t, conn)
			conn.Close()
		case <-time.After(2 * time.Second):
			t.Fatalf("conn type %d was not routed", tc.connType)
		}
		sock.Close()
	}
}

func TestLobby_UnknownTypeClosesSocket(t *testing.T) {
	l, auth, _, _, _, cancel := startLobby(t)
	defer cancel()

	sock, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer sock.Close()
	_, err = sock.Write(connectHeader(99))
	require.NoError(t, err)

	// The offending socket is closed; a read observes EOF.
	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err = sock.Read(buf)
	assert.Error(t, err)

	// The accept loop survives: a valid connection still routes.
	sock2, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer sock2.Close()
	_, err = sock2.Write(connectHeader(ConnCliToAuth))
	require.NoError(t, err)
	select {
	case conn := <-auth.got:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("lobby stopped routing after a bad connection")
	}
}

func TestLobby_CsrRejected(t *testing.T) {
	l, _, _, _, _, cancel := startLobby(t)
	defer cancel()

	sock, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer sock.Close()
	_, err = sock.Write(connectHeader(ConnCliToCsr))
	require.NoError(t, err)

	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err = sock.Read(buf)
	assert.Error(t, err, "CSR connections are refused")
}
