package game

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/moul"
	"github.com/udisondev/moulgo/internal/msgchan"
	"github.com/udisondev/moulgo/internal/netio"
	"github.com/udisondev/moulgo/internal/wire"
)

func testHost() *Host {
	return &Host{
		log:     slog.Default(),
		clients: make(map[uint32]*Client),
		buf:     wire.NewBufferStream(256),
	}
}

// pipeClient returns a host client plus the peer end of its socket.
func pipeClient(playerID uint32) (*Client, net.Conn) {
	server, peer := net.Pipe()
	cli := &Client{conn: netio.NewConn(server)}
	cli.info.SetPlayerID(playerID)
	return cli, peer
}

// readPropagate consumes one propagate frame from peer and returns the
// decoded creatable.
func readPropagate(t *testing.T, peer net.Conn) moul.Creatable {
	t.Helper()
	header := make([]byte, 10)
	_, err := io.ReadFull(peer, header)
	require.NoError(t, err)

	msgID := binary.LittleEndian.Uint16(header[0:])
	require.EqualValues(t, GameToCliPropagateBuffer, msgID)
	msgType := binary.LittleEndian.Uint32(header[2:])
	size := binary.LittleEndian.Uint32(header[6:])

	body := make([]byte, size)
	_, err = io.ReadFull(peer, body)
	require.NoError(t, err)

	obj, err := moul.ReadCreatable(wire.FromBytes(body))
	require.NoError(t, err)
	require.EqualValues(t, msgType, obj.Type())
	return obj
}

func TestHost_WriteMsgFraming(t *testing.T) {
	h := testHost()
	done := &moul.NetMsgInitialAgeStateSent{NumStates: 3}
	h.writeMsg(done)

	raw := h.buf.Bytes()
	require.GreaterOrEqual(t, len(raw), 10)
	assert.EqualValues(t, GameToCliPropagateBuffer, binary.LittleEndian.Uint16(raw[0:]))
	assert.EqualValues(t, moul.IDNetMsgInitialAgeStateSent, binary.LittleEndian.Uint32(raw[2:]))
	// The patched size covers exactly the serialized creatable.
	assert.EqualValues(t, len(raw)-10, binary.LittleEndian.Uint32(raw[6:]))
}

func TestHost_PropagateSkipsSender(t *testing.T) {
	h := testHost()
	sender, senderPeer := pipeClient(1)
	receiver, receiverPeer := pipeClient(2)
	h.clients[1] = sender
	h.clients[2] = receiver

	go func() {
		msg := &moul.NetMsgPagingRoom{}
		h.propagate(msg, 1)
	}()

	obj := readPropagate(t, receiverPeer)
	_, ok := obj.(*moul.NetMsgPagingRoom)
	assert.True(t, ok, "receiver got %T", obj)

	// The sender's socket stays silent; closing it must not have seen data.
	senderPeer.Close()
	receiverPeer.Close()
}

func TestHost_PropagateToTargetsOnly(t *testing.T) {
	h := testHost()
	a, aPeer := pipeClient(10)
	b, bPeer := pipeClient(20)
	h.clients[10] = a
	h.clients[20] = b

	go func() {
		msg := &moul.NetMsgVoice{Data: []byte{1}, Receivers: []uint32{20}}
		// Receiver 99 is unknown and must be skipped without error.
		h.propagateTo(msg, []uint32{20, 99})
	}()

	obj := readPropagate(t, bPeer)
	_, ok := obj.(*moul.NetMsgVoice)
	assert.True(t, ok, "target got %T", obj)

	aPeer.Close()
	bPeer.Close()
}

func TestHost_JoinSendsGroupOwner(t *testing.T) {
	h := testHost()
	cli, peer := pipeClient(7)
	cli.reply = msgchan.New()
	defer cli.reply.Close()

	go h.join(&ClientMessage{Client: cli})

	obj := readPropagate(t, peer)
	group, ok := obj.(*moul.NetMsgGroupOwner)
	require.True(t, ok, "got %T", obj)
	require.Len(t, group.Groups, 1)
	assert.True(t, group.Groups[0].Own)

	assert.EqualValues(t, netio.NetSuccess, cli.reply.Get().Tag)
	peer.Close()
}

func TestHost_TestAndSetAffirms(t *testing.T) {
	h := testHost()
	cli, peer := pipeClient(7)

	lock := &moul.NetMsgTestAndSet{}
	lock.Object = moul.NewUoid()
	lock.Object.Name = "SharedDoor"
	go h.testAndSet(cli, lock)

	obj := readPropagate(t, peer)
	netReply, ok := obj.(*moul.NetMsgGameMessage)
	require.True(t, ok, "got %T", obj)
	reply, ok := netReply.Msg.(*moul.ServerReplyMsg)
	require.True(t, ok, "inner is %T", netReply.Msg)
	assert.Equal(t, moul.ServerReplyAffirm, reply.Reply)
	require.Len(t, reply.Receivers, 1)
	assert.Equal(t, "SharedDoor", reply.Receivers[0].Uoid().Name)
	peer.Close()
}

func TestHost_MembersListExcludesCallerAndKeyless(t *testing.T) {
	h := testHost()
	caller, callerPeer := pipeClient(1)
	withKey, _ := pipeClient(2)
	withKey.hasKey = true
	withKey.clientKey = moul.NewUoid()
	withKey.clientKey.Name = "Avatar02"
	withKey.info.SetPlayerName("Catherine")
	keyless, _ := pipeClient(3)

	h.clients[1] = caller
	h.clients[2] = withKey
	h.clients[3] = keyless

	go h.sendMembers(caller)

	obj := readPropagate(t, callerPeer)
	members, ok := obj.(*moul.NetMsgMembersList)
	require.True(t, ok, "got %T", obj)
	require.Len(t, members.Members, 1)
	assert.EqualValues(t, 2, members.Members[0].Client.PlayerID)
	assert.Equal(t, "Avatar02", members.Members[0].AvatarKey.Name)
	callerPeer.Close()
}
