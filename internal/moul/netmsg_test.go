package moul

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/wire"
)

func TestNetMsgStream_PlainRoundTrip(t *testing.T) {
	in := NetMsgStream{Compression: CompressNone, Data: []byte("plain body")}
	s := wire.NewBufferStream(64)
	in.Write(s)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	var out NetMsgStream
	require.NoError(t, out.Read(s))
	assert.Equal(t, in.Data, out.Data)
	assert.Equal(t, CompressNone, out.Compression)
}

func TestNetMsgStream_ZlibRoundTrip(t *testing.T) {
	body := []byte("zz" + strings.Repeat("compress me, I am very repetitive. ", 40))
	in := NetMsgStream{Compression: CompressZlib, Data: body}
	s := wire.NewBufferStream(64)
	in.Write(s)

	// The wire form must actually be smaller than the body.
	assert.Less(t, s.Size(), len(body), "zlib body should compress")

	require.NoError(t, s.Seek(0, wire.SeekSet))
	var out NetMsgStream
	require.NoError(t, out.Read(s))
	assert.Equal(t, body, out.Data)
	assert.Equal(t, CompressZlib, out.Compression)
}

func TestNetMsgGameMessage_RoundTrip(t *testing.T) {
	inner := &KIMessage{Command: KIChatMessage, String: "hello age", PlayerID: 42}
	msg := &NetMsgGameMessage{}
	msg.ContentFlags = NetHasTimeSent | NetNeedsReliableSend
	msg.Timestamp = wire.UnifiedTime{Secs: 1000, Micros: 5}
	msg.Msg = inner

	s := wire.NewBufferStream(128)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back, ok := obj.(*NetMsgGameMessage)
	require.True(t, ok, "got %T", obj)
	assert.True(t, s.AtEOF())

	assert.Equal(t, msg.ContentFlags, back.ContentFlags)
	assert.Equal(t, msg.Timestamp, back.Timestamp)
	innerBack, ok := back.Msg.(*KIMessage)
	require.True(t, ok, "inner is %T", back.Msg)
	assert.Equal(t, "hello age", innerBack.String)
	assert.Equal(t, uint32(42), innerBack.PlayerID)
}

func TestNetMsgGameMessageDirected_Receivers(t *testing.T) {
	msg := &NetMsgGameMessageDirected{}
	msg.Msg = &KIMessage{Command: KIChatMessage, String: "psst"}
	msg.Receivers = []uint32{100, 200, 300}

	s := wire.NewBufferStream(128)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back := obj.(*NetMsgGameMessageDirected)
	assert.Equal(t, []uint32{100, 200, 300}, back.Receivers)
}

func TestNetMsgSDLState_RoundTrip(t *testing.T) {
	msg := &NetMsgSDLState{}
	msg.ContentFlags = NetHasTimeSent
	msg.Timestamp = wire.UnifiedTime{Secs: 77}
	msg.Object = NewUoid()
	msg.Object.Name = "AgeSDLHook"
	msg.Object.ObjType = 1
	msg.Object.ID = 1
	msg.SDLBlob = []byte{1, 2, 3, 4, 5}
	msg.IsInitial = true
	msg.PersistOnServer = true

	s := wire.NewBufferStream(128)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back := obj.(*NetMsgSDLState)
	assert.Equal(t, "AgeSDLHook", back.Object.Name)
	assert.Equal(t, msg.SDLBlob, back.SDLBlob)
	assert.True(t, back.IsInitial)
	assert.True(t, back.PersistOnServer)
	assert.False(t, back.IsAvatar)
	assert.True(t, s.AtEOF())
}

func TestNetMsgMembersList_RoundTrip(t *testing.T) {
	msg := &NetMsgMembersList{}
	msg.ContentFlags = NetHasPlayerID
	msg.PlayerID = 1

	var member MemberInfo
	member.Client.SetPlayerID(2)
	member.Client.SetPlayerName("Catherine")
	member.Client.SetCCRLevel(0)
	member.AvatarKey = NewUoid()
	member.AvatarKey.Name = "Avatar02"
	msg.Members = []MemberInfo{member}

	s := wire.NewBufferStream(128)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back := obj.(*NetMsgMembersList)
	require.Len(t, back.Members, 1)
	assert.Equal(t, uint32(2), back.Members[0].Client.PlayerID)
	assert.Equal(t, "Catherine", back.Members[0].Client.PlayerName)
	assert.Equal(t, "Avatar02", back.Members[0].AvatarKey.Name)
	assert.True(t, s.AtEOF())
}

func TestNetMessage_VersionMismatchRejected(t *testing.T) {
	s := wire.NewBufferStream(16)
	s.WriteU32(NetHasVersion)
	s.WriteU8(9)
	s.WriteU8(9)

	require.NoError(t, s.Seek(0, wire.SeekSet))
	msg := &NetMsgMembersListReq{}
	assert.Error(t, msg.Read(s))
}

func TestNetMsgVoice_RoundTrip(t *testing.T) {
	msg := &NetMsgVoice{Flags: 1, Frames: 10, Data: []byte{9, 8, 7}, Receivers: []uint32{5}}
	s := wire.NewBufferStream(64)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back := obj.(*NetMsgVoice)
	assert.Equal(t, msg.Data, back.Data)
	assert.Equal(t, msg.Receivers, back.Receivers)
}
