package moul

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/wire"
)

func TestFactory_NullSentinel(t *testing.T) {
	s := wire.NewBufferStream(4)
	WriteCreatable(s, nil)
	assert.Equal(t, 2, s.Size())

	require.NoError(t, s.Seek(0, wire.SeekSet))
	typeID, err := s.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, NullType, typeID)

	require.NoError(t, s.Seek(0, wire.SeekSet))
	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestFactory_UnknownTypeRejected(t *testing.T) {
	s := wire.NewBufferStream(4)
	s.WriteU16(0x7777)
	require.NoError(t, s.Seek(0, wire.SeekSet))
	_, err := ReadCreatable(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestFactory_KIMessageRoundTrip(t *testing.T) {
	msg := &KIMessage{
		Command:  KIChatMessage,
		User:     "Atrus",
		PlayerID: 1234,
		String:   "shorah b'shemtee",
		Flags:    KIPrivateMsg,
		Delay:    0.5,
		Value:    -3,
	}

	s := wire.NewBufferStream(64)
	WriteCreatable(s, msg)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	obj, err := ReadCreatable(s)
	require.NoError(t, err)
	back, ok := obj.(*KIMessage)
	require.True(t, ok, "expected a KIMessage, got %T", obj)

	assert.Equal(t, msg.Command, back.Command)
	assert.Equal(t, msg.User, back.User)
	assert.Equal(t, msg.PlayerID, back.PlayerID)
	assert.Equal(t, msg.String, back.String)
	assert.Equal(t, msg.Flags, back.Flags)
	assert.Equal(t, msg.Delay, back.Delay)
	assert.Equal(t, msg.Value, back.Value)
	assert.True(t, s.AtEOF(), "stream not fully consumed")

	// Serialized form of the reread object equals the original bytes.
	s2 := wire.NewBufferStream(64)
	WriteCreatable(s2, back)
	assert.Equal(t, s.Bytes(), s2.Bytes())
}

func TestFactory_EveryRegisteredTypeConstructs(t *testing.T) {
	ids := []uint16{
		IDAnimCmdMsg, IDInputEventMsg, IDControlEventMsg, IDWarpMsg,
		IDLoadCloneMsg, IDEnableMsg, IDServerReplyMsg, IDAvTaskMsg,
		IDAvSeekMsg, IDAvOneShotMsg, IDAvPushBrainMsg, IDAvPopBrainMsg,
		IDClimbMsg, IDClothingMsg, IDLinkToAgeMsg, IDNotifyMsg,
		IDLinkEffectsTriggerMsg, IDAvCoopMsg, IDMultistageModMsg,
		IDParticleTransferMsg, IDParticleKillMsg, IDAvatarInputStateMsg,
		IDInputIfaceMgrMsg, IDBackdoorMsg, IDAvTaskSeekDoneMsg, IDKIMessage,
		IDBulletMsg, IDAvBrainGenericMsg, IDPseudoLinkEffectMsg,
		IDLinkingMgrMsg, IDLoadAvatarMsg, IDSetNetGroupIdMsg, IDSubWorldMsg,
		IDAnimStage, IDAvBrainHuman, IDAvBrainClimb, IDAvBrainCritter,
		IDAvBrainDrive, IDAvBrainSwim, IDAvBrainRideAnimatedPhysical,
		IDAvBrainGeneric, IDAvBrainCoop, IDCoopCoordinator, IDAvAnimTask,
		IDAvOneShotTask, IDAvOneShotLinkTask, IDAvSeekTask, IDAvTaskBrain,
		IDAvTaskSeek, IDAgeInfoStruct, IDAgeLinkStruct,
		IDNetMsgPagingRoom, IDNetMsgGroupOwner, IDNetMsgGameStateRequest,
		IDNetMsgGameMessage, IDNetMsgVoice, IDNetMsgTestAndSet,
		IDNetMsgMembersListReq, IDNetMsgMembersList, IDNetMsgMemberUpdate,
		IDNetMsgInitialAgeStateSent, IDNetMsgSDLState, IDNetMsgSDLStateBCast,
		IDNetMsgGameMessageDirected, IDNetMsgRelevanceRegions,
		IDNetMsgLoadClone, IDNetMsgPlayerPage,
	}
	seen := make(map[uint16]bool)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate type id 0x%04X", id)
		seen[id] = true

		obj, err := Create(id)
		require.NoError(t, err, "type 0x%04X", id)
		require.NotNil(t, obj)
		assert.Equal(t, id, obj.Type(), "type 0x%04X reports wrong id", id)
	}
}

func TestKey_NullRoundTrip(t *testing.T) {
	s := wire.NewBufferStream(8)
	var null Key
	null.Write(s)

	uoid := NewUoid()
	uoid.Name = "AgeSDLHook"
	uoid.ObjType = 1
	uoid.ID = 1
	KeyFromUoid(uoid).Write(s)

	require.NoError(t, s.Seek(0, wire.SeekSet))
	var k1, k2 Key
	require.NoError(t, k1.Read(s))
	assert.True(t, k1.IsNull())
	require.NoError(t, k2.Read(s))
	require.False(t, k2.IsNull())
	assert.Equal(t, "AgeSDLHook", k2.Uoid().Name)
}

func TestUoid_CloneIDsRoundTrip(t *testing.T) {
	uoid := NewUoid()
	uoid.Location = MakeLocation(10, 2, 0)
	uoid.ObjType = 0x00F1
	uoid.ID = 77
	uoid.Name = "Avatar01"
	uoid.CloneID = 3
	uoid.ClonePlayerID = 1234

	s := wire.NewBufferStream(64)
	uoid.Write(s)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	var back Uoid
	require.NoError(t, back.Read(s))
	assert.Equal(t, uoid, back)
	assert.True(t, s.AtEOF())
}
