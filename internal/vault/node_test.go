package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/wire"
)

func TestNode_MaskTracksSetters(t *testing.T) {
	node := &Node{}
	assert.True(t, node.IsNull())

	node.SetNodeType(NodePlayer)
	node.SetIString64_1("Atrus")
	assert.True(t, node.Has(FieldNodeType))
	assert.True(t, node.Has(FieldIString64_1))
	assert.False(t, node.Has(FieldInt32_1))
	assert.False(t, node.IsNull())

	node.Clear()
	assert.True(t, node.IsNull())
}

func TestNode_WireRoundTrip(t *testing.T) {
	uuid := wire.NewUuid()
	node := &Node{}
	node.SetNodeIdx(1001)
	node.SetCreateTime(1700000000)
	node.SetModifyTime(1700000001)
	node.SetNodeType(NodePlayer)
	node.SetInt32_2(1)
	node.SetUint32_3(77)
	node.SetUuid_1(uuid)
	node.SetString64_1("female")
	node.SetIString64_1("Catherine")
	node.SetText_1("journal text")
	node.SetBlob_1([]byte{1, 2, 3, 4})

	s := wire.NewBufferStream(256)
	node.Write(s)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	back := &Node{}
	require.NoError(t, back.Read(s))
	assert.True(t, s.AtEOF(), "stream not fully consumed")

	assert.Equal(t, node.Fields(), back.Fields())
	assert.Equal(t, uint32(1001), back.NodeIdx)
	assert.Equal(t, uint32(1700000000), back.CreateTime)
	assert.Equal(t, NodePlayer, back.NodeType)
	assert.EqualValues(t, 1, back.Int32_2)
	assert.EqualValues(t, 77, back.Uint32_3)
	assert.Equal(t, uuid, back.Uuid_1)
	assert.Equal(t, "female", back.String64_1)
	assert.Equal(t, "Catherine", back.IString64_1)
	assert.Equal(t, "journal text", back.Text_1)
	assert.Equal(t, []byte{1, 2, 3, 4}, back.Blob_1)
}

func TestNode_OnlyPresentFieldsOnWire(t *testing.T) {
	sparse := &Node{}
	sparse.SetNodeType(NodeSystem)

	s := wire.NewBufferStream(64)
	sparse.Write(s)
	// u64 mask + one i32 field
	assert.Equal(t, 12, s.Size())
}

func TestNode_EmptyBlobRoundTrip(t *testing.T) {
	node := &Node{}
	node.SetNodeIdx(5)
	node.SetBlob_1(nil)

	s := wire.NewBufferStream(32)
	node.Write(s)
	require.NoError(t, s.Seek(0, wire.SeekSet))

	back := &Node{}
	require.NoError(t, back.Read(s))
	assert.True(t, back.Has(FieldBlob_1))
	assert.Empty(t, back.Blob_1)
}

func TestNode_TruncatedStreamRejected(t *testing.T) {
	node := &Node{}
	node.SetNodeType(NodeFolder)
	node.SetInt32_1(GlobalInboxFolder)

	s := wire.NewBufferStream(32)
	node.Write(s)
	raw := s.Bytes()

	for cut := 1; cut < len(raw); cut++ {
		back := &Node{}
		assert.Error(t, back.Read(wire.FromBytes(raw[:cut])), "cut at %d", cut)
	}
}

func TestNodeRef_RoundTrip(t *testing.T) {
	ref := NodeRef{Parent: 1, Child: 2, Owner: 3, Seen: 1}
	s := wire.NewBufferStream(16)
	ref.Write(s)
	assert.Equal(t, 13, s.Size())

	require.NoError(t, s.Seek(0, wire.SeekSet))
	var back NodeRef
	require.NoError(t, back.Read(s))
	assert.Equal(t, ref, back)
}
