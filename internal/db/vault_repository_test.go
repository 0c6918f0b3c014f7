package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/vault"
	"github.com/udisondev/moulgo/internal/wire"
)

// Every persistable field bit must appear in the schema exactly once, and
// each column's get/set pair must round-trip its value.
func TestNodeSchema_CoversAllFields(t *testing.T) {
	persistable := []uint64{
		vault.FieldCreateTime, vault.FieldModifyTime, vault.FieldCreateAgeName,
		vault.FieldCreateAgeUuid, vault.FieldCreatorUuid, vault.FieldCreatorIdx,
		vault.FieldNodeType,
		vault.FieldInt32_1, vault.FieldInt32_2, vault.FieldInt32_3, vault.FieldInt32_4,
		vault.FieldUint32_1, vault.FieldUint32_2, vault.FieldUint32_3, vault.FieldUint32_4,
		vault.FieldUuid_1, vault.FieldUuid_2, vault.FieldUuid_3, vault.FieldUuid_4,
		vault.FieldString64_1, vault.FieldString64_2, vault.FieldString64_3,
		vault.FieldString64_4, vault.FieldString64_5, vault.FieldString64_6,
		vault.FieldIString64_1, vault.FieldIString64_2,
		vault.FieldText_1, vault.FieldText_2,
		vault.FieldBlob_1, vault.FieldBlob_2,
	}

	seen := make(map[uint64]bool)
	for _, col := range nodeSchema {
		assert.False(t, seen[col.field], "field %x mapped twice", col.field)
		seen[col.field] = true
	}
	for _, field := range persistable {
		assert.True(t, seen[field], "field %x missing from schema", field)
	}
	assert.Len(t, nodeSchema, len(persistable))
}

func TestNodeSchema_GetSetRoundTrip(t *testing.T) {
	source := &vault.Node{}
	source.SetCreateTime(111)
	source.SetModifyTime(222)
	source.SetCreateAgeName("Teledahn")
	source.SetCreateAgeUuid(wire.NewUuid())
	source.SetCreatorUuid(wire.NewUuid())
	source.SetCreatorIdx(7)
	source.SetNodeType(vault.NodePlayer)
	source.SetInt32_1(-1)
	source.SetInt32_2(-2)
	source.SetInt32_3(-3)
	source.SetInt32_4(-4)
	source.SetUint32_1(1)
	source.SetUint32_2(2)
	source.SetUint32_3(3)
	source.SetUint32_4(0xFFFFFFFF)
	source.SetUuid_1(wire.NewUuid())
	source.SetUuid_2(wire.NewUuid())
	source.SetUuid_3(wire.NewUuid())
	source.SetUuid_4(wire.NewUuid())
	source.SetString64_1("a")
	source.SetString64_2("b")
	source.SetString64_3("c")
	source.SetString64_4("d")
	source.SetString64_5("e")
	source.SetString64_6("f")
	source.SetIString64_1("G")
	source.SetIString64_2("H")
	source.SetText_1("text one")
	source.SetText_2("text two")
	source.SetBlob_1([]byte{1, 2, 3})
	source.SetBlob_2([]byte{4, 5})

	dest := &vault.Node{}
	for _, col := range nodeSchema {
		require.True(t, source.Has(col.field), "source missing field %x", col.field)
		value := col.get(source)
		require.NoError(t, col.set(dest, value), "column %s", col.column)
	}

	assert.Equal(t, source.CreateTime, dest.CreateTime)
	assert.Equal(t, source.CreateAgeName, dest.CreateAgeName)
	assert.Equal(t, source.CreateAgeUuid, dest.CreateAgeUuid)
	assert.Equal(t, source.NodeType, dest.NodeType)
	assert.Equal(t, source.Int32_4, dest.Int32_4)
	assert.Equal(t, source.Uint32_4, dest.Uint32_4)
	assert.Equal(t, source.Uuid_3, dest.Uuid_3)
	assert.Equal(t, source.String64_5, dest.String64_5)
	assert.Equal(t, source.IString64_2, dest.IString64_2)
	assert.Equal(t, source.Text_1, dest.Text_1)
	assert.Equal(t, source.Blob_1, dest.Blob_1)
	assert.Equal(t, source.Blob_2, dest.Blob_2)
	assert.Equal(t, source.Fields(), dest.Fields())
}
