package sdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_DefaultsApplied(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("TestAge", 1), db)

	assert.EqualValues(t, 42, st.Var("Counter").Ints[0])
	assert.EqualValues(t, 1.5, st.Var("Heights").Floats[1])
	assert.Equal(t, "hut", st.Var("Label").Strings[0])
	assert.False(t, st.Var("DayNight").Bools[0])
}

func TestState_BlobRoundTrip(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("TestAge", 1), db)
	st.Var("Counter").Ints[0] = -5
	st.Var("Counter").Flags &^= varSameAsDefault
	st.Var("DayNight").Bools[0] = true
	st.Var("DayNight").Flags &^= varSameAsDefault
	st.Var("Heights").Floats[2] = 9.25
	st.Var("Heights").Flags &^= varSameAsDefault
	st.Var("Label").Strings[0] = "library"
	st.Var("Label").Flags &^= varSameAsDefault

	blob := st.WriteBlob()
	back, err := ReadBlob(blob, db)
	require.NoError(t, err)

	// The descriptor drifted: v1 blobs upgrade to v2 on read.
	assert.Equal(t, 2, back.Desc.Version)
	assert.EqualValues(t, -5, back.Var("Counter").Ints[0])
	assert.True(t, back.Var("DayNight").Bools[0])
	assert.EqualValues(t, 9.25, back.Var("Heights").Floats[2])
	assert.Equal(t, "library", back.Var("Label").Strings[0])
	// The new variable starts at its default.
	assert.EqualValues(t, 1, back.Var("Spawn").Vectors[0].X)
}

func TestState_SameAsDefaultSkipsValues(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("TestAge", 2), db)

	blob := st.WriteBlob()
	back, err := ReadBlob(blob, db)
	require.NoError(t, err)
	// Everything was same-as-default, so the defaults come back.
	assert.EqualValues(t, 42, back.Var("Counter").Ints[0])
	assert.Equal(t, "hut", back.Var("Label").Strings[0])
}

func TestState_UpgradeKeepsMatchingValues(t *testing.T) {
	db := loadTestDb(t)
	v1 := db.Find("TestAge", 1)
	v2 := db.Find("TestAge", 2)

	st := NewState(v1, db)
	st.Var("Counter").Ints[0] = 1234
	st.Var("Label").Strings[0] = "garden"

	up := st.Upgrade(v2, db)
	require.Equal(t, v2, up.Desc)
	// Matching name+type copies values over.
	assert.EqualValues(t, 1234, up.Var("Counter").Ints[0])
	assert.Equal(t, "garden", up.Var("Label").Strings[0])
	// Fields only in the new version get defaults.
	assert.EqualValues(t, 2, up.Var("Spawn").Vectors[0].Y)
	// Upgrading to the same descriptor is the identity.
	assert.Same(t, up, up.Upgrade(v2, db))
}

func TestState_UpgradeDropsTypeMismatch(t *testing.T) {
	db := NewDescriptorDb()
	require.NoError(t, db.Register(&StateDescriptor{
		Name: "Morph", Version: 1,
		Vars: []VarDescriptor{{Type: VarInt, Name: "x", Size: 1}},
	}))
	require.NoError(t, db.Register(&StateDescriptor{
		Name: "Morph", Version: 2,
		Vars: []VarDescriptor{{Type: VarFloat, Name: "x", Size: 1}},
	}))

	st := NewState(db.Find("Morph", 1), db)
	st.Var("x").Ints[0] = 9
	up := st.Upgrade(db.Find("Morph", 2), db)
	// Same name, different type: the value is dropped, not converted.
	assert.EqualValues(t, 0, up.Var("x").Floats[0])
}

func TestState_NestedStateDescRoundTrip(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("Nested", 1), db)
	inner := st.Var("Inner").Children[0]
	require.NotNil(t, inner)
	inner.Var("Counter").Ints[0] = 7
	inner.Var("Counter").Flags &^= varSameAsDefault
	st.Var("Inner").Flags &^= varSameAsDefault

	blob := st.WriteBlob()
	back, err := ReadBlob(blob, db)
	require.NoError(t, err)
	innerBack := back.Var("Inner").Children[0]
	require.NotNil(t, innerBack)
	assert.EqualValues(t, 7, innerBack.Var("Counter").Ints[0])
}

func TestState_UnknownDescriptorRejected(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("TestAge", 2), db)
	blob := st.WriteBlob()

	empty := NewDescriptorDb()
	_, err := ReadBlob(blob, empty)
	assert.Error(t, err)
}

func TestState_TruncatedBlobRejected(t *testing.T) {
	db := loadTestDb(t)
	st := NewState(db.Find("TestAge", 2), db)
	blob := st.WriteBlob()

	for _, cut := range []int{1, 5, len(blob) / 2} {
		_, err := ReadBlob(blob[:cut], db)
		assert.Error(t, err, "cut at %d", cut)
	}
}
