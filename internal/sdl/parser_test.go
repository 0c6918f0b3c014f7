package sdl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDescriptor = `
# Example age state
STATEDESC TestAge {
    VERSION 1
    VAR BOOL    DayNight[1]   DEFAULT=0
    VAR INT     Counter[1]    DEFAULT=42
    VAR FLOAT   Heights[3]    DEFAULT=1.5
    VAR STRING32 Label[1]     DEFAULT="hut"
}

STATEDESC TestAge {
    VERSION 2
    VAR BOOL    DayNight[1]   DEFAULT=0
    VAR INT     Counter[1]    DEFAULT=42
    VAR FLOAT   Heights[3]    DEFAULT=1.5
    VAR STRING32 Label[1]     DEFAULT="hut"
    VAR POINT3  Spawn[1]      DEFAULT=(1,2,3)
}

STATEDESC Nested {
    VERSION 1
    VAR $TestAge Inner[1]
}
`

func loadTestDb(t *testing.T) *DescriptorDb {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.sdl")
	require.NoError(t, os.WriteFile(path, []byte(testDescriptor), 0o644))

	db := NewDescriptorDb()
	require.NoError(t, db.LoadDirectory(dir))
	return db
}

func TestParser_Descriptors(t *testing.T) {
	db := loadTestDb(t)

	v1 := db.Find("TestAge", 1)
	require.NotNil(t, v1)
	assert.Equal(t, 1, v1.Version)
	require.Len(t, v1.Vars, 4)

	assert.Equal(t, VarBool, v1.Vars[0].Type)
	assert.Equal(t, "DayNight", v1.Vars[0].Name)
	assert.Equal(t, VarInt, v1.Vars[1].Type)
	assert.EqualValues(t, 42, v1.Vars[1].Default.Int)
	assert.Equal(t, VarFloat, v1.Vars[2].Type)
	assert.Equal(t, 3, v1.Vars[2].Size)
	assert.EqualValues(t, 1.5, v1.Vars[2].Default.Float)
	assert.Equal(t, VarString32, v1.Vars[3].Type)
	assert.Equal(t, "hut", v1.Vars[3].Default.String)

	v2 := db.Find("TestAge", 2)
	require.NotNil(t, v2)
	require.Len(t, v2.Vars, 5)
	assert.Equal(t, VarPoint3, v2.Vars[4].Type)
	assert.EqualValues(t, 1, v2.Vars[4].Default.Vector.X)
	assert.EqualValues(t, 3, v2.Vars[4].Default.Vector.Z)

	latest := db.FindLatest("TestAge")
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)

	nested := db.Find("Nested", 1)
	require.NotNil(t, nested)
	assert.Equal(t, VarStateDesc, nested.Vars[0].Type)
	assert.Equal(t, "TestAge", nested.Vars[0].TypeName)
}

func TestParser_MissingDescriptor(t *testing.T) {
	db := loadTestDb(t)
	assert.Nil(t, db.Find("TestAge", 9))
	assert.Nil(t, db.Find("NoSuch", 1))
	assert.Nil(t, db.FindLatest("NoSuch"))
}

func TestParser_DuplicateVersionRejected(t *testing.T) {
	db := NewDescriptorDb()
	require.NoError(t, db.Register(&StateDescriptor{Name: "Dup", Version: 1}))
	assert.Error(t, db.Register(&StateDescriptor{Name: "Dup", Version: 1}))
	assert.NoError(t, db.Register(&StateDescriptor{Name: "Dup", Version: 2}))
}

func TestParser_EncryptedSourceRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enc.sdl")
	require.NoError(t, os.WriteFile(path, []byte("whatdoyousee\x00\x01\x02"), 0o644))

	db := NewDescriptorDb()
	assert.Error(t, db.LoadDirectory(dir))
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted([]byte("whatdoyousee....")))
	assert.True(t, IsEncrypted([]byte("notthedroids....")))
	assert.True(t, IsEncrypted([]byte("BriceIsSmart....")))
	assert.False(t, IsEncrypted([]byte("STATEDESC Foo {")))
}
