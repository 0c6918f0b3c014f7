package agefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RecognizedKeys(t *testing.T) {
	data := []byte(`
StartDateTime=662256000
DayLength=30.23
MaxCapacity=50
LingerTime=180
SequencePrefix=1
ReleaseVersion=6
Page=Teledahn,0
`)
	age := Parse("Teledahn.age", data)
	assert.EqualValues(t, 662256000, age.StartTime)
	assert.EqualValues(t, 30.23, age.DayLength)
	assert.EqualValues(t, 50, age.MaxCapacity)
	assert.EqualValues(t, 180, age.LingerTime)
	assert.EqualValues(t, 1, age.SeqPrefix)
}

func TestParse_CommentsAndDefaults(t *testing.T) {
	data := []byte(`
# full line comment
SequencePrefix=7    # trailing comment
`)
	age := Parse("test.age", data)
	assert.EqualValues(t, 7, age.SeqPrefix)
	// Untouched keys keep their defaults.
	assert.EqualValues(t, 24.0, age.DayLength)
	assert.EqualValues(t, 10, age.MaxCapacity)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Relto.age"),
		[]byte("SequencePrefix=3\nDayLength=24.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.age"),
		[]byte("SequencePrefix=-5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not an age file"), 0o644))

	ages, err := LoadDirectory(dir)
	require.NoError(t, err)
	assert.Contains(t, ages, "Relto")
	// Negative sequence prefixes are internal-only ages and are skipped.
	assert.NotContains(t, ages, "Broken")
	assert.Len(t, ages, 1)
}

func TestLoadDirectory_EncryptedRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Secret.age"),
		[]byte("notthedroids\x01\x02\x03"), 0o644))

	_, err := LoadDirectory(dir)
	assert.Error(t, err)
}
