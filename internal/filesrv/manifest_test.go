package filesrv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/moulgo/internal/wire"
)

const hash32 = "0123456789abcdef0123456789abcdef"

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Test.mfs")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest_ParsesRows(t *testing.T) {
	path := writeManifest(t, strings.Join([]string{
		"# comment line",
		"dat\\Teledahn.prp,dat\\Teledahn.prp.gz," + hash32 + "," + hash32 + ",1000,500,0",
		"avi\\intro.webm,avi\\intro.webm.gz," + hash32 + "," + hash32 + ",2000,900,1 # flags",
		"",
	}, "\n"))

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Files, 2)

	first := manifest.Files[0]
	assert.Equal(t, "dat\\Teledahn.prp", first.Filename)
	assert.Equal(t, "dat\\Teledahn.prp.gz", first.DownloadName)
	assert.Equal(t, hash32, first.FileHash)
	assert.EqualValues(t, 1000, first.FileSize)
	assert.EqualValues(t, 500, first.DownloadSize)
	assert.EqualValues(t, 0, first.Flags)
	assert.EqualValues(t, 1, manifest.Files[1].Flags)
}

func TestLoadManifest_SkipsInvalidRows(t *testing.T) {
	path := writeManifest(t, strings.Join([]string{
		"only,three,fields",
		"a,b,shorthash," + hash32 + ",1,2,3",
		"a,b," + hash32 + "," + hash32 + ",notanumber,2,3",
		"good,good.gz," + hash32 + "," + hash32 + ",10,5,0",
	}, "\n"))

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Files, 1)
	assert.Equal(t, "good", manifest.Files[0].Filename)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "NoSuch.mfs"))
	assert.True(t, os.IsNotExist(err))
}

func TestManifest_EncodeLayout(t *testing.T) {
	manifest := &Manifest{Files: []FileInfo{{
		Filename:     "ab",
		DownloadName: "cd",
		FileHash:     hash32,
		DownloadHash: hash32,
		FileSize:     0x00012345,
		DownloadSize: 0x0000ABCD,
		Flags:        1,
	}}}

	buf := wire.NewBufferStream(512)
	dataSize := manifest.Encode(buf)

	// Layout per entry: name+null, download+null, 33 cells per hash twice,
	// three split u32 fields of 3 cells each, plus the final terminator.
	wantCells := (2 + 1) + (2 + 1) + 33 + 33 + 9 + 1
	assert.EqualValues(t, wantCells, dataSize)
	assert.Equal(t, int(dataSize)*2, buf.Size())

	// The split u32 layout is hi word, lo word, null.
	raw := buf.Bytes()
	offset := (3 + 3 + 33 + 33) * 2
	hi := uint16(raw[offset]) | uint16(raw[offset+1])<<8
	lo := uint16(raw[offset+2]) | uint16(raw[offset+3])<<8
	assert.EqualValues(t, 0x0001, hi)
	assert.EqualValues(t, 0x2345, lo)
}

func TestManifest_EncodeEvenSize(t *testing.T) {
	manifest := &Manifest{Files: []FileInfo{{
		Filename: "x", DownloadName: "y",
		FileHash: hash32, DownloadHash: hash32,
	}}}
	buf := wire.NewBufferStream(512)
	manifest.Encode(buf)
	assert.Zero(t, buf.Size()%2, "encoded manifest must be an even byte count")
}
