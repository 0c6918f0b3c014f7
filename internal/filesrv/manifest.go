// Package filesrv implements the File service: per-build manifests. File
// downloads are not served; download requests are answered with
// FileNotFound.
package filesrv

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/udisondev/moulgo/internal/wire"
)

// FileInfo is one manifest row.
type FileInfo struct {
	Filename     string
	DownloadName string
	FileHash     string // 32 hex chars
	DownloadHash string // 32 hex chars
	FileSize     uint32
	DownloadSize uint32
	Flags        uint32
}

// Manifest is a parsed .mfs file.
type Manifest struct {
	Files []FileInfo
}

// LoadManifest parses the CSV manifest at path. Invalid rows are logged and
// skipped; a missing file is reported via os.IsNotExist.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	manifest := &Manifest{}
	scanner := bufio.NewScanner(file)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != 7 {
			slog.Warn("ignoring invalid manifest entry", "file", path, "line", lineno)
			continue
		}
		if len(parts[2]) != 32 || len(parts[3]) != 32 {
			slog.Warn("bad file hash in manifest", "file", path, "line", lineno)
			continue
		}

		info := FileInfo{
			Filename:     parts[0],
			DownloadName: parts[1],
			FileHash:     parts[2],
			DownloadHash: parts[3],
		}
		sizes := []struct {
			dst *uint32
			raw string
		}{
			{&info.FileSize, parts[4]},
			{&info.DownloadSize, parts[5]},
			{&info.Flags, parts[6]},
		}
		ok := true
		for _, field := range sizes {
			v, err := strconv.ParseUint(strings.TrimSpace(field.raw), 10, 32)
			if err != nil {
				slog.Warn("bad numeric field in manifest", "file", path, "line", lineno)
				ok = false
				break
			}
			*field.dst = uint32(v)
		}
		if !ok {
			continue
		}
		manifest.Files = append(manifest.Files, info)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return manifest, nil
}

// Encode writes the manifest in the client's UTF-16 wire layout and returns
// the data size in UTF-16 code units.
func (m *Manifest) Encode(buf *wire.BufferStream) uint32 {
	start := buf.Tell()

	writeHash := func(hash string) {
		// 32 raw char16 cells followed by a null.
		units := wire.EncodeUTF16(hash)
		for i := 0; i < 32; i++ {
			if i < len(units) {
				buf.WriteU16(units[i])
			} else {
				buf.WriteU16(0)
			}
		}
		buf.WriteU16(0)
	}
	writeSplitU32 := func(v uint32) {
		buf.WriteU16(uint16(v >> 16))
		buf.WriteU16(uint16(v & 0xFFFF))
		buf.WriteU16(0)
	}

	for _, info := range m.Files {
		buf.WriteStringUTF16(info.Filename)
		buf.WriteU16(0)
		buf.WriteStringUTF16(info.DownloadName)
		buf.WriteU16(0)
		writeHash(info.FileHash)
		writeHash(info.DownloadHash)
		writeSplitU32(info.FileSize)
		writeSplitU32(info.DownloadSize)
		writeSplitU32(info.Flags)
	}
	buf.WriteU16(0)

	size := buf.Tell() - start
	if size%2 != 0 {
		slog.Warn("encoded manifest not divisible by UTF-16 cell size")
	}
	return uint32(size / 2)
}
