// Package agefile parses .age descriptor files.
package agefile

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/udisondev/moulgo/internal/sdl"
)

// AgeInfo holds the recognized fields of an .age descriptor.
type AgeInfo struct {
	StartTime   uint32
	DayLength   float64
	MaxCapacity uint32
	LingerTime  uint32
	SeqPrefix   int32
}

// defaults mirror what the client assumes for missing keys.
func defaultAgeInfo() AgeInfo {
	return AgeInfo{
		DayLength:   24.0,
		MaxCapacity: 10,
		LingerTime:  180,
		SeqPrefix:   -1,
	}
}

// Parse reads the Key=Value body of an age descriptor.
func Parse(name string, data []byte) AgeInfo {
	age := defaultAgeInfo()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("invalid AGE line", "file", name, "line", line)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "StartDateTime":
			var v uint64
			if v, err = strconv.ParseUint(value, 10, 32); err == nil {
				age.StartTime = uint32(v)
			}
		case "DayLength":
			age.DayLength, err = strconv.ParseFloat(value, 64)
		case "MaxCapacity":
			var v uint64
			if v, err = strconv.ParseUint(value, 10, 32); err == nil {
				age.MaxCapacity = uint32(v)
			}
		case "LingerTime":
			var v uint64
			if v, err = strconv.ParseUint(value, 10, 32); err == nil {
				age.LingerTime = uint32(v)
			}
		case "SequencePrefix":
			var v int64
			if v, err = strconv.ParseInt(value, 10, 32); err == nil {
				age.SeqPrefix = int32(v)
			}
		case "ReleaseVersion", "Page":
			// Ignored
		default:
			slog.Warn("invalid AGE line", "file", name, "key", key)
		}
		if err != nil {
			slog.Warn("invalid AGE value", "file", name, "key", key, "value", value)
		}
	}
	return age
}

// LoadDirectory parses every .age file in dir, keyed by age name (filename
// without extension). Encrypted descriptors abort the load.
func LoadDirectory(dir string) (map[string]AgeInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading age directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".age") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		slog.Warn("no age descriptors found", "dir", dir)
	}

	ages := make(map[string]AgeInfo, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if sdl.IsEncrypted(data) {
			return nil, fmt.Errorf("%s is encrypted; decrypt .age files before starting", path)
		}
		ageName := strings.TrimSuffix(name, ".age")
		age := Parse(name, data)
		if age.SeqPrefix >= 0 {
			ages[ageName] = age
		}
	}
	return ages, nil
}
