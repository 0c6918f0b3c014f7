package moul

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zlib"
	"github.com/udisondev/moulgo/internal/wire"
)

// CreatableList flags.
const (
	creListWantCompression = 1 << 0
	creListCompressed      = 1 << 1
)

// compressionThreshold is the body size above which the list is deflated.
const compressionThreshold = 255

// CreatableList is an id-keyed collection of creatables with an optionally
// zlib-compressed body.
type CreatableList struct {
	Flags uint8
	Items map[uint16]Creatable
}

// Read reads the list, inflating a compressed body.
func (l *CreatableList) Read(s *wire.BufferStream) error {
	l.Items = make(map[uint16]Creatable)

	var err error
	if l.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read creatable list: %w", err)
	}
	bufSize, err := s.ReadU32()
	if err != nil {
		return fmt.Errorf("read creatable list: %w", err)
	}

	var body []byte
	if l.Flags&creListCompressed != 0 {
		zSize, err := s.ReadU32()
		if err != nil {
			return fmt.Errorf("read creatable list: %w", err)
		}
		zBody, err := s.ReadBytes(int(zSize))
		if err != nil {
			return fmt.Errorf("read creatable list: %w", err)
		}
		zr, err := zlib.NewReader(bytes.NewReader(zBody))
		if err != nil {
			return fmt.Errorf("inflate creatable list: %w", err)
		}
		body = make([]byte, bufSize)
		if _, err := io.ReadFull(zr, body); err != nil {
			return fmt.Errorf("inflate creatable list: %w", err)
		}
		zr.Close()
		l.Flags &^= creListCompressed
	} else {
		if body, err = s.ReadBytes(int(bufSize)); err != nil {
			return fmt.Errorf("read creatable list: %w", err)
		}
	}

	ram := wire.FromBytes(body)
	count, err := ram.ReadU16()
	if err != nil {
		return fmt.Errorf("read creatable list: %w", err)
	}
	for i := 0; i < int(count); i++ {
		id, err := ram.ReadU16()
		if err != nil {
			return fmt.Errorf("read creatable list item: %w", err)
		}
		typeID, err := ram.ReadU16()
		if err != nil {
			return fmt.Errorf("read creatable list item: %w", err)
		}
		obj, err := Create(typeID)
		if err != nil {
			return fmt.Errorf("read creatable list item: %w", err)
		}
		if obj == nil {
			return fmt.Errorf("read creatable list item %d: null type", id)
		}
		if err := obj.Read(ram); err != nil {
			return fmt.Errorf("read creatable list item 0x%04X: %w", typeID, err)
		}
		l.Items[id] = obj
	}
	return nil
}

// Write writes the list, deflating large bodies when requested.
func (l *CreatableList) Write(s *wire.BufferStream) {
	ram := wire.NewBufferStream(256)
	ram.WriteU16(uint16(len(l.Items)))
	ids := make([]int, 0, len(l.Items))
	for id := range l.Items {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		item := l.Items[uint16(id)]
		ram.WriteU16(uint16(id))
		ram.WriteU16(item.Type())
		item.Write(ram)
	}
	body := ram.Bytes()

	flags := l.Flags &^ creListCompressed
	if flags&creListWantCompression != 0 && len(body) > compressionThreshold {
		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		if _, err := zw.Write(body); err == nil && zw.Close() == nil {
			s.WriteU8(flags | creListCompressed)
			s.WriteU32(uint32(len(body)))
			s.WriteU32(uint32(zbuf.Len()))
			s.WriteBytes(zbuf.Bytes())
			return
		}
		// Compression failed; fall through to the plain encoding.
	}

	s.WriteU8(flags)
	s.WriteU32(uint32(len(body)))
	s.WriteBytes(body)
}

// MakeSafeForNet recurses into every item.
func (l *CreatableList) MakeSafeForNet() bool {
	for _, item := range l.Items {
		if item != nil && !item.MakeSafeForNet() {
			return false
		}
	}
	return true
}
