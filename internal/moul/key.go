package moul

import (
	"fmt"

	"github.com/udisondev/moulgo/internal/wire"
)

// Location flags.
const (
	LocLocalOnly = 1 << 0
	LocVolatile  = 1 << 1
	LocReserved  = 1 << 2
	LocBuiltIn   = 1 << 3
	LocItinerant = 1 << 4
)

// Location identifies a registry page by sequence number.
type Location struct {
	Sequence uint32
	Flags    uint16
}

// LocationInvalid is the unset location.
var LocationInvalid = Location{Sequence: 0xFFFFFFFF}

// LocationVirtual is the global virtual page.
var LocationVirtual = Location{Sequence: 0}

// MakeLocation builds a location from an age sequence prefix and page number.
// Negative prefixes map into the reserved global range.
func MakeLocation(prefix int32, page int32, flags uint16) Location {
	var seq int64
	if prefix < 0 {
		seq = int64(page&0xFFFF) - int64(prefix)<<16 + 0xFF000001
	} else {
		seq = int64(page&0xFFFF) + int64(prefix)<<16 + 33
	}
	return Location{Sequence: uint32(seq), Flags: flags}
}

func (l *Location) Read(s *wire.BufferStream) error {
	var err error
	if l.Sequence, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read location: %w", err)
	}
	if l.Flags, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read location: %w", err)
	}
	return nil
}

func (l Location) Write(s *wire.BufferStream) {
	s.WriteU32(l.Sequence)
	s.WriteU16(l.Flags)
}

// Uoid contents bits.
const (
	uoidHasCloneIDs = 1 << 0
	uoidHasLoadMask = 1 << 1
)

// Uoid is an object identity: location, type, id, name and optional clone ids.
type Uoid struct {
	Location      Location
	LoadMask      uint8
	ObjType       uint16
	ID            uint32
	Name          string
	CloneID       uint32
	ClonePlayerID uint32
}

// NewUoid returns a Uoid with the default (full) load mask and null type.
func NewUoid() Uoid {
	return Uoid{LoadMask: 0xFF, ObjType: NullType}
}

func (u *Uoid) Read(s *wire.BufferStream) error {
	contents, err := s.ReadU8()
	if err != nil {
		return fmt.Errorf("read uoid: %w", err)
	}
	if err := u.Location.Read(s); err != nil {
		return fmt.Errorf("read uoid: %w", err)
	}
	if contents&uoidHasLoadMask != 0 {
		if u.LoadMask, err = s.ReadU8(); err != nil {
			return fmt.Errorf("read uoid: %w", err)
		}
	} else {
		u.LoadMask = 0xFF
	}
	if u.ObjType, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read uoid: %w", err)
	}
	if u.ID, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read uoid: %w", err)
	}
	if u.Name, err = s.ReadSafeString(); err != nil {
		return fmt.Errorf("read uoid: %w", err)
	}
	if contents&uoidHasCloneIDs != 0 {
		if u.CloneID, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read uoid: %w", err)
		}
		if u.ClonePlayerID, err = s.ReadU32(); err != nil {
			return fmt.Errorf("read uoid: %w", err)
		}
	} else {
		u.CloneID = 0
		u.ClonePlayerID = 0
	}
	return nil
}

func (u Uoid) Write(s *wire.BufferStream) {
	var contents uint8
	if u.LoadMask != 0xFF {
		contents |= uoidHasLoadMask
	}
	if u.CloneID != 0 || u.ClonePlayerID != 0 {
		contents |= uoidHasCloneIDs
	}
	s.WriteU8(contents)
	u.Location.Write(s)
	if contents&uoidHasLoadMask != 0 {
		s.WriteU8(u.LoadMask)
	}
	s.WriteU16(u.ObjType)
	s.WriteU32(u.ID)
	s.WriteSafeString(u.Name)
	if contents&uoidHasCloneIDs != 0 {
		s.WriteU32(u.CloneID)
		s.WriteU32(u.ClonePlayerID)
	}
}

// IsNull reports an identity that names nothing (null-key equivalent).
func (u Uoid) IsNull() bool {
	return u.ObjType == NullType && u.Name == "" && u.ID == 0
}

// Key is a nullable reference to an object identity. The wire form is a bool
// presence flag followed by the Uoid.
type Key struct {
	uoid *Uoid
}

// KeyFromUoid wraps an identity in a key.
func KeyFromUoid(u Uoid) Key {
	return Key{uoid: &u}
}

// IsNull reports an empty key.
func (k Key) IsNull() bool {
	return k.uoid == nil
}

// Uoid returns the identity; NewUoid() (full load mask, null type) when null.
func (k Key) Uoid() Uoid {
	if k.uoid == nil {
		return NewUoid()
	}
	return *k.uoid
}

func (k *Key) Read(s *wire.BufferStream) error {
	present, err := s.ReadBool()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if !present {
		k.uoid = nil
		return nil
	}
	var u Uoid
	if err := u.Read(s); err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	k.uoid = &u
	return nil
}

func (k Key) Write(s *wire.BufferStream) {
	s.WriteBool(k.uoid != nil)
	if k.uoid != nil {
		k.uoid.Write(s)
	}
}

// NetGroupId identifies a synchronization group.
type NetGroupId struct {
	Location Location
	Flags    uint8
}

func (g *NetGroupId) Read(s *wire.BufferStream) error {
	if err := g.Location.Read(s); err != nil {
		return fmt.Errorf("read net group id: %w", err)
	}
	var err error
	if g.Flags, err = s.ReadU8(); err != nil {
		return fmt.Errorf("read net group id: %w", err)
	}
	return nil
}

func (g NetGroupId) Write(s *wire.BufferStream) {
	g.Location.Write(s)
	s.WriteU8(g.Flags)
}
