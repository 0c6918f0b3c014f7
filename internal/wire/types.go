package wire

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Uuid is a UUID in the legacy mixed-endian wire layout: LE data1/data2/data3
// words followed by 8 raw bytes.
type Uuid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// NewUuid generates a random (v4) Uuid.
func NewUuid() Uuid {
	return UuidFromBytes(uuid.New())
}

// UuidFromBytes builds a Uuid from RFC 4122 big-endian bytes.
func UuidFromBytes(u uuid.UUID) Uuid {
	var out Uuid
	out.Data1 = uint32(u[0])<<24 | uint32(u[1])<<16 | uint32(u[2])<<8 | uint32(u[3])
	out.Data2 = uint16(u[4])<<8 | uint16(u[5])
	out.Data3 = uint16(u[6])<<8 | uint16(u[7])
	copy(out.Data4[:], u[8:])
	return out
}

// ParseUuid parses the canonical textual form.
func ParseUuid(s string) (Uuid, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Uuid{}, fmt.Errorf("parsing uuid %q: %w", s, err)
	}
	return UuidFromBytes(u), nil
}

// IsNull reports whether every field is zero.
func (u Uuid) IsNull() bool {
	return u == Uuid{}
}

// String renders the canonical textual form.
func (u Uuid) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		u.Data1, u.Data2, u.Data3, u.Data4[0], u.Data4[1],
		u.Data4[2], u.Data4[3], u.Data4[4], u.Data4[5], u.Data4[6], u.Data4[7])
}

// Read reads the wire layout.
func (u *Uuid) Read(s *BufferStream) error {
	var err error
	if u.Data1, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read uuid: %w", err)
	}
	if u.Data2, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read uuid: %w", err)
	}
	if u.Data3, err = s.ReadU16(); err != nil {
		return fmt.Errorf("read uuid: %w", err)
	}
	raw, err := s.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("read uuid: %w", err)
	}
	copy(u.Data4[:], raw)
	return nil
}

// Write writes the wire layout.
func (u Uuid) Write(s *BufferStream) {
	s.WriteU32(u.Data1)
	s.WriteU16(u.Data2)
	s.WriteU16(u.Data3)
	s.WriteBytes(u.Data4[:])
}

// UnifiedTime is the legacy timestamp: seconds and microseconds since the
// Unix epoch, both u32.
type UnifiedTime struct {
	Secs   uint32
	Micros uint32
}

// Now returns the current UnifiedTime.
func Now() UnifiedTime {
	t := time.Now()
	return UnifiedTime{Secs: uint32(t.Unix()), Micros: uint32(t.Nanosecond() / 1000)}
}

// IsNull reports whether the timestamp is unset.
func (t UnifiedTime) IsNull() bool {
	return t.Secs == 0 && t.Micros == 0
}

// Read reads the wire layout.
func (t *UnifiedTime) Read(s *BufferStream) error {
	var err error
	if t.Secs, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read unified time: %w", err)
	}
	if t.Micros, err = s.ReadU32(); err != nil {
		return fmt.Errorf("read unified time: %w", err)
	}
	return nil
}

// Write writes the wire layout.
func (t UnifiedTime) Write(s *BufferStream) {
	s.WriteU32(t.Secs)
	s.WriteU32(t.Micros)
}

// Vector3 is three IEEE-754 LE floats.
type Vector3 struct {
	X, Y, Z float32
}

func (v *Vector3) Read(s *BufferStream) error {
	var err error
	if v.X, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read vector3: %w", err)
	}
	if v.Y, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read vector3: %w", err)
	}
	if v.Z, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read vector3: %w", err)
	}
	return nil
}

func (v Vector3) Write(s *BufferStream) {
	s.WriteF32(v.X)
	s.WriteF32(v.Y)
	s.WriteF32(v.Z)
}

// Quaternion is four IEEE-754 LE floats.
type Quaternion struct {
	X, Y, Z, W float32
}

func (q *Quaternion) Read(s *BufferStream) error {
	var err error
	if q.X, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read quaternion: %w", err)
	}
	if q.Y, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read quaternion: %w", err)
	}
	if q.Z, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read quaternion: %w", err)
	}
	if q.W, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read quaternion: %w", err)
	}
	return nil
}

func (q Quaternion) Write(s *BufferStream) {
	s.WriteF32(q.X)
	s.WriteF32(q.Y)
	s.WriteF32(q.Z)
	s.WriteF32(q.W)
}

// ColorRgba is a float color. Rgb variants skip the alpha channel on the wire.
type ColorRgba struct {
	R, G, B, A float32
}

// ReadRgba reads four float channels.
func (c *ColorRgba) ReadRgba(s *BufferStream) error {
	var err error
	if c.R, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgba: %w", err)
	}
	if c.G, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgba: %w", err)
	}
	if c.B, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgba: %w", err)
	}
	if c.A, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgba: %w", err)
	}
	return nil
}

// ReadRgb reads three float channels, leaving alpha untouched.
func (c *ColorRgba) ReadRgb(s *BufferStream) error {
	var err error
	if c.R, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgb: %w", err)
	}
	if c.G, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgb: %w", err)
	}
	if c.B, err = s.ReadF32(); err != nil {
		return fmt.Errorf("read rgb: %w", err)
	}
	return nil
}

func (c ColorRgba) WriteRgba(s *BufferStream) {
	s.WriteF32(c.R)
	s.WriteF32(c.G)
	s.WriteF32(c.B)
	s.WriteF32(c.A)
}

func (c ColorRgba) WriteRgb(s *BufferStream) {
	s.WriteF32(c.R)
	s.WriteF32(c.G)
	s.WriteF32(c.B)
}

// ColorRgba8 is a byte color. Rgb8 variants skip alpha on the wire.
type ColorRgba8 struct {
	R, G, B, A uint8
}

func (c *ColorRgba8) ReadRgba8(s *BufferStream) error {
	raw, err := s.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("read rgba8: %w", err)
	}
	c.R, c.G, c.B, c.A = raw[0], raw[1], raw[2], raw[3]
	return nil
}

func (c *ColorRgba8) ReadRgb8(s *BufferStream) error {
	raw, err := s.ReadBytes(3)
	if err != nil {
		return fmt.Errorf("read rgb8: %w", err)
	}
	c.R, c.G, c.B = raw[0], raw[1], raw[2]
	return nil
}

func (c ColorRgba8) WriteRgba8(s *BufferStream) {
	s.WriteBytes([]byte{c.R, c.G, c.B, c.A})
}

func (c ColorRgba8) WriteRgb8(s *BufferStream) {
	s.WriteBytes([]byte{c.R, c.G, c.B})
}

// Matrix44 is a 4x4 float matrix in row-major order.
type Matrix44 struct {
	M [4][4]float32
}

func (m *Matrix44) Read(s *BufferStream) error {
	for i := range 4 {
		for j := range 4 {
			v, err := s.ReadF32()
			if err != nil {
				return fmt.Errorf("read matrix44: %w", err)
			}
			m.M[i][j] = v
		}
	}
	return nil
}

func (m Matrix44) Write(s *BufferStream) {
	for i := range 4 {
		for j := range 4 {
			s.WriteF32(m.M[i][j])
		}
	}
}
