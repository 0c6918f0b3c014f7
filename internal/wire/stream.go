package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Seek whence values, mirroring the classic stream API.
const (
	SeekSet = io.SeekStart
	SeekCur = io.SeekCurrent
	SeekEnd = io.SeekEnd
)

// BufferStream is an in-memory stream with independent read/write access at a
// shared position. All multi-byte values are Little-Endian.
type BufferStream struct {
	data []byte
	pos  int
}

// NewBufferStream creates an empty stream with the given initial capacity.
func NewBufferStream(capacity int) *BufferStream {
	return &BufferStream{data: make([]byte, 0, capacity)}
}

// FromBytes wraps data in a stream positioned at the start.
// The stream takes ownership of the slice.
func FromBytes(data []byte) *BufferStream {
	return &BufferStream{data: data}
}

// Bytes returns the full stream contents (not a copy).
func (s *BufferStream) Bytes() []byte {
	return s.data
}

// Size returns the total stream size in bytes.
func (s *BufferStream) Size() int {
	return len(s.data)
}

// Tell returns the current position.
func (s *BufferStream) Tell() int {
	return s.pos
}

// AtEOF reports whether the position is at or past the end of the stream.
func (s *BufferStream) AtEOF() bool {
	return s.pos >= len(s.data)
}

// Remaining returns the number of unread bytes.
func (s *BufferStream) Remaining() int {
	return len(s.data) - s.pos
}

// Truncate resets the stream to empty, keeping the allocation.
func (s *BufferStream) Truncate() {
	s.data = s.data[:0]
	s.pos = 0
}

// Seek moves the position. whence is SeekSet, SeekCur or SeekEnd.
func (s *BufferStream) Seek(offset int, whence int) error {
	var abs int
	switch whence {
	case SeekSet:
		abs = offset
	case SeekCur:
		abs = s.pos + offset
	case SeekEnd:
		abs = len(s.data) + offset
	default:
		return fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 || abs > len(s.data) {
		return fmt.Errorf("seek: position %d out of range [0,%d]", abs, len(s.data))
	}
	s.pos = abs
	return nil
}

func (s *BufferStream) ensure(n int) {
	need := s.pos + n
	if need > len(s.data) {
		if need > cap(s.data) {
			grown := make([]byte, need, need*2)
			copy(grown, s.data)
			s.data = grown
		} else {
			s.data = s.data[:need]
		}
	}
}

// WriteBytes appends raw bytes at the current position, overwriting any
// existing content there (seek-then-write patches headers in place).
func (s *BufferStream) WriteBytes(p []byte) {
	s.ensure(len(p))
	copy(s.data[s.pos:], p)
	s.pos += len(p)
}

// WriteU8 writes a single byte.
func (s *BufferStream) WriteU8(b byte) {
	s.ensure(1)
	s.data[s.pos] = b
	s.pos++
}

// WriteBool writes a bool as one byte (0 or 1).
func (s *BufferStream) WriteBool(v bool) {
	if v {
		s.WriteU8(1)
	} else {
		s.WriteU8(0)
	}
}

// WriteU16 writes a uint16 (2 bytes, LE).
func (s *BufferStream) WriteU16(v uint16) {
	s.ensure(2)
	binary.LittleEndian.PutUint16(s.data[s.pos:], v)
	s.pos += 2
}

// WriteU32 writes a uint32 (4 bytes, LE).
func (s *BufferStream) WriteU32(v uint32) {
	s.ensure(4)
	binary.LittleEndian.PutUint32(s.data[s.pos:], v)
	s.pos += 4
}

// WriteU64 writes a uint64 (8 bytes, LE).
func (s *BufferStream) WriteU64(v uint64) {
	s.ensure(8)
	binary.LittleEndian.PutUint64(s.data[s.pos:], v)
	s.pos += 8
}

// WriteI16 writes an int16 (2 bytes, LE).
func (s *BufferStream) WriteI16(v int16) { s.WriteU16(uint16(v)) }

// WriteI32 writes an int32 (4 bytes, LE).
func (s *BufferStream) WriteI32(v int32) { s.WriteU32(uint32(v)) }

// WriteF32 writes a float32 (4 bytes, IEEE-754 LE).
func (s *BufferStream) WriteF32(v float32) { s.WriteU32(math.Float32bits(v)) }

// WriteF64 writes a float64 (8 bytes, IEEE-754 LE).
func (s *BufferStream) WriteF64(v float64) { s.WriteU64(math.Float64bits(v)) }

// ReadBytes reads n bytes into a fresh slice.
func (s *BufferStream) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read bytes: negative count %d", n)
	}
	if s.pos+n > len(s.data) {
		return nil, fmt.Errorf("read bytes: not enough data (pos=%d, need=%d, size=%d)", s.pos, n, len(s.data))
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:])
	s.pos += n
	return out, nil
}

// ReadU8 reads a single byte.
func (s *BufferStream) ReadU8() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, fmt.Errorf("read u8: not enough data (pos=%d, size=%d)", s.pos, len(s.data))
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// ReadBool reads one byte, any non-zero value is true.
func (s *BufferStream) ReadBool() (bool, error) {
	b, err := s.ReadU8()
	return b != 0, err
}

// ReadU16 reads a uint16 (2 bytes, LE).
func (s *BufferStream) ReadU16() (uint16, error) {
	if s.pos+2 > len(s.data) {
		return 0, fmt.Errorf("read u16: not enough data (pos=%d, size=%d)", s.pos, len(s.data))
	}
	v := binary.LittleEndian.Uint16(s.data[s.pos:])
	s.pos += 2
	return v, nil
}

// ReadU32 reads a uint32 (4 bytes, LE).
func (s *BufferStream) ReadU32() (uint32, error) {
	if s.pos+4 > len(s.data) {
		return 0, fmt.Errorf("read u32: not enough data (pos=%d, size=%d)", s.pos, len(s.data))
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadU64 reads a uint64 (8 bytes, LE).
func (s *BufferStream) ReadU64() (uint64, error) {
	if s.pos+8 > len(s.data) {
		return 0, fmt.Errorf("read u64: not enough data (pos=%d, size=%d)", s.pos, len(s.data))
	}
	v := binary.LittleEndian.Uint64(s.data[s.pos:])
	s.pos += 8
	return v, nil
}

// ReadI16 reads an int16 (2 bytes, LE).
func (s *BufferStream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

// ReadI32 reads an int32 (4 bytes, LE).
func (s *BufferStream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

// ReadF32 reads a float32 (4 bytes, IEEE-754 LE).
func (s *BufferStream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads a float64 (8 bytes, IEEE-754 LE).
func (s *BufferStream) ReadF64() (float64, error) {
	v, err := s.ReadU64()
	return math.Float64frombits(v), err
}
