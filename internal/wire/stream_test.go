package wire

import (
	"bytes"
	"testing"
)

func TestBufferStream_RoundTrip(t *testing.T) {
	s := NewBufferStream(16)
	s.WriteU8(0x42)
	s.WriteU16(0x1234)
	s.WriteU32(0xDEADBEEF)
	s.WriteU64(0x123456789ABCDEF0)
	s.WriteI32(-7)
	s.WriteF32(1.5)
	s.WriteF64(-2.25)
	s.WriteBool(true)

	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	if v, err := s.ReadU8(); err != nil || v != 0x42 {
		t.Errorf("ReadU8 = %v, %v", v, err)
	}
	if v, err := s.ReadU16(); err != nil || v != 0x1234 {
		t.Errorf("ReadU16 = %v, %v", v, err)
	}
	if v, err := s.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadU32 = %v, %v", v, err)
	}
	if v, err := s.ReadU64(); err != nil || v != 0x123456789ABCDEF0 {
		t.Errorf("ReadU64 = %v, %v", v, err)
	}
	if v, err := s.ReadI32(); err != nil || v != -7 {
		t.Errorf("ReadI32 = %v, %v", v, err)
	}
	if v, err := s.ReadF32(); err != nil || v != 1.5 {
		t.Errorf("ReadF32 = %v, %v", v, err)
	}
	if v, err := s.ReadF64(); err != nil || v != -2.25 {
		t.Errorf("ReadF64 = %v, %v", v, err)
	}
	if v, err := s.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool = %v, %v", v, err)
	}
	if !s.AtEOF() {
		t.Error("expected EOF after reading everything back")
	}
}

func TestBufferStream_LittleEndianLayout(t *testing.T) {
	s := NewBufferStream(8)
	s.WriteU32(0x11223344)
	want := []byte{0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(s.Bytes(), want) {
		t.Errorf("layout = %x, want %x", s.Bytes(), want)
	}
}

func TestBufferStream_ShortReadRejected(t *testing.T) {
	s := FromBytes([]byte{0x01, 0x02})
	if _, err := s.ReadU32(); err == nil {
		t.Error("ReadU32 on 2 bytes should fail")
	}
	if _, err := s.ReadBytes(3); err == nil {
		t.Error("ReadBytes(3) on 2 bytes should fail")
	}
	if _, err := s.ReadBytes(-1); err == nil {
		t.Error("ReadBytes(-1) should fail")
	}
}

func TestBufferStream_SeekAndPatch(t *testing.T) {
	s := NewBufferStream(16)
	s.WriteU16(7)
	s.WriteU32(0) // placeholder
	s.WriteU32(0xAABBCCDD)

	if err := s.Seek(2, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	s.WriteU32(uint32(s.Size()))
	if err := s.Seek(0, SeekEnd); err != nil {
		t.Fatalf("Seek to end failed: %v", err)
	}
	if s.Size() != 10 {
		t.Errorf("patch changed size: %d", s.Size())
	}

	if err := s.Seek(2, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	patched, err := s.ReadU32()
	if err != nil || patched != 10 {
		t.Errorf("patched value = %d, %v; want 10", patched, err)
	}
}

func TestBufferStream_SeekOutOfRange(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3})
	if err := s.Seek(4, SeekSet); err == nil {
		t.Error("seek past end should fail")
	}
	if err := s.Seek(-1, SeekSet); err == nil {
		t.Error("negative seek should fail")
	}
	if err := s.Seek(-3, SeekEnd); err != nil {
		t.Errorf("seek to start via SeekEnd failed: %v", err)
	}
	if s.Tell() != 0 {
		t.Errorf("Tell = %d, want 0", s.Tell())
	}
}

func TestBufferStream_Truncate(t *testing.T) {
	s := NewBufferStream(8)
	s.WriteU32(42)
	s.Truncate()
	if s.Size() != 0 || s.Tell() != 0 {
		t.Errorf("after Truncate: size=%d pos=%d", s.Size(), s.Tell())
	}
}
