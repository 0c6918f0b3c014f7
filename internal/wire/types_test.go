package wire

import "testing"

func TestUuid_WireLayout(t *testing.T) {
	u, err := ParseUuid("00112233-4455-6677-8899-aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseUuid: %v", err)
	}

	s := NewBufferStream(16)
	u.Write(s)
	if s.Size() != 16 {
		t.Fatalf("wire size = %d, want 16", s.Size())
	}
	// data1/2/3 are little-endian words, data4 is raw.
	want := []byte{
		0x33, 0x22, 0x11, 0x00,
		0x55, 0x44,
		0x77, 0x66,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}
	for i, b := range want {
		if s.Bytes()[i] != b {
			t.Fatalf("byte %d = %02X, want %02X", i, s.Bytes()[i], b)
		}
	}

	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	var back Uuid
	if err := back.Read(s); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if back != u {
		t.Error("uuid did not round trip")
	}
	if back.String() != "00112233-4455-6677-8899-aabbccddeeff" {
		t.Errorf("String = %s", back.String())
	}
}

func TestUuid_Null(t *testing.T) {
	var u Uuid
	if !u.IsNull() {
		t.Error("zero uuid should be null")
	}
	if NewUuid().IsNull() {
		t.Error("generated uuid should not be null")
	}
}

func TestUnifiedTime_RoundTrip(t *testing.T) {
	ut := UnifiedTime{Secs: 0x12345678, Micros: 999999}
	s := NewBufferStream(8)
	ut.Write(s)
	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	var back UnifiedTime
	if err := back.Read(s); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if back != ut {
		t.Error("unified time did not round trip")
	}
	if (UnifiedTime{}).IsNull() != true {
		t.Error("zero time should be null")
	}
}

func TestMathTypes_RoundTrip(t *testing.T) {
	s := NewBufferStream(128)
	v := Vector3{1, -2, 3.5}
	q := Quaternion{0.5, 0.5, 0.5, 0.5}
	c := ColorRgba{0.1, 0.2, 0.3, 0.4}
	c8 := ColorRgba8{10, 20, 30, 40}
	var m Matrix44
	for i := range 4 {
		for j := range 4 {
			m.M[i][j] = float32(i*4 + j)
		}
	}

	v.Write(s)
	q.Write(s)
	c.WriteRgba(s)
	c.WriteRgb(s)
	c8.WriteRgba8(s)
	c8.WriteRgb8(s)
	m.Write(s)

	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	var v2 Vector3
	var q2 Quaternion
	var ca, cb ColorRgba
	var c8a, c8b ColorRgba8
	var m2 Matrix44
	if err := v2.Read(s); err != nil || v2 != v {
		t.Errorf("vector3 = %v, %v", v2, err)
	}
	if err := q2.Read(s); err != nil || q2 != q {
		t.Errorf("quaternion = %v, %v", q2, err)
	}
	if err := ca.ReadRgba(s); err != nil || ca != c {
		t.Errorf("rgba = %v, %v", ca, err)
	}
	if err := cb.ReadRgb(s); err != nil || cb.R != c.R || cb.G != c.G || cb.B != c.B {
		t.Errorf("rgb = %v, %v", cb, err)
	}
	if err := c8a.ReadRgba8(s); err != nil || c8a != c8 {
		t.Errorf("rgba8 = %v, %v", c8a, err)
	}
	if err := c8b.ReadRgb8(s); err != nil || c8b.R != c8.R || c8b.B != c8.B {
		t.Errorf("rgb8 = %v, %v", c8b, err)
	}
	if err := m2.Read(s); err != nil || m2 != m {
		t.Errorf("matrix44 mismatch: %v", err)
	}
}

func TestBitVector_RoundTrip(t *testing.T) {
	var b BitVector
	b.Set(0, true)
	b.Set(31, true)
	b.Set(40, true)

	s := NewBufferStream(16)
	b.Write(s)
	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	var back BitVector
	if err := back.Read(s); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	for _, idx := range []int{0, 31, 40} {
		if !back.Get(idx) {
			t.Errorf("bit %d lost", idx)
		}
	}
	if back.Get(1) || back.Get(64) {
		t.Error("unexpected bits set")
	}
}
