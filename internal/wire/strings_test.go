package wire

import (
	"strings"
	"testing"
)

func TestSafeString_RoundTrip(t *testing.T) {
	cases := []string{"", "x", "Relto", "The Cleft", strings.Repeat("a", 0xFFF)}
	for _, want := range cases {
		s := NewBufferStream(16)
		s.WriteSafeString(want)
		if err := s.Seek(0, SeekSet); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		got, err := s.ReadSafeString()
		if err != nil {
			t.Fatalf("ReadSafeString(%q): %v", want, err)
		}
		if got != want {
			t.Errorf("round trip = %q, want %q", got, want)
		}
	}
}

func TestSafeString_WriterContract(t *testing.T) {
	s := NewBufferStream(16)
	s.WriteSafeString("ab")
	raw := s.Bytes()

	// Length word carries the 0xF000 marker.
	length := uint16(raw[0]) | uint16(raw[1])<<8
	if length&0xF000 != 0xF000 {
		t.Errorf("length word %04X missing marker", length)
	}
	if length&0x0FFF != 2 {
		t.Errorf("length = %d, want 2", length&0x0FFF)
	}
	// Payload is bit-inverted.
	if raw[2] != ^byte('a') || raw[3] != ^byte('b') {
		t.Errorf("payload not inverted: %x", raw[2:])
	}
}

func TestSafeString_LegacySecondLengthWord(t *testing.T) {
	// Top nibble clear: a second length word follows and is discarded,
	// and the non-inverted payload is taken as-is.
	s := FromBytes([]byte{0x02, 0x00, 0x99, 0x99, 'h', 'i'})
	got, err := s.ReadSafeString()
	if err != nil {
		t.Fatalf("ReadSafeString: %v", err)
	}
	if got != "hi" {
		t.Errorf("got %q, want %q", got, "hi")
	}
}

func TestSafeStringUTF16_RoundTrip(t *testing.T) {
	cases := []string{"", "Relto", "D'ni ωμέγα"}
	for _, want := range cases {
		s := NewBufferStream(16)
		s.WriteSafeStringUTF16(want)
		if err := s.Seek(0, SeekSet); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		got, err := s.ReadSafeStringUTF16()
		if err != nil {
			t.Fatalf("ReadSafeStringUTF16(%q): %v", want, err)
		}
		if got != want {
			t.Errorf("round trip = %q, want %q", got, want)
		}
	}
}

func TestVaultString_RoundTrip(t *testing.T) {
	cases := []string{"", "Atrus", "Гарта"}
	for _, want := range cases {
		s := NewBufferStream(16)
		s.WriteVaultString(want)
		if err := s.Seek(0, SeekSet); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		got, err := s.ReadVaultString()
		if err != nil {
			t.Fatalf("ReadVaultString(%q): %v", want, err)
		}
		if got != want {
			t.Errorf("round trip = %q, want %q", got, want)
		}
	}
}

func TestVaultString_LengthIncludesTerminator(t *testing.T) {
	s := NewBufferStream(16)
	s.WriteVaultString("ab")
	raw := s.Bytes()
	// u32 byte length of payload including the trailing null cell
	length := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	if length != 6 {
		t.Errorf("byte length = %d, want 6", length)
	}
	if raw[len(raw)-2] != 0 || raw[len(raw)-1] != 0 {
		t.Error("missing null terminator cell")
	}
}

func TestPString16_RoundTrip(t *testing.T) {
	s := NewBufferStream(16)
	s.WritePString16("hello")
	s.WritePString16UTF16("wörld")
	if err := s.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if got, err := s.ReadPString16(); err != nil || got != "hello" {
		t.Errorf("ReadPString16 = %q, %v", got, err)
	}
	if got, err := s.ReadPString16UTF16(); err != nil || got != "wörld" {
		t.Errorf("ReadPString16UTF16 = %q, %v", got, err)
	}
}
