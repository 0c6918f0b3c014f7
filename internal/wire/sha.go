package wire

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"
)

// ShaHash is a 20-byte SHA digest. The legacy client treats hashes as five
// little-endian dwords; keeping the raw digest bytes gives the same wire
// layout (five LE words of native-order memory are just the bytes in order).
type ShaHash [20]byte

// ShaFromHex parses a 40-character hex digest.
func ShaFromHex(s string) (ShaHash, error) {
	var h ShaHash
	if len(s) != 40 {
		return h, fmt.Errorf("sha hash: bad hex length %d", len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("sha hash: %w", err)
	}
	copy(h[:], raw)
	return h, nil
}

// String renders the digest as lowercase hex.
func (h ShaHash) String() string {
	return hex.EncodeToString(h[:])
}

// Read reads the 20-byte digest from the stream.
func (h *ShaHash) Read(s *BufferStream) error {
	raw, err := s.ReadBytes(20)
	if err != nil {
		return fmt.Errorf("read sha hash: %w", err)
	}
	copy(h[:], raw)
	return nil
}

// Write writes the 20-byte digest to the stream.
func (h ShaHash) Write(s *BufferStream) {
	s.WriteBytes(h[:])
}

// SwapWords byte-swaps each of the five 32-bit words in place. The stored
// hash for non-email logins is big-endian on the client side.
func (h *ShaHash) SwapWords() {
	for i := 0; i < 20; i += 4 {
		h[i], h[i+1], h[i+2], h[i+3] = h[i+3], h[i+2], h[i+1], h[i]
	}
}

// Sha1 computes a standard SHA-1 digest.
func Sha1(data []byte) ShaHash {
	return ShaHash(sha1.Sum(data))
}

// Sha0 computes a SHA-0 digest. SHA-0 is SHA-1 without the one-bit rotation
// in the message schedule; the legacy email-style login hash still uses it.
func Sha0(data []byte) ShaHash {
	h0 := uint32(0x67452301)
	h1 := uint32(0xEFCDAB89)
	h2 := uint32(0x98BADCFE)
	h3 := uint32(0x10325476)
	h4 := uint32(0xC3D2E1F0)

	msgLen := uint64(len(data)) * 8
	padded := make([]byte, 0, len(data)+72)
	padded = append(padded, data...)
	padded = append(padded, 0x80)
	for len(padded)%64 != 56 {
		padded = append(padded, 0)
	}
	padded = binary.BigEndian.AppendUint64(padded, msgLen)

	var w [80]uint32
	for chunk := 0; chunk < len(padded); chunk += 64 {
		block := padded[chunk : chunk+64]
		for i := range 16 {
			w[i] = binary.BigEndian.Uint32(block[i*4:])
		}
		for i := 16; i < 80; i++ {
			// SHA-1 would rotate this left by one
			w[i] = w[i-3] ^ w[i-8] ^ w[i-14] ^ w[i-16]
		}

		a, b, c, d, e := h0, h1, h2, h3, h4
		for i := range 80 {
			var f, k uint32
			switch {
			case i < 20:
				f = (b & c) | (^b & d)
				k = 0x5A827999
			case i < 40:
				f = b ^ c ^ d
				k = 0x6ED9EBA1
			case i < 60:
				f = (b & c) | (b & d) | (c & d)
				k = 0x8F1BBCDC
			default:
				f = b ^ c ^ d
				k = 0xCA62C1D6
			}
			tmp := bits.RotateLeft32(a, 5) + f + e + k + w[i]
			e = d
			d = c
			c = bits.RotateLeft32(b, 30)
			b = a
			a = tmp
		}
		h0 += a
		h1 += b
		h2 += c
		h3 += d
		h4 += e
	}

	var out ShaHash
	binary.BigEndian.PutUint32(out[0:], h0)
	binary.BigEndian.PutUint32(out[4:], h1)
	binary.BigEndian.PutUint32(out[8:], h2)
	binary.BigEndian.PutUint32(out[12:], h3)
	binary.BigEndian.PutUint32(out[16:], h4)
	return out
}

// ChallengeHash computes the login challenge digest for email-style accounts:
// SHA-0 over serverChallenge, clientChallenge (both u32 LE) and the stored
// password hash.
func ChallengeHash(serverChallenge, clientChallenge uint32, storedHash ShaHash) ShaHash {
	buf := make([]byte, 0, 28)
	buf = binary.LittleEndian.AppendUint32(buf, serverChallenge)
	buf = binary.LittleEndian.AppendUint32(buf, clientChallenge)
	buf = append(buf, storedHash[:]...)
	return Sha0(buf)
}
