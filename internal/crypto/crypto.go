// Package crypto implements the legacy connection cipher: a Diffie-Hellman
// style key agreement over 512-bit integers followed by paired RC4 streams.
package crypto

import (
	"crypto/rand"
	"crypto/rc4"
	"fmt"
	"math/big"
)

// Per-service generator bases. The client has these compiled in.
const (
	BaseGate uint32 = 4
	BaseAuth uint32 = 41
	BaseGame uint32 = 73
)

// KeySize is the size in bytes of the N and K key material.
const KeySize = 64

// SharedKeySize is the size of the derived RC4 key.
const SharedKeySize = 7

// ReverseBytes reverses buf in place. All big-integer math is big-endian
// while the client speaks little-endian; every crossing goes through here.
func ReverseBytes(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// CalcX computes the server's public value X = base^K mod N. n and k are
// 64-byte big-endian integers; the result is 64 big-endian bytes.
func CalcX(n, k []byte, base uint32) []byte {
	bnN := new(big.Int).SetBytes(n)
	bnK := new(big.Int).SetBytes(k)
	bnG := new(big.Int).SetUint64(uint64(base))
	x := new(big.Int).Exp(bnG, bnK, bnN)
	return x.FillBytes(make([]byte, KeySize))
}

// Establish derives the 7-byte shared RC4 key from the client's public value
// Y (64 bytes, big-endian) and the server secrets N and K. It generates a
// random 7-byte server seed, computes Y^K mod N, byte-reverses the result to
// little-endian and XORs the low seven bytes with the seed.
func Establish(y, n, k []byte) (seed, key [SharedKeySize]byte, err error) {
	if len(y) != KeySize || len(n) != KeySize || len(k) != KeySize {
		return seed, key, fmt.Errorf("crypt establish: key material must be %d bytes", KeySize)
	}
	if _, err = rand.Read(seed[:]); err != nil {
		return seed, key, fmt.Errorf("crypt establish: %w", err)
	}

	bnY := new(big.Int).SetBytes(y)
	bnN := new(big.Int).SetBytes(n)
	bnK := new(big.Int).SetBytes(k)
	shared := new(big.Int).Exp(bnY, bnK, bnN).FillBytes(make([]byte, KeySize))
	ReverseBytes(shared)

	for i := range key {
		key[i] = shared[i] ^ seed[i]
	}
	return seed, key, nil
}

// DeriveKey recomputes the shared key from a known seed. Used by tests and
// client-side helpers; the math is identical to Establish minus the random
// seed generation.
func DeriveKey(y, n, k []byte, seed [SharedKeySize]byte) ([SharedKeySize]byte, error) {
	var key [SharedKeySize]byte
	if len(y) != KeySize || len(n) != KeySize || len(k) != KeySize {
		return key, fmt.Errorf("derive key: key material must be %d bytes", KeySize)
	}
	bnY := new(big.Int).SetBytes(y)
	bnN := new(big.Int).SetBytes(n)
	bnK := new(big.Int).SetBytes(k)
	shared := new(big.Int).Exp(bnY, bnK, bnN).FillBytes(make([]byte, KeySize))
	ReverseBytes(shared)
	for i := range key {
		key[i] = shared[i] ^ seed[i]
	}
	return key, nil
}

// State is a per-connection cipher: two independent RC4 keystreams
// initialized from the same key, one per direction.
type State struct {
	read  *rc4.Cipher
	write *rc4.Cipher
}

// NewState initializes both keystreams from key.
func NewState(key []byte) (*State, error) {
	rd, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init read cipher: %w", err)
	}
	wr, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init write cipher: %w", err)
	}
	return &State{read: rd, write: wr}, nil
}

// Decrypt advances the inbound keystream over buf in place.
func (s *State) Decrypt(buf []byte) {
	s.read.XORKeyStream(buf, buf)
}

// Encrypt advances the outbound keystream over buf in place.
func (s *State) Encrypt(buf []byte) {
	s.write.XORKeyStream(buf, buf)
}
