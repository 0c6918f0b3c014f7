package crypto

import (
	"bytes"
	"math/big"
	"testing"
)

// fixedKey fills a 64-byte big-endian integer from a seed.
func fixedKey(seed byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = seed + byte(i)*7
	}
	// Keep the top byte non-zero so the value is a full 512-bit integer.
	key[0] |= 0x80
	return key
}

func TestCalcX_MatchesBigIntMath(t *testing.T) {
	n := fixedKey(3)
	k := fixedKey(11)

	x := CalcX(n, k, BaseAuth)
	if len(x) != KeySize {
		t.Fatalf("X length = %d, want %d", len(x), KeySize)
	}

	want := new(big.Int).Exp(big.NewInt(int64(BaseAuth)),
		new(big.Int).SetBytes(k), new(big.Int).SetBytes(n))
	if !bytes.Equal(x, want.FillBytes(make([]byte, KeySize))) {
		t.Error("CalcX disagrees with big.Int")
	}
}

func TestEstablish_DerivedKeyProperty(t *testing.T) {
	n := fixedKey(3)
	k := fixedKey(11)
	y := fixedKey(29)

	seed, key, err := Establish(y, n, k)
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	// key[i] must equal LowBytes(Y^K mod N, 7)[i] XOR seed[i], where low
	// bytes are in little-endian order.
	shared := new(big.Int).Exp(new(big.Int).SetBytes(y),
		new(big.Int).SetBytes(k), new(big.Int).SetBytes(n))
	sharedBytes := shared.FillBytes(make([]byte, KeySize))
	ReverseBytes(sharedBytes)
	for i := 0; i < SharedKeySize; i++ {
		if key[i] != sharedBytes[i]^seed[i] {
			t.Fatalf("key byte %d mismatch", i)
		}
	}

	// DeriveKey with the same seed reproduces the key.
	again, err := DeriveKey(y, n, k, seed)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if again != key {
		t.Error("DeriveKey disagrees with Establish")
	}
}

func TestEstablish_RejectsShortKeys(t *testing.T) {
	if _, _, err := Establish(make([]byte, 10), fixedKey(1), fixedKey(2)); err == nil {
		t.Error("short Y should fail")
	}
}

func TestState_MutualDecrypt(t *testing.T) {
	key := []byte{1, 2, 3, 4, 5, 6, 7}
	server, err := NewState(key)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	client, err := NewState(key)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	// Several messages in both directions, interleaved: each side's read
	// stream must track the peer's write stream independently.
	for i := 0; i < 5; i++ {
		msg := []byte("hello from server ")
		msg = append(msg, byte('0'+i))
		enc := make([]byte, len(msg))
		copy(enc, msg)
		server.Encrypt(enc)
		client.Decrypt(enc)
		if !bytes.Equal(enc, msg) {
			t.Fatalf("round %d: client failed to decrypt server data", i)
		}

		reply := []byte("hello from client ")
		reply = append(reply, byte('0'+i))
		enc = make([]byte, len(reply))
		copy(enc, reply)
		client.Encrypt(enc)
		server.Decrypt(enc)
		if !bytes.Equal(enc, reply) {
			t.Fatalf("round %d: server failed to decrypt client data", i)
		}
	}
}

func TestReverseBytes(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	ReverseBytes(buf)
	if !bytes.Equal(buf, []byte{5, 4, 3, 2, 1}) {
		t.Errorf("ReverseBytes = %v", buf)
	}
}
