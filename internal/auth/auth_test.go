package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/udisondev/moulgo/internal/wire"
)

func TestIsEmailLogin(t *testing.T) {
	cases := []struct {
		acct string
		want bool
	}{
		{"alice@example.com", true},
		{"bob@gametap", false},
		{"bob@gametap.com", false},
		{"plainname", false},
		{"weird@", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isEmailLogin(tc.acct), "acct %q", tc.acct)
	}
}

// Email-style accounts authenticate with a SHA-0 challenge digest over the
// server challenge, client challenge and stored hash.
func TestEmailChallengeVerification(t *testing.T) {
	stored := wire.Sha0([]byte("alice's password"))
	serverChallenge := uint32(0xCAFEBABE)
	clientChallenge := uint32(0x11111111)

	submitted := wire.ChallengeHash(serverChallenge, clientChallenge, stored)
	assert.Equal(t, submitted, wire.ChallengeHash(serverChallenge, clientChallenge, stored))

	// A stale server challenge (fresh per registration) must not verify.
	assert.NotEqual(t, submitted, wire.ChallengeHash(0xDEADBEEF, clientChallenge, stored))
}

// Gametap-style accounts submit the stored SHA-1 hash word-swapped.
func TestGametapHashVerification(t *testing.T) {
	stored := wire.Sha1([]byte("bob's password"))

	submitted := stored
	submitted.SwapWords()

	check := submitted
	check.SwapWords()
	assert.Equal(t, stored, check)
	assert.NotEqual(t, stored, submitted, "swap must change the bytes")
}

func TestIpToU32(t *testing.T) {
	assert.EqualValues(t, 0x7F000001, ipToU32("127.0.0.1"))
	assert.EqualValues(t, 0x0A000203, ipToU32("10.0.2.3"))
	assert.Zero(t, ipToU32("not-an-address.invalid"))
}
