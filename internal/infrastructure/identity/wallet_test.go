package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
)

// Reference checksummed addresses from the EIP-55 specification.
const (
	checksummed1 = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	checksummed2 = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	checksummed3 = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

func TestChecksumAddress(t *testing.T) {
	for _, want := range []string{checksummed1, checksummed2, checksummed3} {
		got := ChecksumAddress("0x" + lower(want[2:]))
		assert.Equal(t, want, got)
	}
}

func lower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'F' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func TestValidateAddress(t *testing.T) {
	t.Run("valid checksummed hex address", func(t *testing.T) {
		wallet, err := ValidateAddress(checksummed1)
		require.NoError(t, err)
		assert.Equal(t, progress.WalletAddress(checksummed1), wallet)
	})

	t.Run("all-lowercase hex is normalized", func(t *testing.T) {
		wallet, err := ValidateAddress("0x" + lower(checksummed2[2:]))
		require.NoError(t, err)
		assert.Equal(t, progress.WalletAddress(checksummed2), wallet)
	})

	t.Run("bad checksum rejected", func(t *testing.T) {
		// Flip the case of one letter in a checksummed address.
		bad := checksummed1[:2] + "5A" + checksummed1[4:]
		_, err := ValidateAddress(bad)
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("wrong length hex rejected", func(t *testing.T) {
		_, err := ValidateAddress("0x1234")
		assert.ErrorIs(t, err, ErrInvalidAddress)

		_, err = ValidateAddress(checksummed1 + "ab")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("non-hex characters rejected", func(t *testing.T) {
		_, err := ValidateAddress("0xZZ6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("base58-style address passes domain rules", func(t *testing.T) {
		wallet, err := ValidateAddress("7c6yAkknT3dN9Se9nMRYcoL4vPEkbLqE3B15RFaKxfWx")
		require.NoError(t, err)
		assert.Equal(t, progress.WalletAddress("7c6yAkknT3dN9Se9nMRYcoL4vPEkbLqE3B15RFaKxfWx"), wallet)
	})

	t.Run("whitespace rejected", func(t *testing.T) {
		_, err := ValidateAddress("not a wallet")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestChallengeStore(t *testing.T) {
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	wallet := progress.WalletAddress(checksummed1)

	t.Run("issue and consume", func(t *testing.T) {
		clk := clock.NewFake(start)
		store := NewChallengeStore(DefaultChallengeTTL, clk)

		challenge := store.Issue(wallet)
		assert.Equal(t, ChallengeMessage(challenge.Nonce), challenge.Message)
		assert.Contains(t, challenge.Message, "Sign this message to authenticate with CyberTrek: ")
		assert.Equal(t, start.Add(DefaultChallengeTTL), challenge.ExpiresAt)

		require.NoError(t, store.Consume(wallet, challenge.Nonce))

		// Nonces are single use.
		assert.ErrorIs(t, store.Consume(wallet, challenge.Nonce), ErrChallengeNotFound)
	})

	t.Run("expired nonce rejected", func(t *testing.T) {
		clk := clock.NewFake(start)
		store := NewChallengeStore(time.Minute, clk)

		challenge := store.Issue(wallet)
		clk.Advance(2 * time.Minute)

		assert.ErrorIs(t, store.Consume(wallet, challenge.Nonce), ErrChallengeNotFound)
	})

	t.Run("nonce bound to its wallet", func(t *testing.T) {
		clk := clock.NewFake(start)
		store := NewChallengeStore(time.Minute, clk)

		challenge := store.Issue(wallet)
		assert.ErrorIs(t, store.Consume("0xSomeOtherWallet", challenge.Nonce), ErrChallengeNotFound)

		// The original holder can still consume it.
		require.NoError(t, store.Consume(wallet, challenge.Nonce))
	})

	t.Run("unknown nonce rejected", func(t *testing.T) {
		store := NewChallengeStore(time.Minute, clock.NewFake(start))
		assert.ErrorIs(t, store.Consume(wallet, "no-such-nonce"), ErrChallengeNotFound)
	})

	t.Run("purge drops expired entries", func(t *testing.T) {
		clk := clock.NewFake(start)
		store := NewChallengeStore(time.Minute, clk)

		store.Issue(wallet)
		store.Issue(wallet)
		clk.Advance(90 * time.Second)
		fresh := store.Issue(wallet)

		assert.Equal(t, 2, store.Purge())
		require.NoError(t, store.Consume(wallet, fresh.Nonce))
	})
}
