// Package identity validates wallet addresses and manages the nonce
// challenges used during wallet authentication.
package identity

import (
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
	"github.com/viditkulsh/CyberTrek/internal/domain/shared"
	"github.com/viditkulsh/CyberTrek/pkg/clock"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADDRESS VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// ErrInvalidAddress is returned when an address fails format or checksum
// validation.
var ErrInvalidAddress = shared.NewDomainError("identity", "ValidateAddress",
	shared.ErrInvalidFormat, "invalid wallet address")

// ErrChallengeNotFound is returned when a nonce is unknown, expired, or
// already consumed.
var ErrChallengeNotFound = shared.NewDomainError("identity", "Consume",
	shared.ErrNotFound, "challenge not found or expired")

// IsHexAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func IsHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of a hex address. The
// input must pass IsHexAddress.
func ChecksumAddress(s string) string {
	addr := strings.ToLower(s[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(addr))
	hash := hex.EncodeToString(h.Sum(nil))

	var b strings.Builder
	b.WriteString("0x")
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ValidateAddress checks a wallet address and returns it as a domain wallet.
// Hex addresses in mixed case must carry a valid EIP-55 checksum; all-lower
// and all-upper hex addresses are accepted and normalized to checksum form.
// Non-hex addresses (Solana-style base58 keys) only need to satisfy the
// domain's format rules.
func ValidateAddress(s string) (progress.WalletAddress, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		candidate := "0x" + s[2:]
		if !IsHexAddress(candidate) {
			return "", ErrInvalidAddress
		}
		checksummed := ChecksumAddress(candidate)
		hexPart := candidate[2:]
		mixed := hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart)
		if mixed && candidate != checksummed {
			return "", ErrInvalidAddress
		}
		return progress.WalletAddress(checksummed), nil
	}

	wallet := progress.WalletAddress(s)
	if !wallet.IsValid() {
		return "", ErrInvalidAddress
	}
	return wallet, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NONCE CHALLENGES
// ══════════════════════════════════════════════════════════════════════════════

// challengeMessagePrefix is the text the wallet is asked to sign. The client
// appends nothing besides the nonce, so the message can be rebuilt on either
// side.
const challengeMessagePrefix = "Sign this message to authenticate with CyberTrek: "

// DefaultChallengeTTL is how long an issued nonce stays valid.
const DefaultChallengeTTL = 5 * time.Minute

// Challenge is a one-shot authentication nonce issued for a wallet.
type Challenge struct {
	Wallet    progress.WalletAddress `json:"wallet"`
	Nonce     string                 `json:"nonce"`
	Message   string                 `json:"message"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// ChallengeMessage builds the signable message for a nonce.
func ChallengeMessage(nonce string) string {
	return challengeMessagePrefix + nonce
}

// ChallengeStore issues and consumes nonce challenges. Nonces are single
// use: a successful Consume removes the challenge, and expired entries are
// dropped lazily on access.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	ttl        time.Duration
	clock      clock.Clock
}

// NewChallengeStore creates a store with the given nonce lifetime. A zero
// ttl falls back to DefaultChallengeTTL.
func NewChallengeStore(ttl time.Duration, clk clock.Clock) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ChallengeStore{
		challenges: make(map[string]Challenge),
		ttl:        ttl,
		clock:      clk,
	}
}

// Issue creates a fresh challenge for the wallet. Issuing again before the
// previous nonce is consumed leaves both valid until they expire.
func (s *ChallengeStore) Issue(wallet progress.WalletAddress) Challenge {
	nonce := uuid.NewString()
	challenge := Challenge{
		Wallet:    wallet,
		Nonce:     nonce,
		Message:   ChallengeMessage(nonce),
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.challenges[nonce] = challenge
	s.mu.Unlock()

	return challenge
}

// Consume validates and removes a nonce. It fails when the nonce is unknown,
// expired, or was issued for a different wallet.
func (s *ChallengeStore) Consume(wallet progress.WalletAddress, nonce string) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[nonce]
	if !ok {
		return ErrChallengeNotFound
	}
	if now.After(challenge.ExpiresAt) {
		delete(s.challenges, nonce)
		return ErrChallengeNotFound
	}
	if challenge.Wallet != wallet {
		return ErrChallengeNotFound
	}

	delete(s.challenges, nonce)
	return nil
}

// Purge drops all expired challenges and returns how many were removed.
// Useful as a periodic housekeeping call; Consume already drops expired
// entries it encounters.
func (s *ChallengeStore) Purge() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for nonce, challenge := range s.challenges {
		if now.After(challenge.ExpiresAt) {
			delete(s.challenges, nonce)
			removed++
		}
	}
	return removed
}
