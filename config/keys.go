package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/nekowawolf/taiko-swap-bot/chain"
)

const (
	EnvPrivateKey   = "PRIVATE_KEY"
	walletEnvPrefix = "PRIVATE_KEYS_WALLET"
	maxWallets      = 20
)

var (
	ErrMissingKey = errors.New("missing private key, set PRIVATE_KEY in the .env file")
	ErrInvalidKey = errors.New("invalid private key")
)

var privateKeyPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

func NormalizeKey(raw string) string {
	key := strings.TrimSpace(raw)
	if strings.HasPrefix(key, "0x") || strings.HasPrefix(key, "0X") {
		return "0x" + key[2:]
	}
	return "0x" + key
}

// ParseKey normalizes raw and checks it is a 32-byte hex secp256k1 scalar.
func ParseKey(raw string) (*chain.Account, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingKey
	}
	key := NormalizeKey(raw)
	if !privateKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("%w: expected 64 hex characters", ErrInvalidKey)
	}
	pk, err := crypto.HexToECDSA(key[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return chain.NewAccount(pk), nil
}

// LoadAccount reads the single bot account from PRIVATE_KEY.
func LoadAccount() (*chain.Account, error) {
	return ParseKey(os.Getenv(EnvPrivateKey))
}

// LoadAccounts returns PRIVATE_KEY followed by PRIVATE_KEYS_WALLET1..20,
// skipping blanks and duplicates. Any malformed key fails the whole load.
func LoadAccounts() ([]*chain.Account, error) {
	names := []string{EnvPrivateKey}
	for i := 1; i <= maxWallets; i++ {
		names = append(names, fmt.Sprintf("%s%d", walletEnvPrefix, i))
	}

	var accounts []*chain.Account
	seen := make(map[string]struct{})
	for _, name := range names {
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			continue
		}
		account, err := ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		addr := account.Address.Hex()
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		accounts = append(accounts, account)
	}
	if len(accounts) == 0 {
		return nil, ErrMissingKey
	}
	return accounts, nil
}
