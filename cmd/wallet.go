package cmd

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// loadWallet reads a keypair file holding the 64 byte private key as a JSON
// array of numbers, the format written by solana-keygen
func loadWallet(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read wallet %s", path)
	}

	var values []byte
	var numbers []int
	if err := json.Unmarshal(raw, &numbers); err != nil {
		return nil, errors.Wrapf(err, "invalid wallet %s", path)
	}
	if len(numbers) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid wallet %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(numbers))
	}
	for i, n := range numbers {
		if n < 0 || n > 255 {
			return nil, errors.Errorf("invalid wallet %s: byte %d out of range", path, i)
		}
		values = append(values, byte(n))
	}

	key := ed25519.PrivateKey(values)
	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !derived.Public().(ed25519.PublicKey).Equal(key.Public()) {
		return nil, errors.Errorf("invalid wallet %s: public key does not match private key", path)
	}
	return key, nil
}
