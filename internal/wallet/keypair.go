// Package wallet generates throwaway ed25519 keypairs and signs agent
// wallet-link challenges with them.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Keypair is a fresh ed25519 keypair. Addresses are base58 public keys.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// NewKeypair generates a keypair from crypto/rand.
func NewKeypair() (*Keypair, error) {
	return newKeypair(rand.Reader)
}

func newKeypair(r io.Reader) (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if !onCurve(pub) {
		return nil, fmt.Errorf("generated key is not a curve point")
	}
	return &Keypair{Public: pub, Private: priv}, nil
}

// Address returns the base58-encoded public key.
func (k *Keypair) Address() string {
	return base58.Encode(k.Public)
}

// SecretKey returns the base58-encoded 64-byte private key.
func (k *Keypair) SecretKey() string {
	return base58.Encode(k.Private)
}

// IsValidAddress reports whether addr decodes to a 32-byte point on the
// ed25519 curve.
func IsValidAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return false
	}
	return onCurve(raw)
}

func onCurve(pub []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(pub)
	return err == nil
}
