package wallet

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Challenge is the structured message signed to prove key custody.
type Challenge struct {
	Domain    string
	Address   string
	Statement string
	Challenge string // server-issued value
	Nonce     string
	IssuedAt  time.Time
}

// Text renders the message exactly as it is signed.
func (c Challenge) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Solana account:\n", c.Domain)
	b.WriteString(c.Address)
	b.WriteString("\n\n")
	if c.Statement != "" {
		b.WriteString(c.Statement)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Challenge: %s\n", c.Challenge)
	fmt.Fprintf(&b, "Nonce: %s\n", c.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", c.IssuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// Signed is a signed challenge ready for submission.
type Signed struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"` // base58
	Nonce     string `json:"nonce"`
}

// SignChallenge builds the structured message for challenge and signs it.
func SignChallenge(k *Keypair, domain, challenge string, now time.Time) (*Signed, error) {
	if k == nil {
		return nil, fmt.Errorf("nil keypair")
	}
	if challenge == "" {
		return nil, fmt.Errorf("empty challenge")
	}

	msg := Challenge{
		Domain:    domain,
		Address:   k.Address(),
		Statement: "Link this wallet to your agent.",
		Challenge: challenge,
		Nonce:     uuid.NewString(),
		IssuedAt:  now,
	}
	text := msg.Text()
	sig := ed25519.Sign(k.Private, []byte(text))

	return &Signed{
		Address:   msg.Address,
		Message:   text,
		Signature: base58.Encode(sig),
		Nonce:     msg.Nonce,
	}, nil
}

// Verify checks a base58 signature over message for a base58 address.
func Verify(address, message, signature string) bool {
	pub, err := base58.Decode(address)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, []byte(message), sig)
}
