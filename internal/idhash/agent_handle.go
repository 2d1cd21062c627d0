package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	maxSlugLen = 16
	suffixLen  = 8
)

// AgentHandle derives an ephemeral agent handle for a candidate.
// Formula: slug(name) + "_" + hex(SHA256(name|unix_nanos))[:8]
// The same inputs always produce the same handle; distinct timestamps make
// repeated registrations for one name unique.
func AgentHandle(name string, t time.Time) string {
	data := fmt.Sprintf("%s|%d", name, t.UnixNano())
	hash := sha256.Sum256([]byte(data))
	return slug(name) + "_" + hex.EncodeToString(hash[:])[:suffixLen]
}

// slug lowercases name and keeps only ASCII letters and digits.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
		if b.Len() == maxSlugLen {
			break
		}
	}
	if b.Len() == 0 {
		return "token"
	}
	return b.String()
}
