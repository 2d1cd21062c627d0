package tokensource

import "testing"

func TestDefaultImagePredicate(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", false},
		{"ftp://cdn.dexscreener.com/x.png", false},
		{"data:image/png;base64,AAAA", false},
		{"https://dd.dexscreener.com/ds-data/tokens/solana/abc.png", true},
		{"https://assets.coingecko.com/coins/images/1/large/bitcoin", true},
		{"https://ipfs.io/ipfs/Qm123", true},
		{"https://arweave.net/abc", true},
		{"https://example.com/logo.webp", true},
		{"https://example.com/logo.JPG?v=2", true},
		{"https://example.com/logo", false},
		{"https://example.com/placeholder.png", false},
		{"https://assets.coingecko.com/coins/images/missing_large.png", false},
		{"https://example.com/default-token.svg", false},
		{"https://example.com/favicon.ico", false},
		{"https://cdn.jsdelivr.net/gh/org/repo/token.png", true},
	}

	for _, tt := range tests {
		if got := DefaultImagePredicate(tt.url); got != tt.want {
			t.Errorf("DefaultImagePredicate(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
