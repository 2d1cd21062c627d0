package tokensource

import (
	"net/url"
	"strings"
)

// ImagePredicate reports whether an image URL is a real per-token image
// rather than a shared placeholder.
type ImagePredicate func(imageURL string) bool

var (
	placeholderMarkers = []string{
		"placeholder", "default", "no-image", "noimage",
		"missing", "unknown", "blank", "favicon",
	}

	tokenImageHosts = []string{
		"dexscreener", "coingecko", "geckoterminal",
		"ipfs", "arweave", "pump.fun", "cdn.jsdelivr",
	}

	imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}
)

// DefaultImagePredicate is the heuristic allow/deny rule set:
// http(s) only, no placeholder markers, and either a known token-image host
// or an image file extension.
func DefaultImagePredicate(imageURL string) bool {
	if imageURL == "" {
		return false
	}
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	lower := strings.ToLower(imageURL)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}

	host := strings.ToLower(u.Host)
	for _, h := range tokenImageHosts {
		if strings.Contains(host, h) {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
