package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/httpx"
)

func serve(t *testing.T, page string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebsite_MetaDescription(t *testing.T) {
	server := serve(t, `<html><head>
		<meta name="description" content="The frog that &amp; ate the moon.">
		</head><body><p>ignored body text that is long enough to count</p></body></html>`)

	desc, err := NewWebsite(httpx.New()).Describe(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "The frog that & ate the moon.", desc)
}

func TestWebsite_FirstParagraph(t *testing.T) {
	server := serve(t, `<html><body>
		<h1>Welcome</h1>
		<ul><li>Home</li><li>About</li></ul>
		<p>Short.</p>
		<p>Moon Frog is a <strong>community</strong> token born on <a href="https://x.com">X</a> during the great pond rally.</p>
		</body></html>`)

	desc, err := NewWebsite(httpx.New()).Describe(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Moon Frog is a community token born on X during the great pond rally.", desc)
}

func TestWebsite_NoDescription(t *testing.T) {
	server := serve(t, `<html><body><h1>Only a heading</h1></body></html>`)

	_, err := NewWebsite(httpx.New()).Describe(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestWebsite_RejectsNonHTTP(t *testing.T) {
	_, err := NewWebsite(httpx.New()).Describe(context.Background(), "javascript:alert(1)")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := truncate(long)
	assert.LessOrEqual(t, len(out), MaxDescription+3)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Equal(t, "short", truncate("short"))
}
