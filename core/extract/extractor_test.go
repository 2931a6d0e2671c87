package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainContentPrefersMain(t *testing.T) {
	html := `<html><body>
		<nav><a href="/">Home</a></nav>
		<main><h1>Install</h1><p>Run the installer.</p><script>track()</script></main>
		<footer>Copyright</footer>
	</body></html>`

	got, err := MainContent(html)
	require.NoError(t, err)

	assert.Contains(t, got, "<main>")
	assert.Contains(t, got, "Run the installer.")
	assert.NotContains(t, got, "Home")
	assert.NotContains(t, got, "track()")
	assert.NotContains(t, got, "Copyright")
}

func TestMainContentFallsBackToBody(t *testing.T) {
	got, err := MainContent(`<html><body><div class="sidebar">links</div><p>Body text</p></body></html>`)
	require.NoError(t, err)

	assert.Contains(t, got, "Body text")
	assert.NotContains(t, got, "links")
}

func TestMainContentArticle(t *testing.T) {
	got, err := MainContent(`<body><aside>related</aside><article><p>Reference</p></article></body>`)
	require.NoError(t, err)

	assert.Contains(t, got, "<article>")
	assert.NotContains(t, got, "related")
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"title tag", `<html><head><title> API Reference </title></head><body><h1>Other</h1></body></html>`, "API Reference"},
		{"h1 fallback", `<html><body><h1>Getting Started</h1></body></html>`, "Getting Started"},
		{"none", `<p>text</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Title(tt.html))
		})
	}
}
