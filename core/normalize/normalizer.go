// Package normalize implements the Normalizer interface.
// It turns a fetched body into a bounded, LLM-readable text excerpt using
// content-type specific cleaning followed by a hard length cap.
package normalize

import (
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/docpipe/core"
	"github.com/gaurav-prasanna/docpipe/core/extract"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// HTML rendering strategies.
const (
	HTMLModeText     = "text"
	HTMLModeMarkdown = "markdown"
)

// Config selects optional HTML strategies. The zero value is the plain
// regex cleaner.
type Config struct {
	HTMLMode    string `yaml:"html_mode"`
	MainContent bool   `yaml:"main_content"`
}

// TextNormalizer is the default Normalizer.
type TextNormalizer struct {
	cfg Config
	log zerolog.Logger
}

// New creates a TextNormalizer.
func New(cfg Config, log zerolog.Logger) *TextNormalizer {
	return &TextNormalizer{cfg: cfg, log: log.With().Str("component", "normalizer").Logger()}
}

// Normalize cleans body according to ct and caps the result at maxChars runes.
// It is total: any internal failure degrades to the trimmed raw body.
func (n *TextNormalizer) Normalize(body string, ct core.ContentType, maxChars int) (out core.NormalizedContent) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn().Interface("panic", r).Str("content_type", ct.String()).Msg("Normalization failed, using raw text")
			text, truncated := Truncate(strings.TrimSpace(body), maxChars)
			out = core.NormalizedContent{Text: text, Truncated: truncated}
		}
	}()

	var text string
	switch ct {
	case core.ContentHTML:
		text = n.cleanHTML(body)
	case core.ContentJSON:
		text = PrettyJSON(body)
	case core.ContentPlainText:
		text = strings.TrimSpace(body)
	default:
		text = body
	}

	text, truncated := Truncate(text, maxChars)
	return core.NormalizedContent{Text: text, Truncated: truncated}
}

func (n *TextNormalizer) cleanHTML(body string) string {
	html := body
	if n.cfg.MainContent {
		if content, err := extract.MainContent(html); err == nil {
			html = content
		} else {
			n.log.Debug().Err(err).Msg("Main content extraction failed, using full document")
		}
	}
	if n.cfg.HTMLMode == HTMLModeMarkdown {
		if md, err := ToMarkdown(html); err == nil {
			return CleanHTML(md)
		} else {
			n.log.Debug().Err(err).Msg("Markdown conversion failed, using text cleaner")
		}
	}
	return CleanHTML(html)
}

var (
	scriptRegex    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	blockEndRegex  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</h[1-6]>`)
	tagRegex       = regexp.MustCompile(`<[^>]*>`)
	blankRunsRegex = regexp.MustCompile(`\n\s*\n`)
)

// entityReplacer decodes the five standard HTML entities in a single pass.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// CleanHTML strips markup from an HTML document and returns readable text.
func CleanHTML(html string) string {
	html = scriptRegex.ReplaceAllString(html, "")
	html = styleRegex.ReplaceAllString(html, "")
	html = blockEndRegex.ReplaceAllString(html, "\n")
	html = tagRegex.ReplaceAllString(html, "")
	html = entityReplacer.Replace(html)
	html = blankRunsRegex.ReplaceAllString(html, "\n")
	return strings.TrimSpace(html)
}

// jsonLayout puts every object member and array element on its own line.
var jsonLayout = &pretty.Options{Width: 0, Indent: "  "}

// PrettyJSON re-indents valid JSON with two spaces, keeping key order.
// Invalid JSON comes back trimmed and otherwise untouched.
func PrettyJSON(body string) string {
	trimmed := strings.TrimSpace(body)
	if !gjson.Valid(trimmed) {
		return trimmed
	}
	return strings.TrimSpace(string(pretty.PrettyOptions([]byte(trimmed), jsonLayout)))
}
