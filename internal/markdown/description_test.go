package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDescription_KeptConstructs(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "Hello world", "<p>Hello world</p>\n"},
		{"emphasis", "*a* **b**", "<p><em>a</em> <strong>b</strong></p>\n"},
		{"code span", "run `snap install`", "<p>run <code>snap install</code></p>\n"},
		{"strikethrough", "~~gone~~", "<p><del>gone</del></p>\n"},
		{"bullet list", "• one\n• two", "<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n"},
		{"dash list", "- one\n- two", "<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n"},
		{"ordered list", "1. a\n2. b", "<ol>\n<li>a</li>\n<li>b</li>\n</ol>\n"},
		{"three space code block", "Intro\n\n   code here\n", "<p>Intro</p>\n<pre><code>code here\n</code></pre>\n"},
		{"hard break", "line one  \nline two", "<p>line one<br>\nline two</p>\n"},
		{"escape", `\*not emphasis\*`, "<p>*not emphasis*</p>\n"},
		{"autolink", "<https://example.com>", "<p><a href=\"https://example.com\">https://example.com</a></p>\n"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderDescription(tc.in))
		})
	}
}

func TestRenderDescription_RemovedConstructs(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		absent     string
		mustRender string
	}{
		{"inline html", "<b>bold</b>", "<b>", "&lt;b&gt;bold&lt;/b&gt;"},
		{"html block", "<div>\nhi\n</div>", "<div>", "&lt;div&gt;"},
		{"inline link", "[site](https://example.com)", ">site</a>", "[site]"},
		{"reference link", "[site][1]\n\n[1]: https://example.com", ">site</a>", "[site][1]"},
		{"image", "![logo](https://example.com/logo.png)", "<img", "![logo]"},
		{"heading", "# Title", "<h1", "# Title"},
		{"blockquote", "> quote", "<blockquote", "&gt; quote"},
		{"thematic break", "text\n\n---", "<hr", "---"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RenderDescription(tc.in)
			assert.NotContains(t, got, tc.absent)
			assert.Contains(t, got, tc.mustRender)
		})
	}
}

func TestRenderDescription_Linkify(t *testing.T) {
	got := RenderDescription("Visit https://snapcraft.io now")
	assert.Contains(t, got, `<a href="https://snapcraft.io">https://snapcraft.io</a>`)

	got = RenderDescription("Docs (see https://snapcraft.io/docs)")
	assert.Contains(t, got, `<a href="https://snapcraft.io/docs">https://snapcraft.io/docs</a>)`)

	got = RenderDescription("go to www.example.com")
	assert.NotContains(t, got, "<a")
	assert.Contains(t, got, "www.example.com")
}

func TestRenderDescription_EmailLinks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare address stays text", "mail me at foo@example.com", "<p>mail me at foo@example.com</p>\n"},
		{"bare address at start", "foo@example.com is the contact", "<p>foo@example.com is the contact</p>\n"},
		{"angle autolink", "mail me at <foo@example.com>", `<p>mail me at <a href="mailto:foo@example.com">foo@example.com</a></p>` + "\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderDescription(tc.in))
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "* one\n  * two", normalizeDescription("• one\n  • two"))
	assert.Equal(t, "    code\n     deeper\n  list", normalizeDescription("   code\n    deeper\n  list"))
	assert.Equal(t, "a\nb", normalizeDescription("a\r\nb"))
}
