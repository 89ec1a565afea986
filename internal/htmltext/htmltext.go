// Package htmltext flattens rich chat message bodies to plain text.
package htmltext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	emojiPattern   = regexp.MustCompile(`<img[^>]*?data-emoji="([\w\-\+]+)"[^>]+>`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	nbspReplacer   = strings.NewReplacer(" ", " ")
	blockCloseTags = map[string]bool{
		"p": true, "div": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	}
)

// Normalize converts an HTML chat body to plain text: emoji images
// become :name: shortcodes, block-level breaks become newlines, all
// other markup is stripped and entities are decoded. Stateless.
func Normalize(input string) string {
	src := emojiPattern.ReplaceAllString(input, ":$1:")

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			text := nbspReplacer.Replace(b.String())
			text = newlineRuns.ReplaceAllString(text, "\n\n")
			return strings.TrimSpace(text)
		case html.TextToken:
			b.WriteString(z.Token().Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); blockCloseTags[string(name)] {
				b.WriteByte('\n')
			}
		}
	}
}
