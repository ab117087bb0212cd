// internal/pipeline/linkscan.go
package pipeline

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ContainsLink reports whether the document carries an anchor pointing at
// target. URLs are compared loosely: scheme, a leading "www.", and trailing
// slashes are ignored, so http://example.com/page/ matches
// https://www.example.com/page.
func ContainsLink(document, target string) bool {
	want := normalizeLink(target)
	if want == "" {
		return false
	}

	tokenizer := html.NewTokenizer(strings.NewReader(document))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return false
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tokenizer.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := tokenizer.TagAttr()
			if string(key) == "href" && normalizeLink(string(val)) == want {
				return true
			}
			if !more {
				break
			}
		}
	}
}

func normalizeLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}
