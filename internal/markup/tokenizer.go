package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// TokenizerLocator finds containers with a streaming HTML tokenizer instead of patterns.
// It yields the same ranges as RegexLocator on well-formed input and is not confused by
// markup-like text inside script, style or attribute values.
type TokenizerLocator struct {
	marker string
}

// NewTokenizerLocator creates a tokenizer-backed locator for marker.
func NewTokenizerLocator(marker string) *TokenizerLocator {
	if marker == "" {
		marker = DefaultMarkerClass
	}
	return &TokenizerLocator{marker: marker}
}

type openContainer struct {
	tag        string
	innerStart int
	depth      int
}

// Locate implements Locator.
func (l *TokenizerLocator) Locate(doc string) []Container {
	var containers []Container
	var open *openContainer

	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a read error; an unclosed container is dropped
			return containers
		}
		tokenStart := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if open != nil {
				if tag == open.tag {
					open.depth++
				}
				continue
			}
			if hasAttr && l.hasMarker(z) {
				open = &openContainer{tag: tag, innerStart: offset, depth: 1}
			}
		case html.EndTagToken:
			if open == nil {
				continue
			}
			name, _ := z.TagName()
			if string(name) != open.tag {
				continue
			}
			open.depth--
			if open.depth == 0 {
				containers = append(containers, Container{InnerStart: open.innerStart, InnerEnd: tokenStart})
				open = nil
			}
		}
	}
}

func (l *TokenizerLocator) hasMarker(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			for _, class := range strings.Fields(string(val)) {
				if strings.EqualFold(class, l.marker) {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}
