package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// LeafTags are the elements expected to hold terminal human-readable text.
var LeafTags = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "figcaption"}

// Leaf is one leaf-text span found inside a container. Offsets are absolute.
type Leaf struct {
	Start   int
	End     int
	TagName string
	Attrs   string
	Inner   string
	Text    string
}

// Extractor finds leaf spans in container markup.
type Extractor struct {
	tags    []string
	pattern *regexp.Regexp
}

// NewExtractor builds an extractor for the given leaf tag names. Nil means LeafTags.
func NewExtractor(tags []string) *Extractor {
	if len(tags) == 0 {
		tags = LeafTags
	}
	// RE2 has no backreferences, so each tag gets its own alternative with three groups:
	// tag name, attributes, inner markup.
	alts := make([]string, len(tags))
	for i, tag := range tags {
		quoted := regexp.QuoteMeta(tag)
		alts[i] = fmt.Sprintf(`<(%s)(\s[^>]*)?>([\s\S]*?)</%s>`, quoted, quoted)
	}
	return &Extractor{
		tags:    tags,
		pattern: regexp.MustCompile(`(?i)` + strings.Join(alts, "|")),
	}
}

var defaultExtractor = NewExtractor(nil)

// ExtractLeaves returns the non-empty leaf spans of c using the default leaf tags.
func ExtractLeaves(doc string, c Container) []Leaf {
	return defaultExtractor.Extract(doc, c)
}

// Extract returns the leaf spans of c whose plain text is not empty, in document order.
func (e *Extractor) Extract(doc string, c Container) []Leaf {
	inner := c.Inner(doc)
	matches := e.pattern.FindAllStringSubmatchIndex(inner, -1)

	leaves := make([]Leaf, 0, len(matches))
	for _, m := range matches {
		leaf, ok := e.leafFromMatch(inner, m)
		if !ok {
			continue
		}
		leaf.Text = PlainText(leaf.Inner)
		if leaf.Text == "" {
			continue
		}
		leaf.Start = c.InnerStart + m[0]
		leaf.End = c.InnerStart + m[1]
		leaves = append(leaves, leaf)
	}
	return leaves
}

func (e *Extractor) leafFromMatch(inner string, m []int) (Leaf, bool) {
	for i := range e.tags {
		g := 2 * (3*i + 1)
		if m[g] < 0 {
			continue
		}
		leaf := Leaf{
			TagName: inner[m[g]:m[g+1]],
			Inner:   inner[m[g+4]:m[g+5]],
		}
		if m[g+2] >= 0 {
			leaf.Attrs = inner[m[g+2]:m[g+3]]
		}
		return leaf, true
	}
	return Leaf{}, false
}

var (
	scriptPattern = regexp.MustCompile(`(?i)<script[\s\S]*?</script>`)
	stylePattern  = regexp.MustCompile(`(?i)<style[\s\S]*?</style>`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
	nbspPattern   = regexp.MustCompile(`(?i)&nbsp;`)
	ampPattern    = regexp.MustCompile(`(?i)&amp;`)
)

// PlainText strips script/style blocks and tags, decodes &nbsp; and &amp;,
// and collapses whitespace runs into single spaces.
func PlainText(markup string) string {
	s := scriptPattern.ReplaceAllString(markup, " ")
	s = stylePattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, " ")
	s = nbspPattern.ReplaceAllString(s, " ")
	s = ampPattern.ReplaceAllString(s, "&")
	return strings.Join(strings.Fields(s), " ")
}
