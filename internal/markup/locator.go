// Package markup locates opt-in regions of an HTML document, extracts their leaf text
// and splices rewritten fragments back in at byte-exact offsets.
//
// The matching is intentionally lightweight: it scans raw markup with patterns scoped to one
// tag name at a time instead of building a DOM. Malformed input degrades by dropping the
// affected containers.
package markup

import (
	"regexp"
	"strings"
)

// DefaultMarkerClass is the class token that opts an element into rewriting.
const DefaultMarkerClass = "generative-customization"

// Container is the inner byte range of one opt-in element.
type Container struct {
	InnerStart int
	InnerEnd   int
}

// Inner returns the container's inner markup.
func (c Container) Inner(doc string) string {
	return doc[c.InnerStart:c.InnerEnd]
}

// Locator finds opt-in containers in a document.
type Locator interface {
	Locate(doc string) []Container
}

var tagNamePattern = regexp.MustCompile(`^<([a-zA-Z][\w:-]*)`)

// RegexLocator finds containers by scanning for the marker class and balancing
// same-name open/close tags with a depth counter.
type RegexLocator struct {
	marker  string
	classRe *regexp.Regexp
}

// NewRegexLocator creates a locator for elements whose class attribute carries marker.
func NewRegexLocator(marker string) *RegexLocator {
	if marker == "" {
		marker = DefaultMarkerClass
	}
	pattern := `(?i)class\s*=\s*["'][^"']*\b` + regexp.QuoteMeta(marker) + `\b[^"']*["']`
	return &RegexLocator{
		marker:  marker,
		classRe: regexp.MustCompile(pattern),
	}
}

// Marker returns the class token this locator looks for.
func (l *RegexLocator) Marker() string {
	return l.marker
}

// Locate returns one container per marker occurrence whose closing tag could be matched.
// Marker occurrences inside an already located container are absorbed into it.
func (l *RegexLocator) Locate(doc string) []Container {
	var containers []Container

	pos := 0
	for pos < len(doc) {
		loc := l.classRe.FindStringIndex(doc[pos:])
		if loc == nil {
			break
		}
		matchStart := pos + loc[0]
		next := pos + loc[1]

		container, ok := resolveContainer(doc, matchStart)
		if ok {
			containers = append(containers, container)
			next = container.InnerEnd
		}
		pos = next
	}

	return containers
}

// resolveContainer finds the element enclosing the marker at idx and its balanced closing tag.
func resolveContainer(doc string, idx int) (Container, bool) {
	tagStart := strings.LastIndexByte(doc[:idx], '<')
	if tagStart < 0 {
		return Container{}, false
	}
	gt := strings.IndexByte(doc[idx:], '>')
	if gt < 0 {
		return Container{}, false
	}
	tagEnd := idx + gt + 1

	m := tagNamePattern.FindStringSubmatch(doc[tagStart:])
	if m == nil {
		return Container{}, false
	}
	tagName := m[1]

	closeStart, ok := matchClosingTag(doc, tagName, tagEnd)
	if !ok {
		return Container{}, false
	}
	return Container{InnerStart: tagEnd, InnerEnd: closeStart}, true
}

// matchClosingTag scans from pos with depth 1 and returns the offset of the closing tag
// that brings the depth back to zero.
func matchClosingTag(doc, tagName string, pos int) (int, bool) {
	quoted := regexp.QuoteMeta(tagName)
	openRe := regexp.MustCompile(`(?i)<` + quoted + `[\s>]`)
	closeRe := regexp.MustCompile(`(?i)</` + quoted + `>`)

	depth := 1
	for depth > 0 && pos < len(doc) {
		nextClose := closeRe.FindStringIndex(doc[pos:])
		if nextClose == nil {
			return 0, false
		}
		nextOpen := openRe.FindStringIndex(doc[pos:])

		if nextOpen != nil && nextOpen[0] < nextClose[0] {
			depth++
			// step past the tag name only; the trailing char may start the next token
			pos += nextOpen[0] + 1 + len(tagName)
			continue
		}

		depth--
		if depth == 0 {
			return pos + nextClose[0], true
		}
		pos += nextClose[1]
	}
	return 0, false
}
