package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MarkedElement is an element carrying the opt-in class, as seen by a full DOM parse.
type MarkedElement struct {
	Tag  string
	Text string
}

// FindMarked parses html and returns the outermost elements whose class list contains
// marker. Marked elements nested inside another marked element are not reported.
func FindMarked(html, marker string) ([]MarkedElement, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	selector := "." + marker
	var out []MarkedElement
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(selector).Length() > 0 {
			return
		}
		out = append(out, MarkedElement{
			Tag:  goquery.NodeName(s),
			Text: cleanWhitespace(s.Text()),
		})
	})
	return out, nil
}

func cleanWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
