package markup

import (
	"fmt"
	"sort"
)

// Edit replaces doc[Start:End] with a re-rendered leaf element.
type Edit struct {
	Start          int
	End            int
	TagName        string
	Attrs          string
	OriginalInner  string
	RewrittenInner string
}

// EditFromLeaf creates an edit that rewrites leaf's inner markup.
func EditFromLeaf(leaf Leaf, rewritten string) Edit {
	return Edit{
		Start:          leaf.Start,
		End:            leaf.End,
		TagName:        leaf.TagName,
		Attrs:          leaf.Attrs,
		OriginalInner:  leaf.Inner,
		RewrittenInner: rewritten,
	}
}

// Render returns the replacement markup for the edit.
func (e Edit) Render() string {
	return "<" + e.TagName + e.Attrs + ">" + e.RewrittenInner + "</" + e.TagName + ">"
}

// OverlapError reports two edits whose byte ranges intersect.
type OverlapError struct {
	First  Edit
	Second Edit
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("edits overlap: [%d,%d) and [%d,%d)", e.First.Start, e.First.End, e.Second.Start, e.Second.End)
}

// Splice applies edits to doc right-to-left so that every edit's offsets still refer to
// the original document when it is applied. With no edits doc is returned unchanged.
func Splice(doc string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return doc, nil
	}

	ordered := make([]Edit, len(edits))
	copy(ordered, edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	for i, e := range ordered {
		if e.Start < 0 || e.End > len(doc) || e.Start >= e.End {
			return doc, fmt.Errorf("edit out of range: [%d,%d) for document of %d bytes", e.Start, e.End, len(doc))
		}
		if i > 0 && e.End > ordered[i-1].Start {
			return doc, &OverlapError{First: e, Second: ordered[i-1]}
		}
	}

	result := doc
	for _, e := range ordered {
		result = result[:e.Start] + e.Render() + result[e.End:]
	}
	return result, nil
}
