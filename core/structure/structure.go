// Package structure derives hierarchical paragraph addresses from a
// section's flat, indent-tagged block sequence.
//
// The input markup is a constrained, machine-generated subset of HTML:
// every structural block begins with a designator span of the exact shape
// `<span class="num">(x)</span>` followed by body markup. That contract is
// what makes anchored-regexp extraction sound here; this package does not
// attempt general HTML parsing, and a block that does not match the
// contract is skipped rather than treated as an error.
package structure

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lawtext/uscview/core/usc"
)

// designatorRegexp matches the leading designator span of a structural
// block and captures the parenthesized token, e.g. "(b)".
var designatorRegexp = regexp.MustCompile(`^\s*<span class="num">\s*(\([^)<]*\))`)

// ParaMeta is the derived address of one content block.
type ParaMeta struct {
	// Path is the concatenation of designator tokens from the root of the
	// section to this block, e.g. "(b)(1)(A)".
	Path string

	// AnchorID is the section-unique anchor for the block, combining the
	// section number with the path, e.g. "s106(b)(1)(A)".
	AnchorID string
}

// Designator extracts the leading designator token from a structural
// block's markup. The second return is false when the markup does not
// begin with a machine-readable designator span.
func Designator(html string) (string, bool) {
	m := designatorRegexp.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// BuildParaMetaMap computes the paragraph address of every structural
// block in content, keyed by block index.
//
// A designator token at depth d replaces the stack entry at d and closes
// all deeper entries; the block's path is the join of stack entries 0..d.
// Indent depths are trusted as given: a gap between a parent and its
// first child is preserved, producing a shorter path rather than a
// failure.
func BuildParaMetaMap(content []usc.ContentBlock, sectionNum string) map[int]ParaMeta {
	metas := make(map[int]ParaMeta)
	var stack []string

	for i, block := range content {
		if !usc.IsStructural(block.Type) {
			continue
		}
		token, ok := Designator(block.HTML)
		if !ok {
			slog.Debug("structural block without designator span",
				"section", sectionNum, "block", i, "type", block.Type)
			continue
		}

		depth := block.Indent
		if depth < 0 {
			depth = 0
		}
		if depth > len(stack) {
			slog.Debug("indent gap in structural blocks",
				"section", sectionNum, "block", i, "indent", depth, "stack", len(stack))
			depth = len(stack)
		}
		stack = append(stack[:depth], token)

		path := strings.Join(stack, "")
		metas[i] = ParaMeta{
			Path:     path,
			AnchorID: AnchorID(sectionNum, path),
		}
	}
	return metas
}

// AnchorID builds the deterministic anchor for a section-relative path.
func AnchorID(sectionNum, path string) string {
	return fmt.Sprintf("s%s%s", sectionNum, path)
}
