// Package validate checks a loaded dataset against the constrained
// markup contract the viewer depends on: every block is a well-formed
// fragment, structural blocks open with a designator span, and
// definitions markup carries balanced curly quotes.
//
// Violations are reported, never fatal: the viewer degrades gracefully
// around unparseable blocks, so validation exists to surface upstream
// ETL drift early rather than to gate rendering.
package validate

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/lawtext/uscview/core/structure"
	"github.com/lawtext/uscview/core/usc"
	"github.com/lawtext/uscview/internal/loader"
)

// Problem is one validation finding.
type Problem struct {
	Title   string
	Section string
	Block   int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("t%s/s%s block %d: %s", p.Title, p.Section, p.Block, p.Message)
}

// numSpanQuery matches the designator span of a structural block.
var numSpanQuery = xpath.MustCompile(`//span[@class='num']`)

// parseFragment parses a markup fragment as XML under a synthetic root.
func parseFragment(html string) (*xmlquery.Node, error) {
	return xmlquery.Parse(strings.NewReader("<root>" + html + "</root>"))
}

// CheckBlock validates one content block. The zero-length problem slice
// means the block honors the contract.
func CheckBlock(title, section string, idx int, block usc.ContentBlock) []Problem {
	var problems []Problem

	doc, err := parseFragment(block.HTML)
	if err != nil {
		problems = append(problems, Problem{
			Title: title, Section: section, Block: idx,
			Message: fmt.Sprintf("markup is not a well-formed fragment: %v", err),
		})
		return problems
	}

	if usc.IsStructural(block.Type) {
		if _, ok := structure.Designator(block.HTML); !ok {
			problems = append(problems, Problem{
				Title: title, Section: section, Block: idx,
				Message: fmt.Sprintf("structural block (%s) lacks a leading designator span", block.Type),
			})
		}
		if node := xmlquery.QuerySelector(doc, numSpanQuery); node == nil {
			problems = append(problems, Problem{
				Title: title, Section: section, Block: idx,
				Message: "structural block has no span[@class='num'] element",
			})
		}
	}

	if opened, closed := strings.Count(block.HTML, "“"), strings.Count(block.HTML, "”"); opened != closed {
		problems = append(problems, Problem{
			Title: title, Section: section, Block: idx,
			Message: fmt.Sprintf("unbalanced curly quotes (%d opening, %d closing)", opened, closed),
		})
	}

	if block.Indent < 0 {
		problems = append(problems, Problem{
			Title: title, Section: section, Block: idx,
			Message: fmt.Sprintf("negative indent %d", block.Indent),
		})
	}

	return problems
}

// CheckSection validates every block of a section.
func CheckSection(title string, section *usc.SectionData) []Problem {
	var problems []Problem
	for i, block := range section.Content {
		problems = append(problems, CheckBlock(title, section.Number, i, block)...)
	}
	for i, note := range section.Notes {
		if note.HTML == "" {
			// Group header: heading only, applies to following entries.
			if note.Heading == "" {
				problems = append(problems, Problem{
					Title: title, Section: section.Number, Block: i,
					Message: "note entry has neither heading nor body",
				})
			}
			continue
		}
		if _, err := parseFragment(note.HTML); err != nil {
			problems = append(problems, Problem{
				Title: title, Section: section.Number, Block: i,
				Message: fmt.Sprintf("note markup is not a well-formed fragment: %v", err),
			})
		}
	}
	return problems
}

// CheckTitle validates every section of a loaded title.
func CheckTitle(store *loader.Store, title string) ([]Problem, error) {
	sections, err := store.Sections(title)
	if err != nil {
		return nil, err
	}
	var problems []Problem
	for _, section := range sections {
		problems = append(problems, CheckSection(title, section)...)
	}
	return problems, nil
}
