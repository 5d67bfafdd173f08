// Package usc defines the data model for United States Code datasets.
//
// The types mirror the JSON emitted by the upstream USLM ETL: a merged
// toc.json describing the title/chapter/section hierarchy, and per-title
// t<N>.json files mapping section numbers to full section bodies. The ETL
// output is treated as a trusted, machine-generated input format; nothing
// in this module mutates it after load.
package usc

// Block type constants. Structural types carry a leading designator span
// in their markup; the remaining types are prose or layout units.
const (
	BlockSubsection   = "subsection"
	BlockParagraph    = "paragraph"
	BlockSubparagraph = "subparagraph"
	BlockClause       = "clause"
	BlockSubclause    = "subclause"
	BlockItem         = "item"
	BlockSubitem      = "subitem"
	BlockSubsubitem   = "subsubitem"
	BlockChapeau      = "chapeau"
	BlockContent      = "content"
	BlockContinuation = "continuation"
	BlockFlush        = "flush"
	BlockProse        = "p"
	BlockTable        = "table"
)

// structuralTypes are the block types addressed by the structural path
// builder.
var structuralTypes = map[string]bool{
	BlockSubsection:   true,
	BlockParagraph:    true,
	BlockSubparagraph: true,
	BlockClause:       true,
	BlockSubclause:    true,
	BlockItem:         true,
	BlockSubitem:      true,
	BlockSubsubitem:   true,
}

// IsStructural reports whether a block type participates in hierarchical
// paragraph addressing.
func IsStructural(blockType string) bool {
	return structuralTypes[blockType]
}

// ContentBlock is one structural or prose unit of a section body.
//
// For structural types the markup begins with a designator span of the
// exact shape `<span class="num">(x)</span>` followed by body markup.
// Blocks appear in document order and never overlap in source range.
type ContentBlock struct {
	// Type is the block tag (subsection, paragraph, ..., or a prose type).
	Type string `json:"type"`

	// Indent is the non-negative nesting depth of the block.
	Indent int `json:"indent"`

	// HTML is the raw markup fragment for the block.
	HTML string `json:"html"`
}

// NoteBlock is one entry of a section's notes list.
//
// A blank HTML body with a populated heading denotes a group header whose
// effect applies to subsequent entries until another header or the end of
// the list.
type NoteBlock struct {
	// Topic is the note topic tag (e.g. "amendments", "miscellaneous").
	Topic string `json:"topic"`

	// Heading is an optional heading override.
	Heading string `json:"heading,omitempty"`

	// HTML is the note body markup.
	HTML string `json:"html"`
}

// SectionData is one statutory section, constructed once by the upstream
// ETL and immutable thereafter.
type SectionData struct {
	// Number is the canonical alphanumeric section identifier (e.g. "106a").
	Number string `json:"number"`

	// NumText is the display form of the section number (e.g. "§ 106a.").
	NumText string `json:"numText"`

	// Heading is the section heading text.
	Heading string `json:"heading"`

	// Identifier is the full USLM identifier (e.g. "/us/usc/t17/s106a").
	Identifier string `json:"identifier,omitempty"`

	// Content is the ordered sequence of body blocks.
	Content []ContentBlock `json:"content"`

	// SourceCredit is the free-text enactment history.
	SourceCredit string `json:"sourceCredit"`

	// Notes is the ordered list of editorial notes.
	Notes []NoteBlock `json:"notes"`
}

// SectionRef is a TOC entry for one section.
type SectionRef struct {
	Number     string `json:"number"`
	NumText    string `json:"numText"`
	Heading    string `json:"heading"`
	Identifier string `json:"identifier,omitempty"`
}

// Chapter is a TOC entry for one chapter of a title.
type Chapter struct {
	Number     string       `json:"number"`
	Heading    string       `json:"heading"`
	Identifier string       `json:"identifier,omitempty"`
	Sections   []SectionRef `json:"sections"`
}

// Title is a TOC entry for one title of the Code.
type Title struct {
	Number     string    `json:"number"`
	Name       string    `json:"name"`
	Identifier string    `json:"identifier,omitempty"`
	Chapters   []Chapter `json:"chapters"`
}

// TocData is the merged table of contents across all loaded titles.
type TocData struct {
	// ReleasePoint identifies the upstream release (e.g. "119-73not60").
	ReleasePoint string `json:"releasePoint"`

	// Updated is the upstream publication date (YYYY-MM-DD).
	Updated string `json:"updated"`

	Titles []Title `json:"titles"`
}

// FindTitle returns the TOC entry for a title number, or nil.
func (t *TocData) FindTitle(number string) *Title {
	for i := range t.Titles {
		if t.Titles[i].Number == number {
			return &t.Titles[i]
		}
	}
	return nil
}

// FindSection returns the TOC entry for a section number within a title,
// or nil.
func (t *Title) FindSection(number string) *SectionRef {
	for i := range t.Chapters {
		for j := range t.Chapters[i].Sections {
			if t.Chapters[i].Sections[j].Number == number {
				return &t.Chapters[i].Sections[j]
			}
		}
	}
	return nil
}
