// Package definitions extracts defined-term records from statutory text.
//
// Two independent drafting conventions are handled. Primary mode covers a
// definitions section whose single body block is a flat run of indent-
// classed paragraphs, one curly-quoted term per indent1 paragraph, with
// deeper-indented paragraphs continuing the preceding entry. Subsection-
// local mode covers a term list embedded in one subsection of an ordinary
// section (e.g. a royalty subsection that opens with "As used in this
// subsection...").
//
// A defined term is delimited by paired curly quotation marks; straight
// quotes mark ordinary quoted material and are ignored. Markup is the
// constrained machine-generated subset described in package structure, so
// paragraph and quote extraction is anchored-regexp work, and anything
// that does not match yields no record rather than an error.
package definitions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lawtext/uscview/core/structure"
	"github.com/lawtext/uscview/core/usc"
)

// Source identifies which drafting convention produced a record.
type Source string

// Definition sources, in annotation priority order.
const (
	// SourcePrimary marks entries of the title's definitions section.
	SourcePrimary Source = "primary"

	// SourceLocal marks subsection-scoped definitions.
	SourceLocal Source = "local"
)

// Record is one extracted definition.
type Record struct {
	// Term is the defined term exactly as quoted in the source.
	Term string

	// Slug is the URL-safe normalization of Term.
	Slug string

	// Source is the drafting convention the record came from.
	Source Source

	// Para is the paragraph index within the definitions block
	// (primary mode).
	Para int

	// Block is the content-block index within the section
	// (subsection-local mode).
	Block int

	// Anchor is the synthesized structural anchor for subsection-local
	// records, e.g. "(e)(1)"; empty for primary records.
	Anchor string
}

var (
	// paraRegexp matches one paragraph element of a definitions block,
	// capturing its class list and inner markup.
	paraRegexp = regexp.MustCompile(`(?s)<p class="([^"]*)">(.*?)</p>`)

	// termRegexp captures the first curly-quoted span of a fragment.
	termRegexp = regexp.MustCompile(`\x{201C}([^\x{201D}]+)\x{201D}`)

	// indentRegexp extracts the numeric indent class of a paragraph.
	indentRegexp = regexp.MustCompile(`indent(\d+)`)

	// slugSepRegexp collapses non-alphanumeric runs during slugging.
	slugSepRegexp = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug normalizes a defined term into a URL-safe identifier: lowercase,
// non-alphanumeric runs collapsed to one hyphen, leading and trailing
// hyphens stripped. Idempotent.
func Slug(term string) string {
	s := slugSepRegexp.ReplaceAllString(strings.ToLower(term), "-")
	return strings.Trim(s, "-")
}

// QuotedTerm extracts the first curly-quoted term of a markup fragment.
// The second return is false when no such span exists.
func QuotedTerm(html string) (string, bool) {
	m := termRegexp.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// paragraph is one split unit of a primary definitions block.
type paragraph struct {
	indent int
	html   string
}

// splitParagraphs breaks a definitions block into its indent-classed
// paragraphs, preserving document order.
func splitParagraphs(html string) []paragraph {
	var paras []paragraph
	for _, m := range paraRegexp.FindAllStringSubmatch(html, -1) {
		indent := 0
		if im := indentRegexp.FindStringSubmatch(m[1]); im != nil {
			indent, _ = strconv.Atoi(im[1])
		}
		paras = append(paras, paragraph{indent: indent, html: m[0]})
	}
	return paras
}

// ParsePrimary extracts definition records from a definitions-section
// block. Each indent1 paragraph contributes at most one record; an indent1
// paragraph with no curly-quoted term is rendered but yields no record.
// Within the block, the first occurrence of a term wins.
func ParsePrimary(html string) []Record {
	var records []Record
	seen := make(map[string]bool)

	for i, para := range splitParagraphs(html) {
		if para.indent != 1 {
			continue
		}
		term, ok := QuotedTerm(para.html)
		if !ok {
			continue
		}
		slug := Slug(term)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		records = append(records, Record{
			Term:   term,
			Slug:   slug,
			Source: SourcePrimary,
			Para:   i,
		})
	}
	return records
}

// PrimaryBody returns the full display body of a primary record: its
// indent1 paragraph plus all following deeper-indented paragraphs, up to
// but excluding the next indent1 paragraph.
func PrimaryBody(html string, rec Record) string {
	paras := splitParagraphs(html)
	if rec.Para < 0 || rec.Para >= len(paras) {
		return ""
	}
	var b strings.Builder
	b.WriteString(paras[rec.Para].html)
	for _, para := range paras[rec.Para+1:] {
		if para.indent <= 1 {
			break
		}
		b.WriteString(para.html)
	}
	return b.String()
}

// ParseSubsection extracts subsection-local definition records from a
// section's block sequence. target is the designator of the defining
// subsection (e.g. "(e)"); targetIndent is the indent level at which term
// entries appear. Scanning begins at the target subsection and stops at
// the next structural block at or above the subsection's own level.
//
// Each record's anchor concatenates the subsection designator with the
// entry block's own designator.
func ParseSubsection(content []usc.ContentBlock, target string, targetIndent int) []Record {
	var records []Record
	seen := make(map[string]bool)
	scanning := false
	subIndent := 0

	for i, block := range content {
		if !scanning {
			if !usc.IsStructural(block.Type) {
				continue
			}
			if token, ok := structure.Designator(block.HTML); ok && token == target {
				scanning = true
				subIndent = block.Indent
			}
			continue
		}

		if usc.IsStructural(block.Type) && block.Indent <= subIndent {
			break
		}
		if block.Indent != targetIndent {
			continue
		}
		term, ok := QuotedTerm(block.HTML)
		if !ok {
			continue
		}
		slug := Slug(term)
		if slug == "" || seen[slug] {
			continue
		}
		anchor := target
		if token, ok := structure.Designator(block.HTML); ok {
			anchor = target + token
		}
		seen[slug] = true
		records = append(records, Record{
			Term:   term,
			Slug:   slug,
			Source: SourceLocal,
			Block:  i,
			Anchor: anchor,
		})
	}
	return records
}

// SubsectionBody returns the full display body of a subsection-local
// record: its entry block plus all following deeper-indented or
// continuation blocks, up to the next entry at the same or a shallower
// level.
func SubsectionBody(content []usc.ContentBlock, rec Record) string {
	if rec.Block < 0 || rec.Block >= len(content) {
		return ""
	}
	entry := content[rec.Block]
	var b strings.Builder
	b.WriteString(entry.HTML)
	for _, block := range content[rec.Block+1:] {
		if block.Type == usc.BlockContinuation || block.Indent > entry.Indent {
			b.WriteString(block.HTML)
			continue
		}
		break
	}
	return b.String()
}

// FindBySlug returns the first record matching a slug and source, with
// source "" matching any source. The second return is false when no
// record matches.
func FindBySlug(records []Record, slug string, source Source) (Record, bool) {
	for _, rec := range records {
		if rec.Slug != slug {
			continue
		}
		if source != "" && rec.Source != source {
			continue
		}
		return rec, true
	}
	return Record{}, false
}
