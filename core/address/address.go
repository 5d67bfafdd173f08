// Package address maps navigation targets to and from the compact URL
// fragment syntax used in the viewer's address bar.
//
// Two grammars are served: the title-qualified form used by the
// multi-title viewer ("t17/s106(a)(1)", "t17/s101/def/anonymous-work")
// and the unqualified single-title form ("section/106(a)(1)"). Encoding
// and decoding round-trip exactly; an unrecognized address decodes to
// Home rather than failing.
package address

import (
	"regexp"
)

// Target is the structured representation of where the viewer should
// display, independent of its string encoding. It is a sealed sum type:
// exactly one concrete type exists per navigation shape, so illegal
// combinations (e.g. a paragraph anchor on a title listing) are not
// representable.
type Target interface {
	target()
}

// Home is the root target: the list of loaded titles.
type Home struct{}

// TitleListing is the chapter/section listing of one title.
type TitleListing struct {
	// Title is the title number, e.g. "17".
	Title string
}

// Section is a single statutory section, optionally addressed down to a
// paragraph or a defined term.
type Section struct {
	// Title is the title number; empty in the single-title grammar.
	Title string

	// Num is the alphanumeric section number, e.g. "106a".
	Num string

	// Anchor is empty, a structural paragraph path beginning with an
	// open parenthesis (e.g. "(a)(1)"), or a definition reference of the
	// form "def/<slug>". The parenthesis-initial shape is what lets the
	// two anchor kinds share the address tail without a collision.
	Anchor string
}

func (Home) target()         {}
func (TitleListing) target() {}
func (Section) target()      {}

// Decode patterns, tried strictly in order: the definition-anchor and
// paragraph-anchor shapes extend the bare-section shape and must win
// before it can truncate a real anchor.
var (
	defAnchorRegexp   = regexp.MustCompile(`^t([0-9a-zA-Z.]+)/s([0-9a-zA-Z.\-]+)/def/([0-9a-z\-]+)$`)
	paraAnchorRegexp  = regexp.MustCompile(`^t([0-9a-zA-Z.]+)/s([0-9a-zA-Z.\-]+)(\(.*\))$`)
	bareSectionRegexp = regexp.MustCompile(`^t([0-9a-zA-Z.]+)/s([0-9a-zA-Z.\-]+)$`)
	titleOnlyRegexp   = regexp.MustCompile(`^t([0-9a-zA-Z.]+)$`)

	sectionDefRegexp  = regexp.MustCompile(`^section/([0-9a-zA-Z.\-]+)/def/([0-9a-z\-]+)$`)
	sectionParaRegexp = regexp.MustCompile(`^section/([0-9a-zA-Z.\-]+)(\(.*\))$`)
	sectionBareRegexp = regexp.MustCompile(`^section/([0-9a-zA-Z.\-]+)$`)
)

// Encode renders a target as an address string (without the leading "#").
// A Section with an empty Title encodes in the single-title grammar.
func Encode(t Target) string {
	switch v := t.(type) {
	case TitleListing:
		return "t" + v.Title
	case Section:
		var addr string
		if v.Title == "" {
			addr = "section/" + v.Num
		} else {
			addr = "t" + v.Title + "/s" + v.Num
		}
		switch {
		case v.Anchor == "":
			return addr
		case v.Anchor[0] == '(':
			// A paragraph path supplies its own separator.
			return addr + v.Anchor
		default:
			return addr + "/" + v.Anchor
		}
	default:
		return ""
	}
}

// Decode parses an address string back into a target. A leading "#" is
// tolerated. Unrecognized input decodes to Home; Decode never fails.
func Decode(addr string) Target {
	if len(addr) > 0 && addr[0] == '#' {
		addr = addr[1:]
	}
	if addr == "" || addr == "/" {
		return Home{}
	}

	if m := defAnchorRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Title: m[1], Num: m[2], Anchor: "def/" + m[3]}
	}
	if m := paraAnchorRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Title: m[1], Num: m[2], Anchor: m[3]}
	}
	if m := bareSectionRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Title: m[1], Num: m[2]}
	}
	if m := titleOnlyRegexp.FindStringSubmatch(addr); m != nil {
		return TitleListing{Title: m[1]}
	}

	if m := sectionDefRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Num: m[1], Anchor: "def/" + m[2]}
	}
	if m := sectionParaRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Num: m[1], Anchor: m[2]}
	}
	if m := sectionBareRegexp.FindStringSubmatch(addr); m != nil {
		return Section{Num: m[1]}
	}

	return Home{}
}

// DefSlug returns the slug of a definition anchor, or "" when the anchor
// is empty or a paragraph path.
func DefSlug(anchor string) string {
	const prefix = "def/"
	if len(anchor) > len(prefix) && anchor[:len(prefix)] == prefix {
		return anchor[len(prefix):]
	}
	return ""
}
