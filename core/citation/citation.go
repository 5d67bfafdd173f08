// Package citation parses USLM hierarchical identifiers and resolves
// clicks on statutory cross-references.
//
// Embedded links in the rendered text carry identifiers such as
// "/us/usc/t17/s106", "/us/pl/94/553" or "/us/stat/90/2541". Section
// references navigate in-app; public-law and Statutes-at-Large citations
// deep-link to the government publication service; every other identifier
// shape is suppressed so the browser never attempts to resolve a non-web
// path. Clicks on defined-term spans take precedence over all of that and
// open the definition popup instead.
package citation

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/lawtext/uscview/core/address"
	"github.com/lawtext/uscview/core/definitions"
)

// Kind classifies a parsed identifier.
type Kind string

// Identifier kinds.
const (
	// KindUSC is a United States Code reference (/us/usc/...).
	KindUSC Kind = "usc"

	// KindPublicLaw is a public-law citation (/us/pl/...).
	KindPublicLaw Kind = "pl"

	// KindStatute is a Statutes-at-Large citation (/us/stat/...).
	KindStatute Kind = "stat"

	// KindOther is any recognized /us/... identifier of another shape.
	KindOther Kind = "other"
)

// Identifier is a parsed USLM identifier.
type Identifier struct {
	Kind Kind

	// Title and Section are set for KindUSC. Path carries any deeper
	// sub-section segments (e.g. ["a", "1", "A"]).
	Title   string
	Section string
	Path    []string

	// Congress and Law are set for KindPublicLaw.
	Congress string
	Law      string

	// Volume and Page are set for KindStatute.
	Volume string
	Page   string
}

// identGrammar is the participle grammar for USLM identifiers: a leading
// slash followed by slash-separated segments.
type identGrammar struct {
	Segments []string `parser:"( \"/\" @Seg )+"`
}

// identLexer tokenizes an identifier into slashes and opaque segments.
var identLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Seg", Pattern: `[^/]+`},
	{Name: "Punct", Pattern: `/`},
})

// identParser is the participle parser for USLM identifiers.
var identParser = participle.MustBuild[identGrammar](
	participle.Lexer(identLexer),
)

// ParseIdentifier parses a USLM identifier string.
// Supported shapes:
//   - "/us/usc/t17/s106" (optionally with deeper segments: .../a/1/A)
//   - "/us/pl/94/553" (public law)
//   - "/us/stat/90/2541" (statutes at large)
//
// Any other /us/... identifier parses as KindOther. Strings that are not
// USLM identifiers at all return an error.
func ParseIdentifier(href string) (*Identifier, error) {
	g, err := identParser.ParseString("", href)
	if err != nil {
		return nil, fmt.Errorf("parsing identifier %q: %w", href, err)
	}
	segs := g.Segments
	if len(segs) == 0 || segs[0] != "us" {
		return nil, fmt.Errorf("not a USLM identifier: %q", href)
	}

	id := &Identifier{Kind: KindOther}
	switch {
	case len(segs) >= 4 && segs[1] == "usc" &&
		strings.HasPrefix(segs[2], "t") && strings.HasPrefix(segs[3], "s"):
		id.Kind = KindUSC
		id.Title = segs[2][1:]
		id.Section = segs[3][1:]
		id.Path = segs[4:]
	case len(segs) >= 4 && segs[1] == "pl":
		id.Kind = KindPublicLaw
		id.Congress = segs[2]
		id.Law = segs[3]
	case len(segs) >= 4 && segs[1] == "stat":
		id.Kind = KindStatute
		id.Volume = segs[2]
		id.Page = segs[3]
	}
	return id, nil
}

// ParagraphAnchor renders an identifier's deeper segments as a structural
// path string, e.g. ["b", "1", "A"] -> "(b)(1)(A)".
func (id *Identifier) ParagraphAnchor() string {
	var b strings.Builder
	for _, seg := range id.Path {
		b.WriteString("(")
		b.WriteString(seg)
		b.WriteString(")")
	}
	return b.String()
}

// Click describes an intercepted click inside rendered statutory markup.
type Click struct {
	// Href is the link target, empty when the click was not on a link.
	Href string

	// TermSlug and TermSource are set when the click landed on a
	// defined-term span produced by the annotator.
	TermSlug   string
	TermSource definitions.Source
}

// ResolutionKind tags the outcome of resolving a click.
type ResolutionKind string

// Resolution outcomes.
const (
	// ResolutionDefinition opens the definition popup.
	ResolutionDefinition ResolutionKind = "definition"

	// ResolutionInApp navigates within the viewer.
	ResolutionInApp ResolutionKind = "in-app"

	// ResolutionExternal opens an external government-publication URL.
	ResolutionExternal ResolutionKind = "external"

	// ResolutionSuppressed swallows the click: the identifier is
	// recognized but has no navigable destination.
	ResolutionSuppressed ResolutionKind = "suppressed"

	// ResolutionNone leaves the click to default browser handling.
	ResolutionNone ResolutionKind = "none"
)

// Resolution is the outcome of resolving a click.
type Resolution struct {
	Kind ResolutionKind

	// Target is the in-app destination for ResolutionInApp.
	Target address.Target

	// ExternalURL is the deep link for ResolutionExternal.
	ExternalURL string

	// Slug and Source identify the definition for ResolutionDefinition.
	Slug   string
	Source definitions.Source
}

// govinfo link-service URL patterns.
const (
	publicLawURL = "https://www.govinfo.gov/link/plaw/%s/public/%s"
	statuteURL   = "https://www.govinfo.gov/link/statute/%s/%s"
)

// Resolve maps an intercepted click to its outcome. Defined-term clicks
// win over link resolution. Ordinary web links (anything that does not
// parse as a USLM identifier) are left to the browser.
func Resolve(click Click) Resolution {
	if click.TermSlug != "" {
		return Resolution{
			Kind:   ResolutionDefinition,
			Slug:   click.TermSlug,
			Source: click.TermSource,
		}
	}
	if click.Href == "" {
		return Resolution{Kind: ResolutionNone}
	}

	id, err := ParseIdentifier(click.Href)
	if err != nil {
		return Resolution{Kind: ResolutionNone}
	}

	switch id.Kind {
	case KindUSC:
		return Resolution{
			Kind: ResolutionInApp,
			Target: address.Section{
				Title:  id.Title,
				Num:    id.Section,
				Anchor: id.ParagraphAnchor(),
			},
		}
	case KindPublicLaw:
		return Resolution{
			Kind:        ResolutionExternal,
			ExternalURL: fmt.Sprintf(publicLawURL, id.Congress, id.Law),
		}
	case KindStatute:
		return Resolution{
			Kind:        ResolutionExternal,
			ExternalURL: fmt.Sprintf(statuteURL, id.Volume, id.Page),
		}
	default:
		// Recognized identifier scheme, unsupported shape: suppress so
		// the browser does not attempt a relative-path navigation.
		return Resolution{Kind: ResolutionSuppressed}
	}
}
