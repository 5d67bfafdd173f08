// Package annotate rewrites statutory markup to wrap defined terms in
// clickable spans.
//
// All definition sources applicable to a section are merged into a single
// case-insensitive alternation before any substitution happens, so every
// fragment gets exactly one rewrite pass and overlapping terms from
// different sources can never produce nested spans. Terms are matched
// longest-first so a term that is a substring of another ("work" inside
// "motion picture work") never shadows the longer phrase.
package annotate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lawtext/uscview/core/definitions"
)

// tagRegexp splits a fragment into alternating non-tag and tag segments.
var tagRegexp = regexp.MustCompile(`<[^>]*>`)

// wsRegexp collapses runs of whitespace for term-table lookups.
var wsRegexp = regexp.MustCompile(`\s+`)

// target is the span payload for one matched term.
type target struct {
	slug   string
	source definitions.Source
}

// Annotator rewrites markup fragments, wrapping defined-term occurrences.
type Annotator struct {
	pattern *regexp.Regexp
	terms   map[string]target
}

// New builds an annotator over the union of definition records from all
// applicable sources, in priority order: when two records collide on a
// term, the earlier record wins. Records with empty terms are ignored.
// A nil return means there is nothing to annotate.
func New(records []definitions.Record) *Annotator {
	terms := make(map[string]target)
	var keys []string
	for _, rec := range records {
		key := lookupKey(rec.Term)
		if key == "" {
			continue
		}
		if _, ok := terms[key]; ok {
			continue
		}
		terms[key] = target{slug: rec.Slug, source: rec.Source}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}

	// Longest first; ties broken lexically for a stable pattern.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	alts := make([]string, len(keys))
	for i, key := range keys {
		// Literal metacharacters escaped; interior whitespace matches
		// across line-broken source text. Word-edge anchors apply only
		// where the term itself starts or ends on a word character, so a
		// term ending in a parenthesis still terminates cleanly.
		alt := regexp.QuoteMeta(key)
		alt = wsRegexp.ReplaceAllString(alt, `\s+`)
		if isWordChar(key[0]) {
			alt = `\b` + alt
		}
		if isWordChar(key[len(key)-1]) {
			alt += `\b`
		}
		alts[i] = alt
	}

	pattern := regexp.MustCompile(`(?i)(?:` + strings.Join(alts, `|`) + `)`)
	return &Annotator{pattern: pattern, terms: terms}
}

// isWordChar mirrors the regexp \w class for boundary placement.
func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// lookupKey is the canonical table key for a term: lowercased with
// whitespace runs collapsed, matching what the alternation can produce.
func lookupKey(term string) string {
	return wsRegexp.ReplaceAllString(strings.ToLower(strings.TrimSpace(term)), " ")
}

// Rewrite wraps every defined-term occurrence in html with a clickable
// span carrying the term's slug and source. Markup tags are never
// rewritten: the fragment is split on tags and only the text segments are
// annotated, so attribute values and tag names stay intact.
func (a *Annotator) Rewrite(html string) string {
	if a == nil || html == "" {
		return html
	}

	var b strings.Builder
	last := 0
	for _, loc := range tagRegexp.FindAllStringIndex(html, -1) {
		b.WriteString(a.rewriteText(html[last:loc[0]]))
		b.WriteString(html[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(a.rewriteText(html[last:]))
	return b.String()
}

// rewriteText annotates one tag-free segment.
func (a *Annotator) rewriteText(text string) string {
	if text == "" {
		return text
	}
	return a.pattern.ReplaceAllStringFunc(text, func(match string) string {
		tgt, ok := a.terms[lookupKey(match)]
		if !ok {
			return match
		}
		var b strings.Builder
		b.WriteString(`<span class="defined-term" data-slug="`)
		b.WriteString(tgt.slug)
		b.WriteString(`" data-source="`)
		b.WriteString(string(tgt.source))
		b.WriteString(`">`)
		b.WriteString(match)
		b.WriteString(`</span>`)
		return b.String()
	})
}
