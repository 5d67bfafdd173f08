// Package index maintains the SQLite search index over section headings,
// body text and defined terms.
//
// The default build uses the pure Go SQLite driver; the cgo_sqlite build
// tag swaps in mattn/go-sqlite3. Both speak database/sql, so everything
// here is driver-agnostic.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lawtext/uscview/core/definitions"
	"github.com/lawtext/uscview/core/usc"
	"github.com/lawtext/uscview/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS sections (
	title    TEXT NOT NULL,
	number   TEXT NOT NULL,
	num_text TEXT NOT NULL,
	heading  TEXT NOT NULL,
	body     TEXT NOT NULL,
	PRIMARY KEY (title, number)
);
CREATE TABLE IF NOT EXISTS defined_terms (
	title   TEXT NOT NULL,
	section TEXT NOT NULL,
	term    TEXT NOT NULL,
	slug    TEXT NOT NULL,
	source  TEXT NOT NULL,
	anchor  TEXT NOT NULL,
	PRIMARY KEY (title, section, slug, source)
);
CREATE INDEX IF NOT EXISTS idx_sections_heading ON sections(heading);
CREATE INDEX IF NOT EXISTS idx_terms_term ON defined_terms(term);
`

// Index is a search index over one dataset.
type Index struct {
	db *sql.DB
}

// DriverInfo reports which SQLite driver this build carries.
func DriverInfo() string {
	return driverName + " (" + driverType + ")"
}

// Open opens (and if needed initializes) an index database.
func Open(path string) (*Index, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

var (
	tagStripRegexp = regexp.MustCompile(`<[^>]*>`)
	wsRegexp       = regexp.MustCompile(`\s+`)
)

// plainText flattens a markup fragment for indexing: tags removed,
// entities unescaped, whitespace collapsed.
func plainText(markup string) string {
	text := tagStripRegexp.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(wsRegexp.ReplaceAllString(text, " "))
}

// IndexSection inserts or replaces one section's row.
func (ix *Index) IndexSection(ctx context.Context, title string, section *usc.SectionData) error {
	var body strings.Builder
	for _, block := range section.Content {
		body.WriteString(plainText(block.HTML))
		body.WriteString(" ")
	}

	_, err := ix.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sections (title, number, num_text, heading, body) VALUES (?, ?, ?, ?, ?)`,
		title, section.Number, section.NumText, section.Heading, strings.TrimSpace(body.String()))
	if err != nil {
		return fmt.Errorf("indexing section %s/%s: %w", title, section.Number, err)
	}
	return nil
}

// IndexTerms inserts or replaces definition records for a title.
func (ix *Index) IndexTerms(ctx context.Context, title, section string, records []definitions.Record) error {
	for _, rec := range records {
		_, err := ix.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO defined_terms (title, section, term, slug, source, anchor) VALUES (?, ?, ?, ?, ?, ?)`,
			title, section, rec.Term, rec.Slug, string(rec.Source), rec.Anchor)
		if err != nil {
			return fmt.Errorf("indexing term %q: %w", rec.Term, err)
		}
	}
	return nil
}

// BuildTitle indexes every section of a title plus its definition
// records in one transaction-free pass. Rebuilding is idempotent.
func (ix *Index) BuildTitle(ctx context.Context, title string, sections map[string]*usc.SectionData) (int, error) {
	count := 0
	for _, section := range sections {
		if err := ix.IndexSection(ctx, title, section); err != nil {
			return count, err
		}
		count++
	}
	logging.DatasetEvent("indexed", "t"+title, "sections", count, "driver", DriverInfo())
	return count, nil
}

// SectionHit is one section search result.
type SectionHit struct {
	Title   string
	Number  string
	NumText string
	Heading string

	// Snippet is a short body excerpt around the first match, empty for
	// heading-only matches.
	Snippet string
}

// TermHit is one defined-term search result.
type TermHit struct {
	Title   string
	Section string
	Term    string
	Slug    string
	Source  string
	Anchor  string
}

// escapeLike escapes LIKE metacharacters in user queries.
func escapeLike(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `%`, `\%`)
	return strings.ReplaceAll(q, `_`, `\_`)
}

// SearchSections finds sections whose heading or body contains the query,
// heading matches first.
func (ix *Index) SearchSections(ctx context.Context, query string, limit int) ([]SectionHit, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := ix.db.QueryContext(ctx, `
		SELECT title, number, num_text, heading, body
		FROM sections
		WHERE heading LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'
		ORDER BY (heading LIKE ? ESCAPE '\') DESC, title, number
		LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching sections: %w", err)
	}
	defer rows.Close()

	var hits []SectionHit
	for rows.Next() {
		var hit SectionHit
		var body string
		if err := rows.Scan(&hit.Title, &hit.Number, &hit.NumText, &hit.Heading, &body); err != nil {
			return nil, err
		}
		hit.Snippet = snippet(body, query)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// SearchTerms finds defined terms containing the query.
func (ix *Index) SearchTerms(ctx context.Context, query string, limit int) ([]TermHit, error) {
	if limit <= 0 {
		limit = 25
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := ix.db.QueryContext(ctx, `
		SELECT title, section, term, slug, source, anchor
		FROM defined_terms
		WHERE term LIKE ? ESCAPE '\'
		ORDER BY length(term), term
		LIMIT ?`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching terms: %w", err)
	}
	defer rows.Close()

	var hits []TermHit
	for rows.Next() {
		var hit TermHit
		if err := rows.Scan(&hit.Title, &hit.Section, &hit.Term, &hit.Slug, &hit.Source, &hit.Anchor); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// snippetRadius is the number of characters kept on each side of a match.
const snippetRadius = 60

// snippet extracts a short excerpt around the first case-insensitive
// occurrence of query in body.
func snippet(body, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || body == "" {
		return ""
	}
	pos := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if pos < 0 {
		return ""
	}

	start := pos - snippetRadius
	if start < 0 {
		start = 0
	}
	end := pos + len(query) + snippetRadius
	if end > len(body) {
		end = len(body)
	}
	// The radius is in bytes; pull the cuts back to rune starts so the
	// excerpt stays valid UTF-8.
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end--
	}

	out := body[start:end]
	if start > 0 {
		out = "…" + out
	}
	if end < len(body) {
		out += "…"
	}
	return out
}
