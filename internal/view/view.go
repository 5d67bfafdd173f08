// Package view composes the per-section derived structures the viewer
// needs: paragraph addresses, definition tables and the term annotator.
//
// Derivation is synchronous, side-effect free and idempotent; the result
// is memoized in an LRU keyed by title/section, purely for performance.
// The underlying SectionData is never mutated.
package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lawtext/uscview/core/annotate"
	"github.com/lawtext/uscview/core/definitions"
	"github.com/lawtext/uscview/core/structure"
	"github.com/lawtext/uscview/core/usc"
	"github.com/lawtext/uscview/internal/cache"
	"github.com/lawtext/uscview/internal/loader"
	"github.com/lawtext/uscview/internal/logging"
)

// ErrDefinitionNotFound means no definition record matches the
// requested slug and source.
var ErrDefinitionNotFound = errors.New("definition not found")

// LocalScope names one subsection-local definition block.
type LocalScope struct {
	// Section is the section carrying the local definitions.
	Section string

	// Subsection is the designator of the defining subsection, e.g. "(e)".
	Subsection string

	// Indent is the indent level of the term entries.
	Indent int
}

// TitleConfig describes where a title keeps its definitions.
type TitleConfig struct {
	// PrimarySection is the definitions section of the title ("101" for
	// Title 17); empty when the title has none.
	PrimarySection string

	// LocalScopes lists subsection-local definition blocks.
	LocalScopes []LocalScope
}

// Config maps title numbers to their definition layout.
type Config map[string]TitleConfig

// DefaultConfig covers the titles with curated definition layouts.
func DefaultConfig() Config {
	return Config{
		"17": {
			PrimarySection: "101",
			LocalScopes: []LocalScope{
				{Section: "115", Subsection: "(e)", Indent: 1},
			},
		},
	}
}

// State is the derived view of one section.
type State struct {
	Title   string
	Section *usc.SectionData

	// Paths maps block index to structural address.
	Paths map[int]structure.ParaMeta

	// Primary and Local are the definition records applicable to this
	// section, by source.
	Primary []definitions.Record
	Local   []definitions.Record

	// IsDefinitionsSection is true when this section is the title's
	// primary definitions section; it renders its entries directly and
	// is not annotated against itself.
	IsDefinitionsSection bool

	annotator   *annotate.Annotator
	primaryHTML string
}

// RenderBlock returns the display markup of one content block, with
// defined terms annotated. Out-of-range indexes return "".
func (st *State) RenderBlock(i int) string {
	if i < 0 || i >= len(st.Section.Content) {
		return ""
	}
	return st.annotator.Rewrite(st.Section.Content[i].HTML)
}

// Annotate rewrites an arbitrary markup fragment with this section's
// definition tables. Used for chapeau text and notes.
func (st *State) Annotate(html string) string {
	return st.annotator.Rewrite(html)
}

// Manager derives and memoizes section view states.
type Manager struct {
	store  *loader.Store
	cfg    Config
	states cache.Cache[string, *State]
}

// NewManager creates a manager over a dataset store.
func NewManager(store *loader.Store, cfg Config) *Manager {
	cacheCfg := cache.DefaultConfig()
	cacheCfg.MaxSize = 50
	return &Manager{
		store:  store,
		cfg:    cfg,
		states: cache.NewLRUCache[string, *State](cacheCfg),
	}
}

// Activate returns the derived state for a section, computing it on
// first access. Errors pass through from the store untranslated, so
// loader.ErrTitleNotFound and loader.ErrSectionNotFound stay
// distinguishable.
func (m *Manager) Activate(title, num string) (*State, error) {
	key := title + "/" + num
	if st, ok := m.states.Get(key); ok {
		return st, nil
	}

	st, err := m.derive(title, num)
	if err != nil {
		return nil, err
	}
	m.states.Put(key, st)
	return st, nil
}

// derive computes the full state for one section.
func (m *Manager) derive(title, num string) (*State, error) {
	section, err := m.store.Section(title, num)
	if err != nil {
		return nil, err
	}

	titleCfg := m.cfg[title]
	st := &State{
		Title:                title,
		Section:              section,
		Paths:                structure.BuildParaMetaMap(section.Content, num),
		IsDefinitionsSection: titleCfg.PrimarySection != "" && num == titleCfg.PrimarySection,
	}

	if titleCfg.PrimarySection != "" {
		html, err := m.primaryHTML(title, titleCfg.PrimarySection)
		switch {
		case errors.Is(err, loader.ErrSectionNotFound):
			// The dataset lacks its definitions section. The statute
			// still renders, just without primary annotation.
			logging.Warn("definitions section missing",
				"title", title, "section", titleCfg.PrimarySection)
		case err != nil:
			return nil, err
		default:
			st.primaryHTML = html
			st.Primary = definitions.ParsePrimary(html)
		}
	}

	for _, scope := range titleCfg.LocalScopes {
		if scope.Section != num {
			continue
		}
		st.Local = append(st.Local,
			definitions.ParseSubsection(section.Content, scope.Subsection, scope.Indent)...)
	}

	// The definitions section renders its entries directly rather than
	// annotating itself. Everywhere else, local records outrank primary
	// ones on a term collision: the narrower scope is the operative
	// definition where it exists.
	if !st.IsDefinitionsSection {
		merged := make([]definitions.Record, 0, len(st.Local)+len(st.Primary))
		merged = append(merged, st.Local...)
		merged = append(merged, st.Primary...)
		st.annotator = annotate.New(merged)
	}

	return st, nil
}

// primaryHTML concatenates the prose blocks of a title's definitions
// section into the single markup fragment primary extraction runs over.
func (m *Manager) primaryHTML(title, num string) (string, error) {
	section, err := m.store.Section(title, num)
	if err != nil {
		return "", fmt.Errorf("definitions section %s/%s: %w", title, num, err)
	}
	var b strings.Builder
	for _, block := range section.Content {
		b.WriteString(block.HTML)
	}
	return b.String(), nil
}

// DefinitionBody resolves the full display body for a defined term,
// looked up by slug and source. The empty source matches either table,
// local first.
func (m *Manager) DefinitionBody(st *State, slug string, source definitions.Source) (definitions.Record, string, error) {
	if source == "" || source == definitions.SourceLocal {
		if rec, ok := definitions.FindBySlug(st.Local, slug, definitions.SourceLocal); ok {
			return rec, definitions.SubsectionBody(st.Section.Content, rec), nil
		}
	}
	if source == "" || source == definitions.SourcePrimary {
		if rec, ok := definitions.FindBySlug(st.Primary, slug, definitions.SourcePrimary); ok {
			return rec, definitions.PrimaryBody(st.primaryHTML, rec), nil
		}
	}
	return definitions.Record{}, "", fmt.Errorf("definition %q (%s): %w", slug, source, ErrDefinitionNotFound)
}
