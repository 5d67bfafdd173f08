package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/lawtext/uscview/core/address"
	"github.com/lawtext/uscview/core/citation"
	"github.com/lawtext/uscview/core/definitions"
	"github.com/lawtext/uscview/core/refdata"
	"github.com/lawtext/uscview/core/usc"
	"github.com/lawtext/uscview/internal/index"
	"github.com/lawtext/uscview/internal/loader"
	"github.com/lawtext/uscview/internal/logging"
	"github.com/lawtext/uscview/internal/view"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeJSONError sends a JSON error body with the given status.
func writeJSONError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// notModified handles conditional requests against a dataset digest.
// It returns true when the response is complete.
func notModified(w http.ResponseWriter, r *http.Request, digest string) bool {
	if digest == "" {
		return false
	}
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

// --- HTML pages ---

// renderedBlock is one content block prepared for the section template.
type renderedBlock struct {
	Type     string
	Indent   int
	Path     string
	AnchorID string
	HTML     template.HTML
}

// renderedNote is one note prepared for the section template. Group
// headers have IsGroupHeader set and an empty body.
type renderedNote struct {
	Topic         string
	Heading       string
	IsGroupHeader bool
	HTML          template.HTML
}

// sectionPage is the template payload for section.html.
type sectionPage struct {
	Title        string
	TitleName    string
	Section      *usc.SectionData
	Blocks       []renderedBlock
	Notes        []renderedNote
	SourceCredit template.HTML
	Reports      []refdata.Report
	Primary      []definitions.Record
	Local        []definitions.Record
	IsDefs       bool
	ReleasePoint string
}

// handlePage routes all HTML paths. The root serves the title listing;
// /t17 serves one title's contents; /t17/s106 and its anchored variants
// serve a section.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	toc, err := s.store.Toc()
	if err != nil {
		logging.ErrorContext(r.Context(), "table of contents unavailable", "error", err)
		http.Error(w, "Dataset unavailable", http.StatusServiceUnavailable)
		return
	}

	switch t := address.Decode(strings.Trim(r.URL.Path, "/")).(type) {
	case address.Home:
		s.renderHome(w, r, toc)
	case address.TitleListing:
		s.renderTitle(w, r, toc, t.Title)
	case address.Section:
		s.renderSection(w, r, toc, t)
	}
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, toc *usc.TocData) {
	data := map[string]any{
		"Titles":       toc.Titles,
		"ReleasePoint": toc.ReleasePoint,
		"Updated":      toc.Updated,
	}
	if err := s.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		logging.ErrorContext(r.Context(), "template error", "template", "home.html", "error", err)
	}
}

func (s *Server) renderTitle(w http.ResponseWriter, r *http.Request, toc *usc.TocData, num string) {
	title := toc.FindTitle(num)
	if title == nil {
		http.Error(w, "Title not found", http.StatusNotFound)
		return
	}
	data := map[string]any{
		"Title":        title,
		"ReleasePoint": toc.ReleasePoint,
	}
	if err := s.templates.ExecuteTemplate(w, "title.html", data); err != nil {
		logging.ErrorContext(r.Context(), "template error", "template", "title.html", "error", err)
	}
}

func (s *Server) renderSection(w http.ResponseWriter, r *http.Request, toc *usc.TocData, target address.Section) {
	titleNum := target.Title
	if titleNum == "" {
		// Single-title addresses fall back to the first loaded title.
		if len(toc.Titles) == 0 {
			http.Error(w, "Title not found", http.StatusNotFound)
			return
		}
		titleNum = toc.Titles[0].Number
	}

	st, err := s.views.Activate(titleNum, target.Num)
	if err != nil {
		if errors.Is(err, loader.ErrTitleNotFound) || errors.Is(err, loader.ErrSectionNotFound) {
			http.Error(w, "Section not found", http.StatusNotFound)
			return
		}
		logging.ErrorContext(r.Context(), "section activation failed",
			"title", titleNum, "section", target.Num, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	page := sectionPage{
		Title:        titleNum,
		Section:      st.Section,
		SourceCredit: template.HTML(st.Annotate(st.Section.SourceCredit)),
		Primary:      st.Primary,
		Local:        st.Local,
		IsDefs:       st.IsDefinitionsSection,
		ReleasePoint: toc.ReleasePoint,
		Reports:      s.sectionReports(st.Section),
	}
	if t := toc.FindTitle(titleNum); t != nil {
		page.TitleName = t.Name
	}

	for i, block := range st.Section.Content {
		rb := renderedBlock{
			Type:   block.Type,
			Indent: block.Indent,
			HTML:   template.HTML(st.RenderBlock(i)),
		}
		if meta, ok := st.Paths[i]; ok {
			rb.Path = meta.Path
			rb.AnchorID = meta.AnchorID
		}
		page.Blocks = append(page.Blocks, rb)
	}

	for _, note := range st.Section.Notes {
		rn := renderedNote{
			Topic:   note.Topic,
			Heading: note.Heading,
		}
		if strings.TrimSpace(note.HTML) == "" && note.Heading != "" {
			rn.IsGroupHeader = true
		} else {
			rn.HTML = template.HTML(st.Annotate(note.HTML))
		}
		page.Notes = append(page.Notes, rn)
	}

	if err := s.templates.ExecuteTemplate(w, "section.html", page); err != nil {
		logging.ErrorContext(r.Context(), "template error", "template", "section.html", "error", err)
	}
}

// sectionReports collects committee reports for the public laws cited in
// a section's source credit.
func (s *Server) sectionReports(sec *usc.SectionData) []refdata.Report {
	if s.reports == nil || sec.SourceCredit == "" {
		return nil
	}
	var out []refdata.Report
	for _, key := range s.reports.Keys() {
		congress, law, ok := strings.Cut(key, "-")
		if !ok {
			continue
		}
		if strings.Contains(sec.SourceCredit, congress+"–"+law) ||
			strings.Contains(sec.SourceCredit, congress+"-"+law) {
			out = append(out, s.reports.Lookup(congress, law)...)
		}
	}
	return out
}

// --- JSON API ---

// handleAPIToc returns the merged table of contents.
func (s *Server) handleAPIToc(w http.ResponseWriter, r *http.Request) {
	toc, err := s.store.Toc()
	if err != nil {
		writeJSONError(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	if notModified(w, r, s.store.TocDigest()) {
		return
	}
	writeJSON(w, toc)
}

// sectionPayload is the JSON shape of one section.
type sectionPayload struct {
	Title    string               `json:"title"`
	Section  *usc.SectionData     `json:"section"`
	Paths    map[string]string    `json:"paths"`
	Anchors  map[string]string    `json:"anchors"`
	Primary  []definitions.Record `json:"primaryDefinitions,omitempty"`
	Local    []definitions.Record `json:"localDefinitions,omitempty"`
	Rendered []string             `json:"rendered"`
}

// definitionPayload is the JSON shape of one definition body.
type definitionPayload struct {
	Record definitions.Record `json:"record"`
	Body   string             `json:"body"`
}

// handleAPITitle serves title and section data:
//
//	/api/title/17                      title TOC entry
//	/api/title/17/section/106          section payload
//	/api/title/17/section/101/def/X    definition body (?source=local)
func (s *Server) handleAPITitle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/title/"), "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.apiTitleToc(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "section":
		s.apiSection(w, r, parts[0], parts[2])
	case len(parts) == 5 && parts[1] == "section" && parts[3] == "def":
		s.apiDefinition(w, r, parts[0], parts[2], parts[4])
	default:
		writeJSONError(w, "invalid path", http.StatusBadRequest)
	}
}

func (s *Server) apiTitleToc(w http.ResponseWriter, r *http.Request, num string) {
	toc, err := s.store.Toc()
	if err != nil {
		writeJSONError(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	title := toc.FindTitle(num)
	if title == nil {
		writeJSONError(w, "title not found", http.StatusNotFound)
		return
	}
	if notModified(w, r, s.store.TocDigest()) {
		return
	}
	writeJSON(w, title)
}

func (s *Server) apiSection(w http.ResponseWriter, r *http.Request, titleNum, num string) {
	st, err := s.views.Activate(titleNum, num)
	if err != nil {
		if errors.Is(err, loader.ErrTitleNotFound) || errors.Is(err, loader.ErrSectionNotFound) {
			writeJSONError(w, "section not found", http.StatusNotFound)
			return
		}
		logging.ErrorContext(r.Context(), "section activation failed",
			"title", titleNum, "section", num, "error", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if digest, err := s.store.TitleDigest(titleNum); err == nil && notModified(w, r, digest) {
		return
	}

	payload := sectionPayload{
		Title:   titleNum,
		Section: st.Section,
		Paths:   make(map[string]string, len(st.Paths)),
		Anchors: make(map[string]string, len(st.Paths)),
		Primary: st.Primary,
		Local:   st.Local,
	}
	for i, meta := range st.Paths {
		key := strconv.Itoa(i)
		payload.Paths[key] = meta.Path
		payload.Anchors[key] = meta.AnchorID
	}
	for i := range st.Section.Content {
		payload.Rendered = append(payload.Rendered, st.RenderBlock(i))
	}
	writeJSON(w, payload)
}

func (s *Server) apiDefinition(w http.ResponseWriter, r *http.Request, titleNum, num, slug string) {
	st, err := s.views.Activate(titleNum, num)
	if err != nil {
		if errors.Is(err, loader.ErrTitleNotFound) || errors.Is(err, loader.ErrSectionNotFound) {
			writeJSONError(w, "section not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	source := definitions.SourcePrimary
	if r.URL.Query().Get("source") == string(definitions.SourceLocal) {
		source = definitions.SourceLocal
	}

	rec, body, err := s.views.DefinitionBody(st, slug, source)
	if err != nil {
		if errors.Is(err, view.ErrDefinitionNotFound) {
			writeJSONError(w, "definition not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, definitionPayload{Record: rec, Body: body})
}

// resolvePayload is the JSON shape of a click resolution.
type resolvePayload struct {
	Kind    citation.ResolutionKind `json:"kind"`
	Address string                  `json:"address,omitempty"`
	URL     string                  `json:"url,omitempty"`
	Slug    string                  `json:"slug,omitempty"`
	Source  definitions.Source      `json:"source,omitempty"`
}

// handleAPIResolve resolves an intercepted click. Query parameters:
// href (link target), term (defined-term slug), source (term source).
func (s *Server) handleAPIResolve(w http.ResponseWriter, r *http.Request) {
	click := citation.Click{
		Href:       r.URL.Query().Get("href"),
		TermSlug:   r.URL.Query().Get("term"),
		TermSource: definitions.Source(r.URL.Query().Get("source")),
	}

	res := citation.Resolve(click)
	payload := resolvePayload{
		Kind:   res.Kind,
		URL:    res.ExternalURL,
		Slug:   res.Slug,
		Source: res.Source,
	}
	if res.Kind == citation.ResolutionInApp {
		payload.Address = address.Encode(res.Target)
	}
	writeJSON(w, payload)
}

// searchPayload is the JSON shape of a search response.
type searchPayload struct {
	Query    string             `json:"query"`
	Sections []index.SectionHit `json:"sections,omitempty"`
	Terms    []index.TermHit    `json:"terms,omitempty"`
}

// handleAPISearch queries the SQLite index. Query parameters: q, kind
// (sections, terms, or both when absent), limit.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	if s.ix == nil {
		writeJSONError(w, "search index not configured", http.StatusServiceUnavailable)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	kind := r.URL.Query().Get("kind")
	payload := searchPayload{Query: query}

	if kind == "" || kind == "sections" {
		hits, err := s.ix.SearchSections(r.Context(), query, limit)
		if err != nil {
			logging.ErrorContext(r.Context(), "section search failed", "error", err)
			writeJSONError(w, "search failed", http.StatusInternalServerError)
			return
		}
		payload.Sections = hits
	}
	if kind == "" || kind == "terms" {
		hits, err := s.ix.SearchTerms(r.Context(), query, limit)
		if err != nil {
			logging.ErrorContext(r.Context(), "term search failed", "error", err)
			writeJSONError(w, "search failed", http.StatusInternalServerError)
			return
		}
		payload.Terms = hits
	}
	writeJSON(w, payload)
}

// statusPayload describes the loaded dataset.
type statusPayload struct {
	ReleasePoint string   `json:"releasePoint"`
	Updated      string   `json:"updated"`
	Titles       int      `json:"titles"`
	LoadedTitles []string `json:"loadedTitles"`
	TocDigest    string   `json:"tocDigest"`
	SearchDriver string   `json:"searchDriver,omitempty"`
}

// handleAPIStatus reports dataset and server state.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	toc, err := s.store.Toc()
	if err != nil {
		writeJSONError(w, fmt.Sprintf("dataset unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}

	payload := statusPayload{
		ReleasePoint: toc.ReleasePoint,
		Updated:      toc.Updated,
		Titles:       len(toc.Titles),
		LoadedTitles: s.store.LoadedTitles(),
		TocDigest:    s.store.TocDigest(),
	}
	if s.ix != nil {
		payload.SearchDriver = index.DriverInfo()
	}
	writeJSON(w, payload)
}
