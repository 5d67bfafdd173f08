package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawtext/uscview/core/usc"
)

func writeFixture(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newTestServer builds a server over a two-section Title 17 fixture:
// the definitions section 101 and an operative section 106 that uses a
// defined term and cites other authorities.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, filepath.Join(dir, "toc.json"), usc.TocData{
		ReleasePoint: "119-73not60",
		Updated:      "2026-08-15",
		Titles: []usc.Title{{
			Number: "17",
			Name:   "Copyrights",
			Chapters: []usc.Chapter{{
				Number:  "1",
				Heading: "Subject Matter and Scope of Copyright",
				Sections: []usc.SectionRef{
					{Number: "101", NumText: "§ 101.", Heading: "Definitions"},
					{Number: "106", NumText: "§ 106.", Heading: "Exclusive rights in copyrighted works"},
				},
			}},
		}},
	})

	writeFixture(t, filepath.Join(dir, "t17.json"), map[string]*usc.SectionData{
		"101": {
			Number:  "101",
			NumText: "§ 101.",
			Heading: "Definitions",
			Content: []usc.ContentBlock{{
				Type:   "content",
				Indent: 0,
				HTML: `<p class="indent1">A ` + "“computer program”" + ` is a set of statements or instructions.</p>` +
					`<p class="indent1">` + "“Copies”" + ` are material objects.</p>`,
			}},
		},
		"106": {
			Number:  "106",
			NumText: "§ 106.",
			Heading: "Exclusive rights in copyrighted works",
			Content: []usc.ContentBlock{
				{Type: "chapeau", Indent: 0, HTML: `Subject to <a href="/us/usc/t17/s107">section 107</a>, the owner has the exclusive rights`},
				{Type: "paragraph", Indent: 0, HTML: `<span class="num">(1)</span> to reproduce the copyrighted work in copies;`},
				{Type: "paragraph", Indent: 0, HTML: `<span class="num">(2)</span> in the case of a computer program, to prepare derivative works;`},
			},
			SourceCredit: "(Pub. L. 94–553, title I, § 101, Oct. 19, 1976, 90 Stat. 2546.)",
			Notes: []usc.NoteBlock{
				{Topic: "miscellaneous", Heading: "Historical and Revision Notes", HTML: ""},
				{Topic: "miscellaneous", HTML: "<p>The five exclusive rights are stated generally.</p>"},
			},
		},
	})

	s, err := New(Config{Port: 0, DataDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	return rec
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Title 17") || !strings.Contains(body, "Copyrights") {
		t.Errorf("home page missing title listing:\n%s", body)
	}
	if !strings.Contains(body, "119-73not60") {
		t.Error("home page missing release point")
	}
}

func TestTitlePage(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/t17")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/t17/s106"`) {
		t.Errorf("title page missing section link:\n%s", body)
	}

	if rec := get(t, s, "/t42"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown title: status = %d, want 404", rec.Code)
	}
}

func TestSectionPage(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/t17/s106")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()

	if !strings.Contains(body, `id="s106(1)"`) {
		t.Error("paragraph anchor missing")
	}
	if !strings.Contains(body, `class="defined-term" data-slug="computer-program"`) {
		t.Error("defined term not annotated")
	}
	if !strings.Contains(body, "Pub. L. 94") {
		t.Error("source credit missing")
	}
	if !strings.Contains(body, `class="note-group"`) {
		t.Error("note group header not rendered as header")
	}
	if !strings.Contains(body, "H.R. Rep. No. 94-1476") {
		t.Error("committee report for Pub. L. 94-553 missing")
	}
}

func TestSectionPageNotFound(t *testing.T) {
	s := newTestServer(t)
	if rec := get(t, s, "/t17/s999"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAPITocETag(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/toc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on TOC response")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/toc", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", rec2.Code)
	}
}

func TestAPISection(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/title/17/section/106")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload sectionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Section.Number != "106" {
		t.Errorf("section number = %q", payload.Section.Number)
	}
	if payload.Paths["1"] != "(1)" {
		t.Errorf("paths[1] = %q, want (1)", payload.Paths["1"])
	}
	if len(payload.Rendered) != 3 {
		t.Fatalf("rendered blocks = %d, want 3", len(payload.Rendered))
	}
	if !strings.Contains(payload.Rendered[2], "defined-term") {
		t.Error("rendered block not annotated")
	}
}

func TestAPIDefinition(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/title/17/section/101/def/computer-program")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload definitionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Record.Term != "computer program" {
		t.Errorf("term = %q", payload.Record.Term)
	}
	if !strings.Contains(payload.Body, "set of statements") {
		t.Errorf("definition body = %q", payload.Body)
	}

	if rec := get(t, s, "/api/title/17/section/101/def/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown slug: status = %d, want 404", rec.Code)
	}
}

func TestAPIResolve(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name  string
		query string
		kind  string
		check func(t *testing.T, p resolvePayload)
	}{
		{
			name:  "defined term",
			query: "term=computer-program&source=primary",
			kind:  "definition",
			check: func(t *testing.T, p resolvePayload) {
				if p.Slug != "computer-program" {
					t.Errorf("slug = %q", p.Slug)
				}
			},
		},
		{
			name:  "usc citation",
			query: "href=/us/usc/t17/s107",
			kind:  "in-app",
			check: func(t *testing.T, p resolvePayload) {
				if p.Address != "t17/s107" {
					t.Errorf("address = %q", p.Address)
				}
			},
		},
		{
			name:  "public law",
			query: "href=/us/pl/94/553",
			kind:  "external",
			check: func(t *testing.T, p resolvePayload) {
				if !strings.Contains(p.URL, "govinfo.gov/link/plaw/94/public/553") {
					t.Errorf("url = %q", p.URL)
				}
			},
		},
		{
			name:  "unsupported uslm shape",
			query: "href=/us/act/1976-10-19/ch1",
			kind:  "suppressed",
		},
		{
			name:  "ordinary link",
			query: "href=https://example.com/page",
			kind:  "none",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, s, "/api/resolve?"+tc.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var p resolvePayload
			if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if string(p.Kind) != tc.kind {
				t.Errorf("kind = %q, want %q", p.Kind, tc.kind)
			}
			if tc.check != nil {
				tc.check(t, p)
			}
		})
	}
}

func TestAPISearchWithoutIndex(t *testing.T) {
	s := newTestServer(t)
	if rec := get(t, s, "/api/search?q=copies"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAPIStatus(t *testing.T) {
	s := newTestServer(t)
	get(t, s, "/api/toc") // force the TOC load

	rec := get(t, s, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload statusPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.ReleasePoint != "119-73not60" {
		t.Errorf("release point = %q", payload.ReleasePoint)
	}
	if payload.Titles != 1 {
		t.Errorf("titles = %d", payload.Titles)
	}
}

func TestPageMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/t17/s106", nil)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
