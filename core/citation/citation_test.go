package citation

import (
	"testing"

	"github.com/lawtext/uscview/core/address"
	"github.com/lawtext/uscview/core/definitions"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		href    string
		want    Identifier
		wantErr bool
	}{
		{
			href: "/us/usc/t17/s106",
			want: Identifier{Kind: KindUSC, Title: "17", Section: "106", Path: []string{}},
		},
		{
			href: "/us/usc/t17/s512/b/1/A",
			want: Identifier{Kind: KindUSC, Title: "17", Section: "512", Path: []string{"b", "1", "A"}},
		},
		{
			href: "/us/usc/t42/s2000e-2",
			want: Identifier{Kind: KindUSC, Title: "42", Section: "2000e-2", Path: []string{}},
		},
		{
			href: "/us/pl/94/553",
			want: Identifier{Kind: KindPublicLaw, Congress: "94", Law: "553"},
		},
		{
			href: "/us/stat/90/2541",
			want: Identifier{Kind: KindStatute, Volume: "90", Page: "2541"},
		},
		{
			href: "/us/act/1909-03-04/ch320",
			want: Identifier{Kind: KindOther},
		},
		{
			href: "/us/usc/t17",
			want: Identifier{Kind: KindOther},
		},
		{href: "https://example.com/page", wantErr: true},
		{href: "/uk/statute/1988", wantErr: true},
		{href: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			id, err := ParseIdentifier(tt.href)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseIdentifier(%q) = %+v, want error", tt.href, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) error: %v", tt.href, err)
			}
			if id.Kind != tt.want.Kind {
				t.Errorf("kind = %q, want %q", id.Kind, tt.want.Kind)
			}
			if id.Title != tt.want.Title || id.Section != tt.want.Section {
				t.Errorf("title/section = %q/%q, want %q/%q", id.Title, id.Section, tt.want.Title, tt.want.Section)
			}
			if len(id.Path) != len(tt.want.Path) {
				t.Errorf("path = %v, want %v", id.Path, tt.want.Path)
			} else {
				for i := range id.Path {
					if id.Path[i] != tt.want.Path[i] {
						t.Errorf("path = %v, want %v", id.Path, tt.want.Path)
						break
					}
				}
			}
			if id.Congress != tt.want.Congress || id.Law != tt.want.Law {
				t.Errorf("congress/law = %q/%q, want %q/%q", id.Congress, id.Law, tt.want.Congress, tt.want.Law)
			}
			if id.Volume != tt.want.Volume || id.Page != tt.want.Page {
				t.Errorf("volume/page = %q/%q, want %q/%q", id.Volume, id.Page, tt.want.Volume, tt.want.Page)
			}
		})
	}
}

func TestParagraphAnchor(t *testing.T) {
	id := &Identifier{Path: []string{"b", "1", "A"}}
	if got := id.ParagraphAnchor(); got != "(b)(1)(A)" {
		t.Errorf("ParagraphAnchor = %q, want %q", got, "(b)(1)(A)")
	}
	id = &Identifier{}
	if got := id.ParagraphAnchor(); got != "" {
		t.Errorf("ParagraphAnchor = %q, want empty", got)
	}
}

func TestResolveSectionReference(t *testing.T) {
	res := Resolve(Click{Href: "/us/usc/t17/s107"})
	if res.Kind != ResolutionInApp {
		t.Fatalf("kind = %q, want %q", res.Kind, ResolutionInApp)
	}
	want := address.Section{Title: "17", Num: "107"}
	if res.Target != want {
		t.Errorf("target = %#v, want %#v", res.Target, want)
	}
}

func TestResolveSectionReferenceWithPath(t *testing.T) {
	res := Resolve(Click{Href: "/us/usc/t17/s106/a/1"})
	sec, ok := res.Target.(address.Section)
	if !ok || sec.Anchor != "(a)(1)" {
		t.Errorf("target = %#v, want anchor (a)(1)", res.Target)
	}
}

func TestResolvePublicLaw(t *testing.T) {
	res := Resolve(Click{Href: "/us/pl/94/553"})
	if res.Kind != ResolutionExternal {
		t.Fatalf("kind = %q, want %q", res.Kind, ResolutionExternal)
	}
	want := "https://www.govinfo.gov/link/plaw/94/public/553"
	if res.ExternalURL != want {
		t.Errorf("url = %q, want %q", res.ExternalURL, want)
	}
}

func TestResolveStatute(t *testing.T) {
	res := Resolve(Click{Href: "/us/stat/90/2541"})
	if res.Kind != ResolutionExternal {
		t.Fatalf("kind = %q, want %q", res.Kind, ResolutionExternal)
	}
	want := "https://www.govinfo.gov/link/statute/90/2541"
	if res.ExternalURL != want {
		t.Errorf("url = %q, want %q", res.ExternalURL, want)
	}
}

// Identifier shapes with no navigable destination are suppressed so the
// browser never attempts to resolve the raw path.
func TestResolveSuppressed(t *testing.T) {
	for _, href := range []string{"/us/act/1909-03-04/ch320", "/us/usc/t17"} {
		if res := Resolve(Click{Href: href}); res.Kind != ResolutionSuppressed {
			t.Errorf("Resolve(%q).Kind = %q, want %q", href, res.Kind, ResolutionSuppressed)
		}
	}
}

func TestResolveOrdinaryLink(t *testing.T) {
	if res := Resolve(Click{Href: "https://copyright.gov"}); res.Kind != ResolutionNone {
		t.Errorf("external web link should pass through, got %q", res.Kind)
	}
	if res := Resolve(Click{}); res.Kind != ResolutionNone {
		t.Errorf("non-link click should pass through, got %q", res.Kind)
	}
}

// A click on a defined-term span wins over any link resolution.
func TestResolveDefinitionPrecedence(t *testing.T) {
	res := Resolve(Click{
		Href:       "/us/usc/t17/s106",
		TermSlug:   "motion-picture",
		TermSource: definitions.SourcePrimary,
	})
	if res.Kind != ResolutionDefinition {
		t.Fatalf("kind = %q, want %q", res.Kind, ResolutionDefinition)
	}
	if res.Slug != "motion-picture" || res.Source != definitions.SourcePrimary {
		t.Errorf("definition payload = %q/%q", res.Slug, res.Source)
	}
}
