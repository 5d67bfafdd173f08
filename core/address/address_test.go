package address

import (
	"testing"
)

func TestRoundTrip(t *testing.T) {
	targets := []Target{
		Home{},
		TitleListing{Title: "17"},
		Section{Title: "17", Num: "106"},
		Section{Title: "17", Num: "106a"},
		Section{Title: "17", Num: "106", Anchor: "(a)(1)"},
		Section{Title: "17", Num: "512", Anchor: "(c)(1)(A)(iii)"},
		Section{Title: "17", Num: "101", Anchor: "def/anonymous-work"},
		Section{Title: "42", Num: "2000e-2"},
		Section{Num: "106"},
		Section{Num: "106", Anchor: "(a)(1)"},
		Section{Num: "101", Anchor: "def/motion-picture"},
	}

	for _, target := range targets {
		addr := Encode(target)
		got := Decode(addr)
		if got != target {
			t.Errorf("Decode(Encode(%#v)) = %#v (addr %q)", target, got, addr)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		addr string
		want Target
	}{
		{"", Home{}},
		{"#", Home{}},
		{"/", Home{}},
		{"t17", TitleListing{Title: "17"}},
		{"#t17", TitleListing{Title: "17"}},
		{"t17/s106", Section{Title: "17", Num: "106"}},
		{"t17/s106(a)(1)", Section{Title: "17", Num: "106", Anchor: "(a)(1)"}},
		{"t17/s101/def/anonymous-work", Section{Title: "17", Num: "101", Anchor: "def/anonymous-work"}},
		{"section/106", Section{Num: "106"}},
		{"section/106(a)(1)", Section{Num: "106", Anchor: "(a)(1)"}},
		{"section/101/def/device", Section{Num: "101", Anchor: "def/device"}},
		// Unrecognized addresses fall back to home, never error.
		{"garbage", Home{}},
		{"t17/x99", Home{}},
		{"t17/s", Home{}},
		{"s106", Home{}},
		{"t17/s106/def/", Home{}},
	}

	for _, tt := range tests {
		if got := Decode(tt.addr); got != tt.want {
			t.Errorf("Decode(%q) = %#v, want %#v", tt.addr, got, tt.want)
		}
	}
}

// The anchor-extended patterns must win over the bare-section pattern;
// otherwise a real anchor would be truncated into a plain section.
func TestDecodeAnchorPrecedence(t *testing.T) {
	got := Decode("t17/s106(a)")
	sec, ok := got.(Section)
	if !ok || sec.Anchor != "(a)" {
		t.Errorf("paragraph anchor lost: %#v", got)
	}

	got = Decode("t17/s101/def/berne-convention-work")
	sec, ok = got.(Section)
	if !ok || sec.Anchor != "def/berne-convention-work" {
		t.Errorf("definition anchor lost: %#v", got)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Home{}, ""},
		{TitleListing{Title: "17"}, "t17"},
		{Section{Title: "17", Num: "106"}, "t17/s106"},
		{Section{Title: "17", Num: "106", Anchor: "(a)(1)"}, "t17/s106(a)(1)"},
		{Section{Title: "17", Num: "101", Anchor: "def/fixed"}, "t17/s101/def/fixed"},
		{Section{Num: "106", Anchor: "(b)"}, "section/106(b)"},
	}
	for _, tt := range tests {
		if got := Encode(tt.target); got != tt.want {
			t.Errorf("Encode(%#v) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestDefSlug(t *testing.T) {
	tests := []struct {
		anchor string
		want   string
	}{
		{"def/anonymous-work", "anonymous-work"},
		{"(a)(1)", ""},
		{"", ""},
		{"def/", ""},
	}
	for _, tt := range tests {
		if got := DefSlug(tt.anchor); got != tt.want {
			t.Errorf("DefSlug(%q) = %q, want %q", tt.anchor, got, tt.want)
		}
	}
}
