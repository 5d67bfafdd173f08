package usc

import "testing"

func TestIsStructural(t *testing.T) {
	structural := []string{
		BlockSubsection, BlockParagraph, BlockSubparagraph, BlockClause,
		BlockSubclause, BlockItem, BlockSubitem, BlockSubsubitem,
	}
	for _, bt := range structural {
		if !IsStructural(bt) {
			t.Errorf("IsStructural(%q) = false", bt)
		}
	}
	prose := []string{BlockChapeau, BlockContent, BlockContinuation, BlockFlush, BlockProse, BlockTable, ""}
	for _, bt := range prose {
		if IsStructural(bt) {
			t.Errorf("IsStructural(%q) = true", bt)
		}
	}
}

func TestFindTitleAndSection(t *testing.T) {
	toc := TocData{
		Titles: []Title{{
			Number: "17",
			Name:   "Copyrights",
			Chapters: []Chapter{
				{Number: "1", Sections: []SectionRef{{Number: "101"}, {Number: "102"}}},
				{Number: "2", Sections: []SectionRef{{Number: "201"}}},
			},
		}},
	}

	title := toc.FindTitle("17")
	if title == nil {
		t.Fatal("FindTitle(17) = nil")
	}
	if toc.FindTitle("42") != nil {
		t.Error("FindTitle(42) != nil")
	}

	if ref := title.FindSection("201"); ref == nil {
		t.Error("FindSection(201) = nil")
	}
	if title.FindSection("999") != nil {
		t.Error("FindSection(999) != nil")
	}
}
