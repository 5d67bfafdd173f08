package loader

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/lawtext/uscview/core/usc"
)

// TitleNames maps title numbers to canonical names; some upstream XML
// headings are abbreviated.
var TitleNames = map[string]string{
	"1":  "General Provisions",
	"2":  "The Congress",
	"3":  "The President",
	"4":  "Flag and Seal, Seat of Government, and the States",
	"5":  "Government Organization and Employees",
	"6":  "Domestic Security",
	"7":  "Agriculture",
	"8":  "Aliens and Nationality",
	"9":  "Arbitration",
	"10": "Armed Forces",
	"11": "Bankruptcy",
	"12": "Banks and Banking",
	"13": "Census",
	"14": "Coast Guard",
	"15": "Commerce and Trade",
	"16": "Conservation",
	"17": "Copyrights",
	"18": "Crimes and Criminal Procedure",
	"19": "Customs Duties",
	"20": "Education",
	"21": "Food and Drugs",
	"22": "Foreign Relations and Intercourse",
	"23": "Highways",
	"24": "Hospitals and Asylums",
	"25": "Indians",
	"26": "Internal Revenue Code",
	"27": "Intoxicating Liquors",
	"28": "Judiciary and Judicial Procedure",
	"29": "Labor",
	"30": "Mineral Lands and Mining",
	"31": "Money and Finance",
	"32": "National Guard",
	"33": "Navigation and Navigable Waters",
	"34": "Crime Control and Law Enforcement",
	"35": "Patents",
	"36": "Patriotic and National Observances, Ceremonies, and Organizations",
	"37": "Pay and Allowances of the Uniformed Services",
	"38": "Veterans' Benefits",
	"39": "Postal Service",
	"40": "Public Buildings, Property, and Works",
	"41": "Public Contracts",
	"42": "The Public Health and Welfare",
	"43": "Public Lands",
	"44": "Public Printing and Documents",
	"45": "Railroads",
	"46": "Shipping",
	"47": "Telecommunications",
	"48": "Territories and Insular Possessions",
	"49": "Transportation",
	"50": "War and National Defense",
	"51": "National and Commercial Space Programs",
	"52": "Voting and Elections",
	"54": "National Park Service and Related Programs",
}

// titleSortKey orders title numbers numerically, pushing non-numeric
// oddities to the end.
func titleSortKey(num string) int {
	if n, err := strconv.Atoi(num); err == nil {
		return n
	}
	return 9999
}

// MergeFragments combines all toc-*.json fragments found in dir into one
// TocData, applying canonical title names and numeric ordering. The
// returned digest covers the merged document.
func MergeFragments(dir string) (*usc.TocData, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "toc-*.json"))
	if err != nil {
		return nil, "", err
	}
	xzMatches, err := filepath.Glob(filepath.Join(dir, "toc-*.json.xz"))
	if err != nil {
		return nil, "", err
	}
	for _, m := range xzMatches {
		matches = append(matches, stripDataSuffix(m)+".json")
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("no toc.json or toc-*.json fragments in %s: %w", dir, os.ErrNotExist)
	}
	sort.Strings(matches)

	seen := make(map[string]bool)
	var titles []usc.Title
	for _, path := range matches {
		if seen[path] {
			continue
		}
		seen[path] = true

		data, _, err := readDataFile(path)
		if err != nil {
			return nil, "", err
		}
		var title usc.Title
		if err := json.Unmarshal(data, &title); err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", path, err)
		}
		if name, ok := TitleNames[title.Number]; ok {
			title.Name = name
		}
		titles = append(titles, title)
	}

	sort.SliceStable(titles, func(i, j int) bool {
		return titleSortKey(titles[i].Number) < titleSortKey(titles[j].Number)
	})

	toc := &usc.TocData{Titles: titles}
	merged, err := json.Marshal(toc)
	if err != nil {
		return nil, "", err
	}
	sum := blake3.Sum256(merged)
	return toc, hex.EncodeToString(sum[:]), nil
}

// WriteMerged merges fragments and writes the combined toc.json, carrying
// through a release point and updated date when supplied.
func WriteMerged(dir, outPath, releasePoint, updated string) (*usc.TocData, error) {
	toc, _, err := MergeFragments(dir)
	if err != nil {
		return nil, err
	}
	toc.ReleasePoint = releasePoint
	toc.Updated = updated

	data, err := json.MarshalIndent(toc, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, err
	}
	return toc, nil
}
