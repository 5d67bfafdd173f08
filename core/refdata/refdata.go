// Package refdata carries static reference data injected into the
// viewer: the mapping from public-law citations to the committee reports
// that accompanied them. This is curated lookup data, not derived logic;
// the table is read-only after construction and entry order is preserved
// for display.
package refdata

// Report is one committee-report citation for a public law.
type Report struct {
	// Citation is the report citation, e.g. "H.R. Rep. No. 94-1476".
	Citation string

	// Chamber is "house", "senate" or "conference".
	Chamber string
}

// ReportTable maps public-law keys ("<congress>-<law>") to committee
// reports.
type ReportTable struct {
	entries map[string][]Report
	keys    []string
}

// NewReportTable builds an empty table.
func NewReportTable() *ReportTable {
	return &ReportTable{entries: make(map[string][]Report)}
}

// Add appends a report for a public law. Key order is first-insertion
// order.
func (t *ReportTable) Add(congress, law string, report Report) {
	key := congress + "-" + law
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = append(t.entries[key], report)
}

// Lookup returns the reports for a public law, or nil.
func (t *ReportTable) Lookup(congress, law string) []Report {
	return t.entries[congress+"-"+law]
}

// Keys returns the public-law keys in insertion order.
func (t *ReportTable) Keys() []string {
	return t.keys
}

// Len returns the number of public laws in the table.
func (t *ReportTable) Len() int {
	return len(t.keys)
}

// CopyrightActReports returns the built-in table for Title 17: the
// committee reports most commonly cited alongside its public laws.
func CopyrightActReports() *ReportTable {
	t := NewReportTable()
	t.Add("94", "553", Report{Citation: "H.R. Rep. No. 94-1476", Chamber: "house"})
	t.Add("94", "553", Report{Citation: "S. Rep. No. 94-473", Chamber: "senate"})
	t.Add("94", "553", Report{Citation: "H.R. Rep. No. 94-1733", Chamber: "conference"})
	t.Add("105", "304", Report{Citation: "H.R. Rep. No. 105-551", Chamber: "house"})
	t.Add("105", "304", Report{Citation: "S. Rep. No. 105-190", Chamber: "senate"})
	t.Add("101", "650", Report{Citation: "H.R. Rep. No. 101-514", Chamber: "house"})
	t.Add("102", "563", Report{Citation: "H.R. Rep. No. 102-873", Chamber: "house"})
	t.Add("102", "563", Report{Citation: "S. Rep. No. 102-294", Chamber: "senate"})
	t.Add("105", "298", Report{Citation: "H.R. Rep. No. 105-452", Chamber: "house"})
	t.Add("115", "264", Report{Citation: "H.R. Rep. No. 115-651", Chamber: "house"})
	t.Add("115", "264", Report{Citation: "S. Rep. No. 115-339", Chamber: "senate"})
	return t
}
