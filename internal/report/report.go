// Package report assembles bibliometric indices into a single report.
package report

import (
	"sort"

	"github.com/matsen/bix/internal/index"
	"github.com/matsen/bix/internal/publication"
)

// Display keys of the flattened report, in presentation order.
const (
	KeyPublications     = "Quantity of Publications"
	KeyTotalCitations   = "Total Citations"
	KeyAverageCitations = "Average Citations per Paper (C/P)"
	KeyI10              = "i10 Index"
	KeyH                = "h index"
	KeyMockH            = "Mock_h index"
	KeyE                = "e index"
	KeyM                = "m index"
	KeyG                = "g index"
	KeyS                = "s index"
	KeyFunding          = "Funding Details"
	KeyT                = "t index"
)

// Report holds every index computed for one dataset.
type Report struct {
	CurrentYear      int     `json:"current_year"`
	Publications     int     `json:"publications"`
	TotalCitations   int     `json:"total_citations"`
	AverageCitations float64 `json:"average_citations"`
	I10Index         int     `json:"i10_index"`
	HIndex           int     `json:"h_index"`
	MockHIndex       float64 `json:"mock_h_index"`
	EIndex           float64 `json:"e_index"`
	MIndex           float64 `json:"m_index"`
	GIndex           int     `json:"g_index"`
	SIndex           float64 `json:"s_index"`
	TIndex           float64 `json:"t_index"`
	Funded           int     `json:"funded"`

	DocumentTypes []DocumentTypeCount `json:"document_types"`
	Yearly        []index.YearStat    `json:"yearly"`
}

// DocumentTypeCount is the number of publications of one document type.
type DocumentTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Entry is one key/value pair of the flattened report.
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Assemble computes all indices for ds. currentYear is the reference year
// for the m-index academic age.
func Assemble(ds *publication.Dataset, currentYear int) Report {
	counts := ds.CitationCounts()
	total := ds.TotalCitations()
	papers := ds.Len()

	// h is computed once and shared by e, m and the report itself.
	h := index.HIndex(counts)
	yearly := index.YearlyStats(ds.ByYear())

	r := Report{
		CurrentYear:    currentYear,
		Publications:   papers,
		TotalCitations: total,
		I10Index:       index.I10Index(counts),
		HIndex:         h,
		MockHIndex:     index.MockHIndex(total, papers),
		EIndex:         index.EIndex(counts, h),
		GIndex:         index.GIndex(counts),
		SIndex:         index.SIndex(counts),
		TIndex:         index.TIndex(yearly),
		Funded:         ds.FundedCount(),
		DocumentTypes:  sortedDocumentTypes(ds.DocumentTypeCounts()),
		Yearly:         yearly,
	}
	if papers > 0 {
		r.AverageCitations = float64(total) / float64(papers)
	}
	if earliest, ok := ds.EarliestYear(); ok {
		r.MIndex = index.MIndex(h, earliest, currentYear)
	}
	return r
}

// sortedDocumentTypes orders document types by descending count, then name.
func sortedDocumentTypes(counts map[string]int) []DocumentTypeCount {
	types := make([]DocumentTypeCount, 0, len(counts))
	for t, n := range counts {
		types = append(types, DocumentTypeCount{Type: t, Count: n})
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].Count != types[j].Count {
			return types[i].Count > types[j].Count
		}
		return types[i].Type < types[j].Type
	})
	return types
}

// Entries flattens the report into display keys: the fixed index keys
// followed by one entry per document type.
func (r Report) Entries() []Entry {
	entries := []Entry{
		{KeyPublications, float64(r.Publications)},
		{KeyTotalCitations, float64(r.TotalCitations)},
		{KeyAverageCitations, r.AverageCitations},
		{KeyI10, float64(r.I10Index)},
		{KeyH, float64(r.HIndex)},
		{KeyMockH, r.MockHIndex},
		{KeyE, r.EIndex},
		{KeyM, r.MIndex},
		{KeyG, float64(r.GIndex)},
		{KeyS, r.SIndex},
		{KeyFunding, float64(r.Funded)},
		{KeyT, r.TIndex},
	}
	for _, dt := range r.DocumentTypes {
		entries = append(entries, Entry{Key: dt.Type, Value: float64(dt.Count)})
	}
	return entries
}

// Map flattens the report into a key/value map. A document type whose name
// collides with a fixed key overwrites it, as in Entries order.
func (r Report) Map() map[string]float64 {
	m := make(map[string]float64)
	for _, e := range r.Entries() {
		m[e.Key] = e.Value
	}
	return m
}
