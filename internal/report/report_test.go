package report

import (
	"math"
	"testing"

	"github.com/matsen/bix/internal/publication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDataset(t *testing.T, records []publication.Record) *publication.Dataset {
	t.Helper()
	ds, err := publication.NewDataset(records)
	require.NoError(t, err)
	return ds
}

func TestAssemble_SingleRecord(t *testing.T) {
	ds := mustDataset(t, []publication.Record{
		{ID: "2-s2.0-1", Year: 2020, CitationCount: 5, DocumentType: "Article"},
	})

	r := Assemble(ds, 2024)

	assert.Equal(t, 1, r.Publications)
	assert.Equal(t, 5, r.TotalCitations)
	assert.Equal(t, 1, r.HIndex)
	assert.Equal(t, 0, r.I10Index)
	assert.InDelta(t, math.Pow(5, 2.0/3.0), r.MockHIndex, 1e-12)
	assert.InDelta(t, 2.0, r.EIndex, 1e-12)
	assert.InDelta(t, 0.25, r.MIndex, 1e-12)
	assert.Equal(t, 1, r.GIndex)
	assert.InDelta(t, 5.0, r.AverageCitations, 1e-12)
	assert.Equal(t, []DocumentTypeCount{{Type: "Article", Count: 1}}, r.DocumentTypes)
}

func TestAssemble_Empty(t *testing.T) {
	r := Assemble(mustDataset(t, nil), 2024)

	assert.Equal(t, 0, r.Publications)
	assert.Equal(t, 0.0, r.AverageCitations)
	assert.Equal(t, 0, r.HIndex)
	assert.Equal(t, 0, r.GIndex)
	assert.Equal(t, 0.0, r.EIndex)
	assert.Equal(t, 0.0, r.MIndex)
	assert.Equal(t, 0.0, r.MockHIndex)
	assert.Equal(t, 0.0, r.SIndex)
	assert.Equal(t, 0.0, r.TIndex)
	assert.Empty(t, r.DocumentTypes)
	assert.Empty(t, r.Yearly)
}

func TestAssemble_ZeroCitations(t *testing.T) {
	ds := mustDataset(t, []publication.Record{
		{ID: "a", Year: 2019},
		{ID: "b", Year: 2020},
		{ID: "c", Year: 2020},
	})

	r := Assemble(ds, 2024)

	assert.Equal(t, 0, r.I10Index)
	assert.Equal(t, 0, r.HIndex)
	assert.Equal(t, 0.0, r.SIndex)
	assert.Equal(t, 0.0, r.TIndex)
	assert.False(t, math.IsNaN(r.EIndex))
}

func TestAssemble_Mixed(t *testing.T) {
	ds := mustDataset(t, []publication.Record{
		{ID: "a", Year: 2015, CitationCount: 10, DocumentType: "Article", HasFunding: true},
		{ID: "b", Year: 2016, CitationCount: 8, DocumentType: "Review"},
		{ID: "c", Year: 2016, CitationCount: 5, DocumentType: "Article", HasFunding: true},
		{ID: "d", Year: 2018, CitationCount: 4, DocumentType: "Article"},
		{ID: "e", Year: 2020, CitationCount: 3, DocumentType: "Conference Paper"},
	})

	r := Assemble(ds, 2025)

	assert.Equal(t, 30, r.TotalCitations)
	assert.Equal(t, 4, r.HIndex)
	assert.Equal(t, 5, r.GIndex)
	assert.Equal(t, 1, r.I10Index)
	assert.Equal(t, 2, r.Funded)
	assert.InDelta(t, math.Sqrt(11), r.EIndex, 1e-12)
	assert.InDelta(t, 0.4, r.MIndex, 1e-12)
	assert.InDelta(t, 6.0, r.AverageCitations, 1e-12)
	require.Len(t, r.Yearly, 4)
	assert.Equal(t, 2016, r.Yearly[1].Year)
	assert.Equal(t, 13, r.Yearly[1].Citations)
	assert.Equal(t, 2, r.Yearly[1].HIndex)
	assert.Equal(t, []DocumentTypeCount{
		{Type: "Article", Count: 3},
		{Type: "Conference Paper", Count: 1},
		{Type: "Review", Count: 1},
	}, r.DocumentTypes)
}

func TestEntries_KeyOrder(t *testing.T) {
	ds := mustDataset(t, []publication.Record{
		{ID: "a", Year: 2020, CitationCount: 12, DocumentType: "Article", HasFunding: true},
		{ID: "b", Year: 2021, CitationCount: 1, DocumentType: "Review"},
	})

	entries := Assemble(ds, 2024).Entries()

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{
		KeyPublications, KeyTotalCitations, KeyAverageCitations, KeyI10,
		KeyH, KeyMockH, KeyE, KeyM, KeyG, KeyS, KeyFunding, KeyT,
		"Article", "Review",
	}, keys)

	m := Assemble(ds, 2024).Map()
	assert.Equal(t, 2.0, m[KeyPublications])
	assert.Equal(t, 13.0, m[KeyTotalCitations])
	assert.Equal(t, 1.0, m[KeyFunding])
	assert.Equal(t, 1.0, m["Review"])
}
