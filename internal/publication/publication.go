// Package publication defines the core domain types for a researcher's
// publication record.
package publication

import (
	"errors"
	"fmt"
	"sort"
)

// Record represents one publication row of a citation dataset.
type Record struct {
	ID            string `json:"id"`   // Opaque unique identifier (Scopus EID)
	Year          int    `json:"year"` // Publication year
	CitationCount int    `json:"citation_count"`
	DocumentType  string `json:"document_type"` // Article, Review, Conference Paper, ...
	HasFunding    bool   `json:"has_funding"`
}

// ErrDuplicateID is returned when two records share an ID.
var ErrDuplicateID = errors.New("duplicate publication id")

// ErrNegativeCitations is returned for a record with a negative citation count.
var ErrNegativeCitations = errors.New("negative citation count")

// ErrCitationsOutOfRange is returned for a citation count above MaxCitationCount.
var ErrCitationsOutOfRange = errors.New("citation count out of range")

// MaxCitationCount bounds a single record's citation count so that dataset
// totals and squared sums cannot overflow.
const MaxCitationCount = 1<<31 - 1

// Dataset is an ordered collection of records, unique by ID.
// A Dataset is never mutated after construction; accessors return copies.
type Dataset struct {
	records []Record
}

// NewDataset validates records and returns a Dataset holding a copy of them.
func NewDataset(records []Record) (*Dataset, error) {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		if r.CitationCount < 0 {
			return nil, fmt.Errorf("record %d (%s): %w", i+1, r.ID, ErrNegativeCitations)
		}
		if r.CitationCount > MaxCitationCount {
			return nil, fmt.Errorf("record %d (%s): %w", i+1, r.ID, ErrCitationsOutOfRange)
		}
	}

	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{records: cp}, nil
}

// Len returns the number of publications.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a copy of the records in dataset order.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// CitationCounts returns one citation count per record, in dataset order.
func (d *Dataset) CitationCounts() []int {
	if d == nil {
		return nil
	}
	counts := make([]int, len(d.records))
	for i, r := range d.records {
		counts[i] = r.CitationCount
	}
	return counts
}

// TotalCitations returns the sum of all citation counts.
func (d *Dataset) TotalCitations() int {
	total := 0
	if d == nil {
		return total
	}
	for _, r := range d.records {
		total += r.CitationCount
	}
	return total
}

// ByYear groups citation counts by publication year.
func (d *Dataset) ByYear() map[int][]int {
	byYear := make(map[int][]int)
	if d == nil {
		return byYear
	}
	for _, r := range d.records {
		byYear[r.Year] = append(byYear[r.Year], r.CitationCount)
	}
	return byYear
}

// Years returns the distinct publication years in ascending order.
func (d *Dataset) Years() []int {
	byYear := d.ByYear()
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// EarliestYear returns the earliest publication year.
// The boolean is false when the dataset is empty.
func (d *Dataset) EarliestYear() (int, bool) {
	if d.Len() == 0 {
		return 0, false
	}
	earliest := d.records[0].Year
	for _, r := range d.records[1:] {
		if r.Year < earliest {
			earliest = r.Year
		}
	}
	return earliest, true
}

// DocumentTypeCounts counts occurrences of each document type.
// Records with an empty document type are not counted.
func (d *Dataset) DocumentTypeCounts() map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, r := range d.records {
		if r.DocumentType == "" {
			continue
		}
		counts[r.DocumentType]++
	}
	return counts
}

// FundedCount returns the number of records with funding details.
func (d *Dataset) FundedCount() int {
	n := 0
	if d == nil {
		return n
	}
	for _, r := range d.records {
		if r.HasFunding {
			n++
		}
	}
	return n
}
