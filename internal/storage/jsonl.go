// Package storage handles publication persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/bix/internal/publication"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Import actions reported by Merge.
const (
	ActionNew       = "new"
	ActionUpdate    = "update"
	ActionUnchanged = "unchanged"
)

// MergeDetail describes what Merge did with one incoming record.
type MergeDetail struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// ReadAll reads all publication records from a JSONL file.
func ReadAll(path string) ([]publication.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening publications file: %w", err)
	}
	defer f.Close()

	var recs []publication.Record
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec publication.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		recs = append(recs, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading publications file: %w", err)
	}

	return recs, nil
}

// WriteAll writes all records to a JSONL file, replacing existing content.
func WriteAll(path string, recs []publication.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating publications file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing publications file: %w", err)
	}
	return nil
}

// FindByID searches for a record by ID.
func FindByID(recs []publication.Record, id string) (int, bool) {
	for i, rec := range recs {
		if rec.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Merge folds incoming records into existing ones keyed by ID. An incoming
// record replaces an existing record with the same ID; later duplicates
// within incoming win. existing is not modified.
func Merge(existing, incoming []publication.Record) ([]publication.Record, []MergeDetail) {
	merged := make([]publication.Record, len(existing))
	copy(merged, existing)

	details := make([]MergeDetail, 0, len(incoming))
	for _, rec := range incoming {
		idx, found := FindByID(merged, rec.ID)
		switch {
		case !found:
			merged = append(merged, rec)
			details = append(details, MergeDetail{ID: rec.ID, Action: ActionNew})
		case merged[idx] == rec:
			details = append(details, MergeDetail{ID: rec.ID, Action: ActionUnchanged})
		default:
			merged[idx] = rec
			details = append(details, MergeDetail{ID: rec.ID, Action: ActionUpdate})
		}
	}
	return merged, details
}
