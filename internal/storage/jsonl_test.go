package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/bix/internal/publication"
)

func TestReadAll_NonExistentFile(t *testing.T) {
	recs, err := ReadAll("/nonexistent/path/publications.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(recs) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", recs)
	}
}

func TestReadAll_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.jsonl")
	content := `{"id":"e1","year":2019,"citation_count":4,"document_type":"Article","has_funding":true}` + "\n\n" +
		`{"id":"e2","year":2020,"citation_count":0,"document_type":"Review","has_funding":false}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	recs, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("ReadAll() returned %d records, want 2", len(recs))
	}
	if !recs[0].HasFunding || recs[0].CitationCount != 4 {
		t.Errorf("record 0 = %+v", recs[0])
	}
}

func TestReadAll_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll() should fail on invalid JSON")
	}
}

func TestWriteAll_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.jsonl")
	recs := []publication.Record{
		{ID: "e1", Year: 2019, CitationCount: 4, DocumentType: "Article", HasFunding: true},
		{ID: "e2", Year: 2020, DocumentType: "Review"},
	}

	if err := WriteAll(path, recs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, recs) {
		t.Errorf("ReadAll() = %+v, want %+v", got, recs)
	}
}

func TestMerge(t *testing.T) {
	existing := []publication.Record{
		{ID: "e1", Year: 2019, CitationCount: 4},
		{ID: "e2", Year: 2020, CitationCount: 1},
	}
	incoming := []publication.Record{
		{ID: "e2", Year: 2020, CitationCount: 1},
		{ID: "e1", Year: 2019, CitationCount: 9},
		{ID: "e3", Year: 2021, CitationCount: 0},
	}

	merged, details := Merge(existing, incoming)

	want := []publication.Record{
		{ID: "e1", Year: 2019, CitationCount: 9},
		{ID: "e2", Year: 2020, CitationCount: 1},
		{ID: "e3", Year: 2021, CitationCount: 0},
	}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("Merge() records = %+v, want %+v", merged, want)
	}
	wantDetails := []MergeDetail{
		{ID: "e2", Action: ActionUnchanged},
		{ID: "e1", Action: ActionUpdate},
		{ID: "e3", Action: ActionNew},
	}
	if !reflect.DeepEqual(details, wantDetails) {
		t.Errorf("Merge() details = %+v, want %+v", details, wantDetails)
	}
	if existing[0].CitationCount != 4 {
		t.Error("Merge() must not modify existing")
	}
}
