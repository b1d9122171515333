package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const header = "EID,Year,Cited by,Document Type,Funding Details\n"

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestRun_PreservesOrderAndIsolatesErrors(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeCSV(t, dir, "alice.csv", header+"e1,2019,10,Article,x\ne2,2020,8,Article,\n"),
		writeCSV(t, dir, "broken.csv", "EID,Year\ne1,2019\n"),
		writeCSV(t, dir, "bob.csv", header+"e1,2021,1,Review,\ne2,2021,,Review,\n"),
		filepath.Join(dir, "missing.csv"),
	}

	results := Run(context.Background(), paths, Options{CurrentYear: 2024, Concurrency: 2})

	if len(results) != 4 {
		t.Fatalf("Run() returned %d results, want 4", len(results))
	}
	if results[0].Name != "alice" || results[0].Report == nil || results[0].Report.HIndex != 2 {
		t.Errorf("alice = %+v", results[0])
	}
	if results[1].Error == "" || results[1].Report != nil {
		t.Errorf("broken should fail: %+v", results[1])
	}
	if results[2].Report == nil || results[2].Report.Publications != 1 || len(results[2].Dropped) != 1 {
		t.Errorf("bob = %+v", results[2])
	}
	if results[3].Error == "" {
		t.Errorf("missing file should fail: %+v", results[3])
	}
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", header+"e1,2019,10,Article,x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, []string{path, path}, Options{CurrentYear: 2024, Concurrency: 1})
	for i, r := range results {
		if r.Error == "" {
			t.Errorf("result %d should carry the context error: %+v", i, r)
		}
	}
}

func TestRun_Empty(t *testing.T) {
	if got := Run(context.Background(), nil, Options{}); len(got) != 0 {
		t.Errorf("Run(nil) = %v, want empty", got)
	}
}
