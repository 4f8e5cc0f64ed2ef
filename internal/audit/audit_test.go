package audit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bids.csv")
	log, err := NewBidLog(path)
	if err != nil {
		t.Fatalf("new bid log: %v", err)
	}

	submitted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ProjectID: 1, Title: "Logo", Description: "Needs a logo, \"modern\"\nstyle", Amount: 70, Period: 7, Link: "https://example.com/1", SubmittedAt: submitted},
		{ProjectID: 2, Title: "Site", Amount: 250.456, Period: 5, Link: "https://example.com/2", SubmittedAt: submitted},
	}
	for _, e := range entries {
		if err := log.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "project_id" || rows[0][6] != "submitted_at" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "Needs a logo, \"modern\"\nstyle" {
		t.Fatalf("description must round trip, got %q", rows[1][2])
	}
	if rows[2][3] != "250.46" || rows[2][4] != "5" || rows[2][6] != "2024-05-01T10:00:00Z" {
		t.Fatalf("unexpected row %v", rows[2])
	}
}

func TestAppendConcurrently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bids.csv")
	log, err := NewBidLog(path)
	if err != nil {
		t.Fatalf("new bid log: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := log.Append(Entry{ProjectID: int64(i), Title: "t"}); err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if rows := readRows(t, path); len(rows) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(rows))
	}
}

func TestNewBidLogRequiresPath(t *testing.T) {
	if _, err := NewBidLog(""); err == nil {
		t.Fatal("expected error")
	}
}
