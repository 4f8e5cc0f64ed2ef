// Package audit appends one row per placed bid to a CSV file that can be
// opened in any spreadsheet tool.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var header = []string{
	"project_id", "title", "description", "bid_amount", "bid_period", "project_link", "submitted_at",
}

// Entry is a single placed bid.
type Entry struct {
	ProjectID   int64
	Title       string
	Description string
	Amount      float64
	Period      int
	Link        string
	SubmittedAt time.Time
}

// BidLog is an append only CSV file shared by all sessions of a process.
type BidLog struct {
	mu   sync.Mutex
	path string
}

func NewBidLog(path string) (*BidLog, error) {
	if path == "" {
		return nil, errors.New("bid log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bid log directory: %w", err)
	}
	return &BidLog{path: path}, nil
}

func (l *BidLog) Path() string {
	return l.path
}

// Append writes the entry, adding the header when the file is new or empty.
func (l *BidLog) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open bid log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat bid log: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write bid log header: %w", err)
		}
	}

	submitted := e.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	record := []string{
		strconv.FormatInt(e.ProjectID, 10),
		e.Title,
		e.Description,
		strconv.FormatFloat(e.Amount, 'f', 2, 64),
		strconv.Itoa(e.Period),
		e.Link,
		submitted.Format(time.RFC3339),
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write bid log entry: %w", err)
	}

	w.Flush()
	return w.Error()
}
