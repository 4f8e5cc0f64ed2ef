package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/fl-bidder/internal/store"
)

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")

	db, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	started := time.Unix(1700000000, 0)
	if err := db.SaveSession(ctx, store.SessionRecord{SessionID: "s1", Name: "main", Status: "stopped", StartedAt: started, BidsPlaced: 1}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if _, err := db.SaveBid(ctx, store.BidRecord{BidID: 9, ProjectID: 42, Amount: 120, Period: 5, SessionID: "s1", Status: store.BidStatusPlaced, PlacedAt: started}); err != nil {
		t.Fatalf("save bid: %v", err)
	}
	if err := db.LogActivity(ctx, store.ActivityEntry{SessionID: "s1", Time: started, Level: store.LevelInfo, Message: "bot started"}); err != nil {
		t.Fatalf("log activity: %v", err)
	}
	db.Close()

	r, err := buildReport(ctx, path, "s1", 10)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(r.Sessions) != 1 || r.Sessions[0].BidsPlaced != 1 {
		t.Fatalf("unexpected sessions: %+v", r.Sessions)
	}
	if len(r.Bids) != 1 || r.Bids[0].ProjectID != 42 {
		t.Fatalf("unexpected bids: %+v", r.Bids)
	}
	if len(r.Activity) != 1 || r.Activity[0].Message != "bot started" {
		t.Fatalf("unexpected activity: %+v", r.Activity)
	}

	all, err := buildReport(ctx, path, "", 10)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if all.Totals.Bids != 1 || all.Totals.Sessions != 1 {
		t.Fatalf("unexpected totals: %+v", all.Totals)
	}

	if _, err := buildReport(ctx, path, "missing", 10); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
