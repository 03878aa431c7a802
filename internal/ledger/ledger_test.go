package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"alert-trader/internal/config"
	"alert-trader/internal/store"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(config.DatabaseConfig{
		InMemory:     true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewSQLiteStore(st, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func sampleEntry(id int64) Entry {
	return Entry{
		LocalID:   id,
		Timestamp: time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC),
		LegRole:   "entry",
		Side:      "BUY",
		Product:   "SOL-PERP-INTX",
		Size:      "1.5",
		Status:    "executed",
	}
}

func TestStoreIDSequence(t *testing.T) {
	stores := map[string]Store{
		"file":   newFileStore(t),
		"sqlite": newSQLiteStore(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.NextID(ctx)
			if err != nil {
				t.Fatalf("NextID returned error: %v", err)
			}
			if id != FirstID {
				t.Fatalf("empty ledger NextID = %d, want %d", id, FirstID)
			}

			// NextID stays stable until a row is appended
			again, err := s.NextID(ctx)
			if err != nil {
				t.Fatalf("NextID returned error: %v", err)
			}
			if again != FirstID {
				t.Fatalf("repeated NextID = %d, want %d", again, FirstID)
			}

			for i := 0; i < 5; i++ {
				id, err := s.NextID(ctx)
				if err != nil {
					t.Fatalf("NextID returned error: %v", err)
				}
				want := int64(FirstID + i)
				if id != want {
					t.Fatalf("iteration %d NextID = %d, want %d", i, id, want)
				}
				if err := s.Append(ctx, sampleEntry(id)); err != nil {
					t.Fatalf("Append returned error: %v", err)
				}
			}
		})
	}
}

func TestStoreAppendAndRecent(t *testing.T) {
	stores := map[string]Store{
		"file":   newFileStore(t),
		"sqlite": newSQLiteStore(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			entry := sampleEntry(FirstID)
			entry.AvgFilledPrice = "100.25"
			entry.VenueOrderID = "venue-abc"
			if err := s.Append(ctx, entry); err != nil {
				t.Fatalf("Append returned error: %v", err)
			}

			exit := sampleEntry(FirstID + 1)
			exit.LegRole = "stop_loss"
			exit.Side = "SELL"
			exit.Status = "failed_PREVIEW_INSUFFICIENT_FUND"
			if err := s.Append(ctx, exit); err != nil {
				t.Fatalf("Append returned error: %v", err)
			}

			recent, err := s.Recent(ctx, 10)
			if err != nil {
				t.Fatalf("Recent returned error: %v", err)
			}
			if len(recent) != 2 {
				t.Fatalf("Recent returned %d entries, want 2", len(recent))
			}
			if recent[0].LocalID != FirstID+1 || recent[1].LocalID != FirstID {
				t.Fatalf("Recent order wrong: %d, %d", recent[0].LocalID, recent[1].LocalID)
			}
			if recent[1].AvgFilledPrice != "100.25" || recent[1].VenueOrderID != "venue-abc" {
				t.Fatalf("missing fields: %+v", recent[1])
			}
			if recent[0].Status != "failed_PREVIEW_INSUFFICIENT_FUND" {
				t.Fatalf("unexpected status: %s", recent[0].Status)
			}

			one, err := s.Recent(ctx, 1)
			if err != nil {
				t.Fatalf("Recent returned error: %v", err)
			}
			if len(one) != 1 || one[0].LocalID != FirstID+1 {
				t.Fatalf("limit not applied: %+v", one)
			}
		})
	}
}

func TestFileStoreRowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	entry := sampleEntry(1001)
	entry.AvgFilledPrice = "100.25"
	entry.VenueOrderID = "venue-abc"
	if err := s.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	want := "1001,2026-08-23T10:30:00Z,entry,BUY,SOL-PERP-INTX,1.5,executed,100.25,venue-abc\n"
	if string(raw) != want {
		t.Fatalf("row format mismatch\ngot:  %q\nwant: %q", raw, want)
	}
}

func TestFileStoreNextIDFromExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	lines := []string{
		"1001,2026-08-23T10:30:00Z,entry,BUY,SOL-PERP-INTX,1.5,executed,100.25,venue-abc",
		"1002,2026-08-23T10:30:05Z,stop_loss,SELL,SOL-PERP-INTX,1.5,executed,,venue-def",
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	id, err := s.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID returned error: %v", err)
	}
	if id != 1003 {
		t.Fatalf("NextID = %d, want 1003", id)
	}
}

func TestFileStoreNextIDFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	line := "7,2026-08-23T10:30:00Z,entry,BUY,SOL-PERP-INTX,1.5,executed,,\n"
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	id, err := s.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID returned error: %v", err)
	}
	if id != FirstID {
		t.Fatalf("NextID = %d, want reset to %d", id, FirstID)
	}
}

func TestFileStoreManyAppends(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		id, err := s.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID returned error: %v", err)
		}
		entry := sampleEntry(id)
		entry.VenueOrderID = fmt.Sprintf("venue-%d", id)
		if err := s.Append(ctx, entry); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	next, err := s.NextID(ctx)
	if err != nil {
		t.Fatalf("NextID returned error: %v", err)
	}
	if next != FirstID+n {
		t.Fatalf("NextID = %d, want %d", next, FirstID+n)
	}
}

func TestFileStoreNextIDNonNumericLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	line := "abc,2026-08-23T10:30:00Z,entry,BUY,SOL-PERP-INTX,1.5,executed,,\n"
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	id, err := s.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != FirstID {
		t.Fatalf("NextID=%d, want fallback to %d", id, FirstID)
	}
}

func TestFileStoreNextIDMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_ledger.csv")
	if err := os.WriteFile(path, []byte("not,a,ledger\n"), 0o644); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	s, err := NewFileStore(path, nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	id, err := s.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if id != FirstID {
		t.Fatalf("NextID=%d, want fallback to %d", id, FirstID)
	}
}
