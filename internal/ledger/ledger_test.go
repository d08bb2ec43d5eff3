package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	if err := l.Init(context.Background()); err != nil {
		t.Fatalf("init ledger: %v", err)
	}
	return l
}

func TestLookupMiss(t *testing.T) {
	l := openTestLedger(t)
	_, ok, err := l.Lookup(context.Background(), "never-imported")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected miss for unknown slug")
	}
}

func TestRecordAndLookup(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	err := l.Record(ctx, Entry{Slug: "my-article", PageID: "page-1", Title: "My Article", Highlights: 3})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	pageID, ok, err := l.Lookup(ctx, "my-article")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || pageID != "page-1" {
		t.Fatalf("got %q, %v", pageID, ok)
	}
}

func TestRecordOverwrites(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.Record(ctx, Entry{Slug: "a", PageID: "old"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Record(ctx, Entry{Slug: "a", PageID: "new"}); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	pageID, ok, err := l.Lookup(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("lookup: %q, %v, %v", pageID, ok, err)
	}
	if pageID != "new" {
		t.Fatalf("expected overwrite, got %q", pageID)
	}
	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}

func TestCount(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, slug := range []string{"one", "two", "three"} {
		if err := l.Record(ctx, Entry{Slug: slug, PageID: "p-" + slug}); err != nil {
			t.Fatalf("record %s: %v", slug, err)
		}
	}
	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 entries, got %d", n)
	}
}

func TestInitIdempotent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.Record(ctx, Entry{Slug: "kept", PageID: "p1"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Init(ctx); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	_, ok, err := l.Lookup(ctx, "kept")
	if err != nil || !ok {
		t.Fatalf("re-init must keep entries at the same schema version")
	}
}
