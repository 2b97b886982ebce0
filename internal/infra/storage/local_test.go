package storage

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()
	key := "diagrams/p1/2025/06/abc.pdf"

	url, err := store.Put(ctx, key, strings.NewReader("%PDF-1.4 fake"), 13, "application/pdf")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("unexpected url: %s", url)
	}

	path, cleanup, err := store.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer cleanup()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fetched file: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Fatalf("content mismatch: %q", data)
	}

	signed, err := store.Presign(ctx, key, 0)
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if signed != url {
		t.Fatalf("presign url mismatch: %s != %s", signed, url)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, _, err := store.Fetch(ctx, key); err == nil {
		t.Fatal("expected Fetch to fail after Remove")
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Put(ctx, "../outside.pdf", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if _, err := store.Put(ctx, "/etc/passwd", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
}
