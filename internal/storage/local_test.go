package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	if _, err := s.Get(ctx, "abc.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Get missing: want ErrObjectNotFound, got %v", err)
	}
	if err := s.Put(ctx, "abc.png", []byte("data"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "abc.png")
	if err != nil || string(got) != "data" {
		t.Fatalf("Get: %q, %v", got, err)
	}
	if err := s.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "abc.png"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if _, err := s.Get(ctx, "abc.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../etc/passwd", "a/b.png", "", ".."} {
		if err := s.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Errorf("Put(%q) accepted", key)
		}
	}
}
