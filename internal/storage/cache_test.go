package storage

import (
	"path/filepath"
	"testing"
)

func TestMetadataCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenMetadataCache(path)
	if err != nil {
		t.Fatalf("OpenMetadataCache() error = %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get("10.1/x"); err != nil || ok {
		t.Fatalf("Get() on empty cache = (%v, %v)", ok, err)
	}

	if err := c.Put(" 10.1/X ", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put("10.1/x", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}

	body, ok, err := c.Get("10.1/X")
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v)", ok, err)
	}
	if string(body) != `{"a":2}` {
		t.Errorf("Get() body = %s, want latest entry", body)
	}

	n, err := c.Count()
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v; want 1", n, err)
	}

	if err := c.Put("", []byte("ignored")); err != nil {
		t.Errorf("Put(empty doi) error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n, _ := c.Count(); n != 0 {
		t.Errorf("Count() after Clear = %d", n)
	}
}

func TestMetadataCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenMetadataCache(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("10.2/y", []byte("body")); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = OpenMetadataCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok, _ := c.Get("10.2/y"); !ok {
		t.Error("cached entry lost after reopen")
	}
}
