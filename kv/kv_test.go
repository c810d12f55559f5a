package kv

import (
	"errors"
	"testing"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()

	if err := m.Set("a", []byte("one")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := m.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "one" {
		t.Errorf("Get = %q, want %q", got, "one")
	}
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemory_Overwrite(t *testing.T) {
	m := NewMemory()

	m.Set("a", []byte("one"))
	m.Set("a", []byte("two"))

	got, _ := m.Get("a")
	if string(got) != "two" {
		t.Errorf("Get = %q, want %q", got, "two")
	}
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory()

	m.Set("a", []byte("one"))
	if err := m.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := m.Delete("a"); err != nil {
		t.Errorf("Delete(absent) = %v, want nil", err)
	}
}

func TestMemory_ValueIsolation(t *testing.T) {
	m := NewMemory()

	src := []byte("original")
	m.Set("a", src)
	src[0] = 'X'

	got, _ := m.Get("a")
	if string(got) != "original" {
		t.Errorf("stored value mutated through caller slice: %q", got)
	}

	got[0] = 'Y'
	again, _ := m.Get("a")
	if string(again) != "original" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestBadger_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	b, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer b.Close()

	if err := b.Set("dashboardWidgets", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := b.Get("dashboardWidgets")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Get = %q, want %q", got, `[]`)
	}

	if _, err := b.Get("absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(absent) error = %v, want ErrNotFound", err)
	}
}
