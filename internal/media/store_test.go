package media

import "testing"

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	if store.Exists("msg-1") {
		t.Error("Exists reported true for an unstored message")
	}

	if err := store.Put("msg-1", []byte("attachment bytes"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if !store.Exists("msg-1") {
		t.Error("Exists reported false after Put")
	}

	data, err := store.Get("msg-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "attachment bytes" {
		t.Errorf("Get = %q, expected the stored bytes", data)
	}
}

func TestDiskStoreGetMissing(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := store.Get("absent"); err == nil {
		t.Error("expected error for a missing attachment")
	}
}
