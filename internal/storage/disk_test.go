package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskSetGetRemove(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	if _, err := d.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := d.Set(ctx, "k", `{"voices":[]}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := d.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `{"voices":[]}` {
		t.Errorf("Get = %q", got)
	}

	if err := d.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	if got, _ := d.Get(ctx, "k"); got != "second" {
		t.Errorf("Get after overwrite = %q, want %q", got, "second")
	}

	if err := d.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := d.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove of missing key failed: %v", err)
	}
	if _, err := d.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
	}
}

func TestDiskCompressesLargeValues(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d, err := NewDisk(dir, 3)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	value := strings.Repeat(`{"id":"en-US-AriaNeural","name":"Aria"},`, 200)
	if err := d.Set(ctx, "big", value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, err := os.ReadFile(d.path("big"))
	if err != nil {
		t.Fatalf("Failed to read cache file: %v", err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Error("Expected large value to be stored compressed")
	}
	if len(raw) >= len(value) {
		t.Errorf("Compressed size %d not smaller than %d", len(raw), len(value))
	}

	got, err := d.Get(ctx, "big")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != value {
		t.Error("Decompressed value does not match")
	}

	// A store without compression still reads compressed files.
	plain, err := NewDisk(dir, 0)
	if err != nil {
		t.Fatalf("Failed to reopen disk store: %v", err)
	}
	defer plain.Close()
	if got, err := plain.Get(ctx, "big"); err != nil || got != value {
		t.Errorf("Get from uncompressed store = %d bytes, %v", len(got), err)
	}
}

func TestDiskSmallValuesStayPlain(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	if err := d.Set(ctx, "small", "hello"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, err := os.ReadFile(d.path("small"))
	if err != nil {
		t.Fatalf("Failed to read cache file: %v", err)
	}
	if string(raw) != "hello" {
		t.Errorf("File content = %q, want plain %q", raw, "hello")
	}
}

func TestDiskRemovesCorruptFrames(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	bad := append(append([]byte{}, zstdMagic...), []byte("definitely not zstd")...)
	if err := os.WriteFile(d.path("bad"), bad, 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	if _, err := d.Get(ctx, "bad"); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("Get(bad) error = %v, want ErrCorrupted", err)
	}
	if _, err := os.Stat(d.path("bad")); !os.IsNotExist(err) {
		t.Error("Expected corrupt file to be removed")
	}
	if _, err := d.Get(ctx, "bad"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Second Get(bad) error = %v, want ErrNotFound", err)
	}
}

func TestDiskHashesFileNames(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, 0)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	if err := d.Set(context.Background(), "../escape/attempt", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".cache" {
		t.Errorf("Unexpected file name %q", entries[0].Name())
	}
}

func TestDiskClosed(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if err := d.Set(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close error = %v, want ErrClosed", err)
	}
}

func TestDiskHonorsContext(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get with canceled context error = %v", err)
	}
}
