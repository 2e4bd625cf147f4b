package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestMemoryBasicOperations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(k) error = %v, want ErrNotFound", err)
	}

	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := m.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("Get(k) = %q, %v", got, err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	if err := m.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
	}
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "a", "1")
	_ = m.Set(ctx, "b", "2")

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", m.Len())
	}
}

func TestOpen(t *testing.T) {
	logger := log.New(io.Discard)

	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{name: "none", cfg: Config{Backend: BackendNone}, wantNil: true},
		{name: "memory", cfg: Config{Backend: BackendMemory}},
		{name: "disk", cfg: Config{Backend: BackendDisk, Dir: filepath.Join(t.TempDir(), "voices")}},
		{name: "unknown", cfg: Config{Backend: "redis"}, wantNil: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(tt.cfg, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open error = %v, wantErr %v", err, tt.wantErr)
			}
			if (st == nil) != tt.wantNil {
				t.Fatalf("Open backend = %v, wantNil %v", st, tt.wantNil)
			}
			if st != nil {
				defer st.Close()
				ctx := context.Background()
				if err := st.Set(ctx, "k", "v"); err != nil {
					t.Errorf("Set failed: %v", err)
				}
				if got, _ := st.Get(ctx, "k"); got != "v" {
					t.Errorf("Get = %q, want %q", got, "v")
				}
			}
		})
	}
}

func TestOpenDiskUnavailable(t *testing.T) {
	// A regular file where the directory should be.
	file := filepath.Join(t.TempDir(), "file")
	if err := writeFile(file, []byte("x")); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	st, err := Open(Config{Backend: BackendDisk, Dir: filepath.Join(file, "sub")}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Open error = %v, want nil", err)
	}
	if st != nil {
		t.Error("Expected nil backend when the directory cannot be created")
	}
}
