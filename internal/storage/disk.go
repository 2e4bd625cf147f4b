package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the value size above which Disk tries compression.
const compressThreshold = 1024

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Disk stores each key in its own file under a directory. Values larger than
// 1 KiB are zstd-compressed when that makes them smaller; compressed files are
// recognized by their frame header, so the compression level can change
// between runs.
type Disk struct {
	dir string

	encoder *zstd.Encoder // nil when compression is off
	decoder *zstd.Decoder

	mu     sync.Mutex
	closed bool
}

// NewDisk opens a disk store in dir, creating it if needed. A
// compressionLevel of 0 disables compression for new writes.
func NewDisk(dir string, compressionLevel int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	d := &Disk{dir: dir}

	var err error
	d.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if compressionLevel > 0 {
		d.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			d.decoder.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	return d, nil
}

// Dir returns the directory the store writes to.
func (d *Disk) Dir() string {
	return d.dir
}

// Get reads the value of key.
func (d *Disk) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	path := d.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		decompressed, err := d.decoder.DecodeAll(data, nil)
		if err != nil {
			// Decompression failed, remove the file
			os.Remove(path)
			return "", fmt.Errorf("%w: %s: %v", ErrCorrupted, key, err)
		}
		data = decompressed
	}

	return string(data), nil
}

// Set writes value under key, replacing any previous value.
func (d *Disk) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	data := []byte(value)
	if d.encoder != nil && len(data) > compressThreshold {
		// Only use compression if it actually reduces size
		if compressed := d.encoder.EncodeAll(data, nil); len(compressed) < len(data) {
			data = compressed
		}
	}

	if err := writeFile(d.path(key), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (d *Disk) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if err := os.Remove(d.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close releases the codecs. Files stay on disk.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	d.decoder.Close()
	if d.encoder != nil {
		return d.encoder.Close()
	}
	return nil
}

func (d *Disk) path(key string) string {
	// Use SHA256 hash of key for filename
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:16])+".cache")
}

func writeFile(path string, data []byte) error {
	// Write to temp file first, then rename (atomic on most systems)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}
