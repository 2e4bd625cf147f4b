package storage

import (
	"fmt"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// Config selects and configures a backend.
type Config struct {
	Backend          string // disk, memory, nats or none
	Dir              string // disk only; DefaultDir when empty
	CompressionLevel int    // disk only; 0 disables compression
	NATSURL          string
	NATSBucket       string
}

// DefaultDir returns the per-user cache directory for prosodify.
func DefaultDir() (string, error) {
	return gap.NewScope(gap.User, "prosodify").CacheDir()
}

// Open builds the backend named by cfg.Backend.
//
// It returns a nil Backend and no error for "none", and also when the disk
// directory cannot be created: the voice cache then runs memory-only. NATS
// connection failures are returned.
func Open(cfg Config, logger *log.Logger) (Backend, error) {
	if logger == nil {
		logger = log.Default().WithPrefix("storage")
	}

	switch cfg.Backend {
	case BackendNone:
		logger.Debug("Durable storage disabled")
		return nil, nil

	case BackendMemory:
		return NewMemory(), nil

	case BackendNATS:
		st, err := DialNATS(cfg.NATSURL, cfg.NATSBucket)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using NATS storage", "url", cfg.NATSURL, "bucket", cfg.NATSBucket)
		return st, nil

	case BackendDisk, "":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = DefaultDir(); err != nil {
				logger.Warn("No cache directory, storage unavailable", "err", err)
				return nil, nil
			}
		}
		st, err := NewDisk(dir, cfg.CompressionLevel)
		if err != nil {
			logger.Warn("Disk storage unavailable", "dir", dir, "err", err)
			return nil, nil
		}
		logger.Debug("Using disk storage", "dir", dir)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
