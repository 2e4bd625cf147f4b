package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATS stores values in a JetStream key/value bucket. Keys are used verbatim,
// so they must be valid JetStream KV keys.
type NATS struct {
	bucket string
	kv     nats.KeyValue
	conn   *nats.Conn // owned connection, closed by Close; nil if borrowed
}

// NewNATS binds to bucket, creating it with a history of one if it does not
// exist yet. The caller keeps ownership of the JetStream connection.
func NewNATS(js nats.JetStreamContext, bucket string) (*NATS, error) {
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "prosodify voice catalog cache",
			History:     1,
			Storage:     nats.FileStorage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to bind key/value bucket %q: %w", bucket, err)
	}

	return &NATS{bucket: bucket, kv: kv}, nil
}

// DialNATS connects to url and binds to bucket. Close also closes the
// connection.
func DialNATS(url, bucket string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("prosodify"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	n, err := NewNATS(js, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// Get returns the latest value of key.
func (n *NATS) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry, err := n.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get %q from bucket %q: %w", key, n.bucket, err)
	}
	return string(entry.Value()), nil
}

// Set puts value under key.
func (n *NATS) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.kv.PutString(key, value); err != nil {
		return fmt.Errorf("failed to put %q to bucket %q: %w", key, n.bucket, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (n *NATS) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %q from bucket %q: %w", key, n.bucket, err)
	}
	return nil
}

// Close closes the connection if the store owns it.
func (n *NATS) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
