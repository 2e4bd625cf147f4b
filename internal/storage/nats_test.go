package storage_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/prosodify/prosodify/internal/storage"
)

// startTestServer starts an in-process JetStream-enabled NATS server.
func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	conn, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		natsServer.Shutdown()
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, conn
}

func TestNATSSetGetRemove(t *testing.T) {
	t.Parallel()

	natsServer, conn := startTestServer(t)
	defer natsServer.Shutdown()
	defer conn.Close()

	js, err := conn.JetStream()
	require.NoError(t, err)

	st, err := storage.NewNATS(js, "voices")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = st.Get(ctx, "prosodify_voices_cache")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.Set(ctx, "prosodify_voices_cache", `{"version":"1.1"}`))
	got, err := st.Get(ctx, "prosodify_voices_cache")
	require.NoError(t, err)
	require.Equal(t, `{"version":"1.1"}`, got)

	require.NoError(t, st.Remove(ctx, "prosodify_voices_cache"))
	_, err = st.Get(ctx, "prosodify_voices_cache")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.Close())
}

func TestNATSBindsExistingBucket(t *testing.T) {
	t.Parallel()

	natsServer, conn := startTestServer(t)
	defer natsServer.Shutdown()
	defer conn.Close()

	js, err := conn.JetStream()
	require.NoError(t, err)

	first, err := storage.NewNATS(js, "shared")
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "k", "v"))

	second, err := storage.NewNATS(js, "shared")
	require.NoError(t, err)
	got, err := second.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestOpenNATS(t *testing.T) {
	t.Parallel()

	natsServer, conn := startTestServer(t)
	defer natsServer.Shutdown()
	conn.Close()

	st, err := storage.Open(storage.Config{
		Backend:    storage.BackendNATS,
		NATSURL:    natsServer.ClientURL(),
		NATSBucket: "opened",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close()

	require.NoError(t, st.Set(context.Background(), "k", "v"))
}
