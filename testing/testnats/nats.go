// Package testnats runs event publishing tests against a NATS server container.
package testnats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Server struct {
	URL string
}

// Start launches nats-server for the calling test. Skipped with -short.
func Start(t *testing.T) *Server {
	t.Helper()

	if testing.Short() {
		t.Skip("nats container skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err, "start nats container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate nats container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)

	return &Server{URL: endpoint}
}

// Subscribe collects messages on subject into a buffered channel until the test ends.
func (s *Server) Subscribe(t *testing.T, subject string) <-chan *nats.Msg {
	t.Helper()

	conn, err := nats.Connect(s.URL, nats.Name("labconnect-test"))
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	msgs := make(chan *nats.Msg, 64)
	_, err = conn.ChanSubscribe(subject, msgs)
	require.NoError(t, err, fmt.Sprintf("subscribe %s", subject))
	require.NoError(t, conn.Flush())

	return msgs
}
