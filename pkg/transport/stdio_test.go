package transport

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioTransportConnectDeliversLines(t *testing.T) {
	in := strings.NewReader("{\"a\":1}\n{\"a\":2}\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)

	var mu sync.Mutex
	var received []string
	done := make(chan struct{}, 2)

	err := tr.Connect(context.Background(), func(msg Message) {
		mu.Lock()
		received = append(received, string(msg))
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for line delivery")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, received)
}

func TestStdioTransportSendWritesNewlineDelimited(t *testing.T) {
	var out bytes.Buffer
	tr := NewStdioTransport(strings.NewReader(""), &out)

	require.NoError(t, tr.Send(context.Background(), []byte(`{"b":1}`)))
	require.NoError(t, tr.Send(context.Background(), []byte(`{"b":2}`)))

	assert.Equal(t, "{\"b\":1}\n{\"b\":2}\n", out.String())
}

func TestStdioTransportCloseGracefullyStopsReadLoop(t *testing.T) {
	in := strings.NewReader("{\"a\":1}\n")
	var out bytes.Buffer
	tr := NewStdioTransport(in, &out)

	require.NoError(t, tr.Connect(context.Background(), func(msg Message) {}))
	require.NoError(t, tr.CloseGracefully(context.Background()))
}
