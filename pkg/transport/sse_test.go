package transport

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSSEServerTransportHandshakeAndMessage exercises the handler wiring
// directly (mux.HandleFunc targets) rather than calling Serve, since Serve
// binds a real listener via http.Server.ListenAndServe.
func TestSSEServerTransportHandshakeAndMessage(t *testing.T) {
	tr := NewSSEServerTransport(":0", "")

	var gotSessionID string
	var gotTransport Transport
	onSession := func(sessionID string, t Transport) {
		gotSessionID = sessionID
		gotTransport = t
	}

	mux := http.NewServeMux()
	mux.HandleFunc(tr.ssePath, func(w http.ResponseWriter, r *http.Request) {
		tr.handleSSE(w, r, onSession)
	})
	mux.HandleFunc(tr.messagePath, tr.handleMessage)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: endpoint\n", line)

	idLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "id: 0\n", idLine)

	dataLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataLine, "data: "))
	assert.Contains(t, dataLine, "sessionId=")

	require.NotEmpty(t, gotSessionID)
	require.NotNil(t, gotTransport)

	var receivedHandlerCalled bool
	tr.RegisterHandler(gotSessionID, func(msg Message) { receivedHandlerCalled = true })

	postReq, err := http.NewRequest(http.MethodPost, srv.URL+"/message?sessionId="+gotSessionID, strings.NewReader(`{"jsonrpc":"2.0","method":"ping"}`))
	require.NoError(t, err)
	postResp, err := http.DefaultClient.Do(postReq)
	require.NoError(t, err)
	defer postResp.Body.Close()
	assert.Equal(t, http.StatusAccepted, postResp.StatusCode)
	assert.True(t, receivedHandlerCalled)
}

func TestSSEServerTransportMessageUnknownSession(t *testing.T) {
	tr := NewSSEServerTransport(":0", "")
	mux := http.NewServeMux()
	mux.HandleFunc(tr.messagePath, tr.handleMessage)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/message?sessionId=nope", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
