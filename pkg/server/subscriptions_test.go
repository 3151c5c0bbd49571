package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeUnsubscribeTracksURIsPerSession(t *testing.T) {
	subs := newSubscriptions()
	subs.add("sess-1", "mcp://docs/overview")
	subs.add("sess-2", "mcp://docs/overview")

	assert.ElementsMatch(t, []string{"sess-1", "sess-2"}, subs.subscribers("mcp://docs/overview"))

	subs.remove("sess-1", "mcp://docs/overview")
	assert.Equal(t, []string{"sess-2"}, subs.subscribers("mcp://docs/overview"))
}

func TestHandleResourcesSubscribeAddsSubscription(t *testing.T) {
	s := New("test", "1.0")
	sess := newTestSession()

	params, _ := json.Marshal(protocol.SubscribeParams{URI: "mcp://docs/overview"})
	_, err := s.handleResourcesSubscribe(sess)(context.Background(), params)
	require.NoError(t, err)

	assert.Contains(t, s.subs.subscribers("mcp://docs/overview"), sess.ID())

	unsubParams, _ := json.Marshal(protocol.UnsubscribeParams{URI: "mcp://docs/overview"})
	_, err = s.handleResourcesUnsubscribe(sess)(context.Background(), unsubParams)
	require.NoError(t, err)
	assert.NotContains(t, s.subs.subscribers("mcp://docs/overview"), sess.ID())
}

func TestNotifyResourceUpdatedSkipsUnknownSessions(t *testing.T) {
	s := New("test", "1.0")
	s.subs.add("ghost-session", "mcp://docs/overview")

	// No live session is registered for "ghost-session"; NotifyResourceUpdated
	// must skip it rather than panic on a nil map lookup.
	s.NotifyResourceUpdated(context.Background(), "mcp://docs/overview", map[string]*session.Session{})
}
