package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/session"
)

// subscriptions tracks, per session, which resource URIs it has asked to
// be notified about via resources/subscribe.
type subscriptions struct {
	mu   sync.Mutex
	byID map[string]map[string]struct{} // sessionID -> set of URIs
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byID: make(map[string]map[string]struct{})}
}

func (s *subscriptions) add(sessionID, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byID[sessionID]
	if !ok {
		set = make(map[string]struct{})
		s.byID[sessionID] = set
	}
	set[uri] = struct{}{}
}

func (s *subscriptions) remove(sessionID, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.byID[sessionID]; ok {
		delete(set, uri)
	}
}

func (s *subscriptions) subscribers(uri string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id, set := range s.byID {
		if _, ok := set[uri]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Server) handleResourcesSubscribe(sess *session.Session) session.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var req protocol.SubscribeParams
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, err
		}
		s.subs.add(sess.ID(), req.URI)
		return protocol.EmptyResult{}, nil
	}
}

func (s *Server) handleResourcesUnsubscribe(sess *session.Session) session.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var req protocol.UnsubscribeParams
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, err
		}
		s.subs.remove(sess.ID(), req.URI)
		return protocol.EmptyResult{}, nil
	}
}

// NotifyResourceUpdated sends notifications/resources/updated to every
// session subscribed to uri. sessions maps a session id back to the live
// *session.Session that can reach it; callers (typically the resource
// registry's write path) own that bookkeeping.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string, sessions map[string]*session.Session) {
	for _, id := range s.subs.subscribers(uri) {
		sess, ok := sessions[id]
		if !ok {
			continue
		}
		if err := sess.SendNotification(ctx, string(protocol.NotificationResourceUpdated), protocol.ResourceUpdatedParams{URI: uri}); err != nil {
			continue
		}
	}
}
