package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

var errNoResponse = errors.New("no response to redirect")

type responseKey struct{}

// withResponse makes w available to a SessionNavigator called with ctx.
func withResponse(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, responseKey{}, w)
}

// SessionNavigator keeps the handoff of the last transition until the
// destination view takes it, and points the browser at the destination with
// an HX-Redirect header.
type SessionNavigator struct {
	mu      sync.Mutex
	pending *workflow.Transition
}

var _ workflow.Navigator = (*SessionNavigator)(nil)

func (n *SessionNavigator) Navigate(ctx context.Context, t workflow.Transition) error {
	if t.Route != workflow.RouteRecipes {
		return fmt.Errorf("unknown route %q", t.Route)
	}
	w, ok := ctx.Value(responseKey{}).(http.ResponseWriter)
	if !ok {
		return errNoResponse
	}

	n.mu.Lock()
	n.pending = &t
	n.mu.Unlock()

	w.Header().Set("HX-Redirect", t.Route)
	return nil
}

// Take returns the pending transition and forgets it, so the handoff is
// seen exactly once.
func (n *SessionNavigator) Take() (workflow.Transition, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return workflow.Transition{}, false
	}
	t := *n.pending
	n.pending = nil
	return t, true
}
