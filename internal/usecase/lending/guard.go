package lending

import (
	"errors"
	"sync"
)

// ErrRequestInFlight rejects a write while an identical one is still running.
var ErrRequestInFlight = errors.New("request is already in progress")

// inflight tracks running writes by (action, party, target). Nothing is
// queued: a duplicate fails immediately.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight { return &inflight{keys: make(map[string]struct{})} }

func (g *inflight) acquire(action, party, target string) (func(), error) {
	k := action + "\x00" + party + "\x00" + target
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[k]; busy {
		return nil, ErrRequestInFlight
	}
	g.keys[k] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.keys, k)
		g.mu.Unlock()
	}, nil
}
