package apitest

import (
	"sync"

	"github.com/askjimmy/go-client/internal/game"
)

// NavRecorder is a Navigator that records every navigation for assertions.
type NavRecorder struct {
	mu    sync.Mutex
	pages []game.Page
}

func (n *NavRecorder) NavigateTo(p game.Page) {
	n.mu.Lock()
	n.pages = append(n.pages, p)
	n.mu.Unlock()
}

// Pages returns the navigations seen so far, in order.
func (n *NavRecorder) Pages() []game.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]game.Page(nil), n.pages...)
}

// Last returns the most recent navigation, or "" when none happened.
func (n *NavRecorder) Last() game.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pages) == 0 {
		return ""
	}
	return n.pages[len(n.pages)-1]
}
