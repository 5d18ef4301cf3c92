package main

import (
	"fmt"
	"sync"

	"github.com/askjimmy/go-client/internal/game"
)

var pageBanners = map[game.Page]string{
	game.PageEntry:           "Entry: create or join a lobby",
	game.PageHostSetup:       "Host setup: 'start' when everyone is in",
	game.PageHostGame:        "Host game: 'who' and 'log' to watch the table",
	game.PageWaitingRoom:     "Waiting room: hang tight for the host",
	game.PageParticipantGame: "Game on: 'ask' questions, 'guess' the concept",
}

// termNav renders navigation as page banners and remembers the current page.
type termNav struct {
	mu      sync.Mutex
	current game.Page
	changes chan struct{}
}

func newTermNav() *termNav {
	return &termNav{current: game.PageEntry, changes: make(chan struct{}, 1)}
}

func (n *termNav) NavigateTo(p game.Page) {
	n.mu.Lock()
	if n.current == p {
		n.mu.Unlock()
		return
	}
	n.current = p
	n.mu.Unlock()

	fmt.Printf("\n== %s ==\n%s\n", p, pageBanners[p])
	select {
	case n.changes <- struct{}{}:
	default:
	}
}

func (n *termNav) Current() game.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Changes signals after each navigation; signals coalesce.
func (n *termNav) Changes() <-chan struct{} { return n.changes }
