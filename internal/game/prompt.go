package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrDuplicateListener is returned when a prompt listener is registered
// for a session that already has one pending. The loop never holds two
// prompts for one player, so a duplicate is a bug worth surfacing rather
// than a continuation worth replacing.
var ErrDuplicateListener = errors.New("game: prompt listener already pending for session")

// awaitAction suspends the calling goroutine until the prompted player
// answers. The room lock must be held on entry; it is released for the
// duration of the wait and re-acquired before returning, so the room keeps
// servicing commands and other prompts meanwhile. There is no timeout:
// waiting on a human is the accepted behavior.
func (r *Room) awaitAction(sessionID uuid.UUID) (Action, error) {
	if _, dup := r.pending[sessionID]; dup {
		return Action{}, ErrDuplicateListener
	}
	ch := make(chan Action, 1)
	r.pending[sessionID] = ch
	r.syncStateLocked()

	r.mu.Unlock()
	defer r.mu.Lock()
	select {
	case a := <-ch:
		return a, nil
	case <-r.ctx.Done():
		return Action{}, r.ctx.Err()
	}
}

// ResolvePrompt delivers a "resolve-prompt" message. Replies from sessions
// with no pending listener are a race between a stale client and a new
// prompt, so they are ignored, not errors.
func (r *Room) ResolvePrompt(sessionID uuid.UUID, a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.pending[sessionID]
	if !ok {
		r.logf("ignoring resolve-prompt from %s: no pending prompt", sessionID)
		return
	}
	delete(r.pending, sessionID)
	ch <- a
}

// ResumeGame handles a "resume-game" message for the admission gate. It
// re-validates that every seated player meets the funding threshold before
// clearing the pause and waking the suspended loop.
func (r *Room) ResumeGame(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Paused {
		return
	}
	if len(r.poorPlayersLocked()) > 0 {
		r.notifyAllLocked(NotifyWarning,
			fmt.Sprintf("Everyone at the table needs at least %d to resume the game", r.state.MinimumBet*2))
		return
	}
	r.state.Paused = false
	r.logf("game resumed by %s", sessionID)
	for _, ch := range r.resumers {
		close(ch)
	}
	r.resumers = nil
	r.syncStateLocked()
}

// waitUntilFunded is the admission gate: while any seated player's stash
// is under twice the minimum bet the loop pauses here until a validated
// resume arrives. Lock held on entry and exit.
func (r *Room) waitUntilFunded() error {
	for {
		poor := r.poorPlayersLocked()
		if len(poor) == 0 {
			return nil
		}
		if !r.state.Paused {
			r.state.Paused = true
			for _, p := range poor {
				r.notifyAllLocked(NotifyWarning, p.DisplayName+" does not have enough to keep playing")
			}
			r.syncStateLocked()
		}
		ch := make(chan struct{})
		r.resumers = append(r.resumers, ch)

		r.mu.Unlock()
		select {
		case <-ch:
			r.mu.Lock()
		case <-r.ctx.Done():
			r.mu.Lock()
			return r.ctx.Err()
		}
	}
}

func (r *Room) poorPlayersLocked() []*playerRef {
	var poor []*playerRef
	for _, p := range r.seatedPlayersLocked() {
		if p.Stash < r.state.MinimumBet*2 {
			poor = append(poor, &playerRef{SessionID: p.SessionID, DisplayName: p.DisplayName})
		}
	}
	return poor
}

// playerRef is a detached name/id pair safe to use after the lock drops.
type playerRef struct {
	SessionID   uuid.UUID
	DisplayName string
}
