package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitActionDeliversReply(t *testing.T) {
	r, _ := newTestRoom(t, testConfig())
	sid, err := r.Join(context.Background(), uuid.New())
	require.NoError(t, err)

	got := make(chan Action, 1)
	go func() {
		r.mu.Lock()
		a, err := r.awaitAction(sid)
		r.mu.Unlock()
		if err == nil {
			got <- a
		}
	}()

	waitForPending(t, r, sid)

	bet := 25
	r.ResolvePrompt(sid, Action{Action: "stand", Bet: &bet})

	select {
	case a := <-got:
		assert.Equal(t, "stand", a.Action)
		require.NotNil(t, a.Bet)
		assert.Equal(t, 25, *a.Bet)
	case <-time.After(time.Second):
		t.Fatal("awaitAction never returned")
	}
}

func TestAwaitActionRejectsDuplicateListener(t *testing.T) {
	r, _ := newTestRoom(t, testConfig())
	sid, err := r.Join(context.Background(), uuid.New())
	require.NoError(t, err)

	go func() {
		r.mu.Lock()
		r.awaitAction(sid) //nolint:errcheck
		r.mu.Unlock()
	}()
	waitForPending(t, r, sid)

	r.mu.Lock()
	_, err = r.awaitAction(sid)
	r.mu.Unlock()
	assert.ErrorIs(t, err, ErrDuplicateListener)

	r.ResolvePrompt(sid, Action{Action: "stand"})
}

func TestResolvePromptWithoutListenerIsIgnored(t *testing.T) {
	r, _ := newTestRoom(t, testConfig())
	sid, err := r.Join(context.Background(), uuid.New())
	require.NoError(t, err)

	// A stale reply must not panic or register anything.
	r.ResolvePrompt(sid, Action{Action: "stand"})

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.pending)
}

func TestAwaitActionUnblocksOnDestroy(t *testing.T) {
	r, _ := newTestRoom(t, testConfig())
	sid, err := r.Join(context.Background(), uuid.New())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		r.mu.Lock()
		_, err := r.awaitAction(sid)
		r.mu.Unlock()
		errCh <- err
	}()
	waitForPending(t, r, sid)

	r.Destroy()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("awaitAction survived room destruction")
	}
}

func TestResumeGameRevalidatesFunding(t *testing.T) {
	r, tr := newTestRoom(t, testConfig())
	owner, other := joinTwo(t, r)

	r.DispatchAdmin(owner, AdminMessage{Command: CmdSetStash, SessionID: owner, Amount: 100})
	r.DispatchAdmin(owner, AdminMessage{Command: CmdSetStash, SessionID: other, Amount: 100})
	r.DispatchAdmin(owner, AdminMessage{Command: CmdAssignSeat, SessionID: owner})
	r.DispatchAdmin(owner, AdminMessage{Command: CmdAssignSeat, SessionID: other})

	r.mu.Lock()
	r.state.Paused = true
	r.state.Players[other].Stash = 5
	r.mu.Unlock()

	// Resume with an underfunded seat keeps the pause in place.
	r.ResumeGame(owner)
	r.mu.Lock()
	paused := r.state.Paused
	r.mu.Unlock()
	assert.True(t, paused)
	assert.Contains(t, tr.broadcastTypes(), "notification")

	r.DispatchAdmin(owner, AdminMessage{Command: CmdSetStash, SessionID: other, Amount: 100})
	r.ResumeGame(owner)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.False(t, r.state.Paused)
}

// waitForPending blocks until a prompt listener is registered for the
// session.
func waitForPending(t *testing.T, r *Room, sid uuid.UUID) {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, ok := r.pending[sid]
		return ok
	}, time.Second, time.Millisecond)
}
