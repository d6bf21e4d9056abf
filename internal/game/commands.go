package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/domtes/chemmazz/internal/models"
)

// Admin command kinds. The set is closed; anything else is logged and
// dropped.
const (
	CmdSetStash        = "set-stash"
	CmdAddToStash      = "add-to-stash"
	CmdRemoveFromStash = "remove-from-stash"
	CmdAssignSeat      = "assign-seat"
	CmdGiveOwnership   = "give-ownership"
	CmdStartGame       = "start-game"
	CmdPauseGame       = "pause-game"
)

// AdminMessage is the payload of an inbound "admin" message.
type AdminMessage struct {
	Command   string    `json:"command"`
	SessionID uuid.UUID `json:"sessionId"`
	Amount    int       `json:"amount"`
}

// DispatchAdmin runs one admin command synchronously under the room lock,
// so a command never observes a torn game-loop mutation. The ownership
// check is hoisted once, before the dispatch: start-game and pause-game
// are open to any player, everything else needs the room owner and is
// silently dropped otherwise.
func (r *Room) DispatchAdmin(actor uuid.UUID, msg AdminMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acting, ok := r.state.Players[actor]
	if !ok {
		r.logf("admin command %q from unknown session %s", msg.Command, actor)
		return
	}
	if msg.Command != CmdStartGame && msg.Command != CmdPauseGame && acting.ID != r.state.RoomOwner {
		r.logf("dropping admin command %q from non-owner %s", msg.Command, acting.DisplayName)
		return
	}
	r.logAction(actor, "admin_"+msg.Command, map[string]interface{}{
		"target": msg.SessionID,
		"amount": msg.Amount,
	})

	switch msg.Command {
	case CmdSetStash:
		r.setStashLocked(acting, msg.SessionID, msg.Amount)
	case CmdAddToStash:
		r.addToStashLocked(acting, msg.SessionID, msg.Amount)
	case CmdRemoveFromStash:
		r.removeFromStashLocked(acting, msg.SessionID, msg.Amount)
	case CmdAssignSeat:
		r.assignSeatLocked(msg.SessionID)
	case CmdGiveOwnership:
		r.giveOwnershipLocked(msg.SessionID)
	case CmdStartGame:
		r.startGameLocked(actor)
	case CmdPauseGame:
		r.state.Running = false
		r.logf("game paused by %s", acting.DisplayName)
	default:
		r.logf("unknown admin command %q from %s", msg.Command, acting.DisplayName)
		return
	}
	r.syncStateLocked()
}

func (r *Room) setStashLocked(acting *models.Player, target uuid.UUID, amount int) {
	p, ok := r.state.Players[target]
	if !ok {
		r.logf("set-stash: unknown target %s", target)
		return
	}
	p.Stash = amount
	r.notifyPlayerLocked(target, NotifySuccess,
		fmt.Sprintf("%s set your stash to %d", acting.DisplayName, amount))
}

func (r *Room) addToStashLocked(acting *models.Player, target uuid.UUID, amount int) {
	p, ok := r.state.Players[target]
	if !ok {
		r.logf("add-to-stash: unknown target %s", target)
		return
	}
	p.Stash += amount
	r.notifyPlayerLocked(target, NotifySuccess,
		fmt.Sprintf("%s added %d to your stash", acting.DisplayName, amount))
}

func (r *Room) removeFromStashLocked(acting *models.Player, target uuid.UUID, amount int) {
	p, ok := r.state.Players[target]
	if !ok {
		r.logf("remove-from-stash: unknown target %s", target)
		return
	}
	p.Stash -= amount
	if p.Stash < 0 {
		p.Stash = 0
	}
	r.notifyPlayerLocked(target, NotifyWarning,
		fmt.Sprintf("%s removed %d from your stash", acting.DisplayName, amount))
}

func (r *Room) assignSeatLocked(target uuid.UUID) {
	p, ok := r.state.Players[target]
	if !ok {
		r.logf("assign-seat: unknown target %s", target)
		return
	}
	minimumStash := r.state.MinimumBet * 2
	if p.Stash < minimumStash {
		r.notifyPlayerLocked(target, NotifyWarning,
			fmt.Sprintf("You need at least %d to sit at the table", minimumStash))
		return
	}
	if r.state.Running {
		p.EnteringNextTurn = true
		return
	}
	r.seatPlayerLocked(p)
}

func (r *Room) giveOwnershipLocked(target uuid.UUID) {
	p, ok := r.state.Players[target]
	if !ok {
		r.logf("give-ownership: unknown target %s", target)
		return
	}
	r.state.RoomOwner = p.ID
	for _, other := range r.state.Players {
		other.IsOwner = other.ID == p.ID
	}
	r.notifyPlayerLocked(target, NotifyInfo, "You are the new room owner")
}

func (r *Room) startGameLocked(actor uuid.UUID) {
	seated := 0
	for _, p := range r.state.Players {
		if p.Playing {
			seated++
		}
	}
	if seated < 2 {
		r.notifyPlayerLocked(actor, NotifyWarning, "At least 2 seated players are needed to start a game")
		return
	}
	if r.state.Running {
		return
	}
	r.state.Running = true
	go r.runLoop()
}
