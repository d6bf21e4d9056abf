package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domtes/chemmazz/internal/game"
)

// routingRoom is a room with a recording transport and two joined
// sessions, for exercising dispatchInbound without a socket.
type routingRoom struct {
	room           *game.Room
	caller, target uuid.UUID

	mu   sync.Mutex
	sent map[uuid.UUID][]game.OutboundMessage
}

func newRoutingRoom(t *testing.T) *routingRoom {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	n := 0
	validate := func(ctx context.Context, identity uuid.UUID) (string, error) {
		n++
		return fmt.Sprintf("user-%d", n), nil
	}

	rr := &routingRoom{sent: make(map[uuid.UUID][]game.OutboundMessage)}
	rr.room = game.NewRoom("routing", logger, validate, game.DefaultConfig())
	t.Cleanup(rr.room.Destroy)
	rr.room.SetTransport(
		func(sid uuid.UUID, msg game.OutboundMessage) {
			rr.mu.Lock()
			rr.sent[sid] = append(rr.sent[sid], msg)
			rr.mu.Unlock()
		},
		func(game.OutboundMessage) {},
	)

	var err error
	rr.caller, err = rr.room.Join(context.Background(), uuid.New())
	require.NoError(t, err)
	rr.target, err = rr.room.Join(context.Background(), uuid.New())
	require.NoError(t, err)
	return rr
}

func (rr *routingRoom) dispatch(t *testing.T, sid uuid.UUID, raw string) {
	t.Helper()
	var msg inboundMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	dispatchInbound(rr.room, sid, msg, []byte(raw), logger)
}

// countTo returns how many messages of a type reached a session.
func (rr *routingRoom) countTo(sid uuid.UUID, msgType string) int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	count := 0
	for _, m := range rr.sent[sid] {
		if m.Type == msgType {
			count++
		}
	}
	return count
}

// lastState returns the most recent state snapshot sent to a session.
func (rr *routingRoom) lastState(sid uuid.UUID) (game.RoomView, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	msgs := rr.sent[sid]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == "state" {
			return msgs[i].Payload.(game.RoomView), true
		}
	}
	return game.RoomView{}, false
}

// Both signaling envelopes must reach the target: the enveloped
// {type:"webrtc", command, payload:{...}} form and the flattened
// {type:"call-player", ...} shorthand.
func TestDispatchInboundRelaysBothSignalingForms(t *testing.T) {
	rr := newRoutingRoom(t)

	rr.dispatch(t, rr.caller, fmt.Sprintf(
		`{"type":"webrtc","command":"call-player","payload":{"callerId":%q,"targetId":%q,"signal":{"sdp":"offer"}}}`,
		rr.caller, rr.target))
	rr.dispatch(t, rr.caller, fmt.Sprintf(
		`{"type":"call-player","targetId":%q,"signal":{"sdp":"offer"}}`, rr.target))

	assert.Equal(t, 2, rr.countTo(rr.target, "incoming-call"))

	rr.dispatch(t, rr.target, fmt.Sprintf(
		`{"type":"webrtc","command":"answer-call","payload":{"callerId":%q,"targetId":%q,"signal":{"sdp":"answer"}}}`,
		rr.target, rr.caller))
	assert.Equal(t, 1, rr.countTo(rr.caller, "answer-call"))
}

func TestDispatchInboundWebrtcWithoutPayloadIsDropped(t *testing.T) {
	rr := newRoutingRoom(t)

	rr.dispatch(t, rr.caller, `{"type":"webrtc","command":"call-player"}`)
	assert.Zero(t, rr.countTo(rr.target, "incoming-call"))
}

func TestDispatchInboundRoutesAdmin(t *testing.T) {
	rr := newRoutingRoom(t)

	rr.dispatch(t, rr.caller, fmt.Sprintf(
		`{"type":"admin","command":"set-stash","sessionId":%q,"amount":150}`, rr.target))

	// The stash change lands in the replicated snapshot.
	v, ok := rr.lastState(rr.target)
	require.True(t, ok, "no state snapshot reached the target")
	assert.Equal(t, 150, v.Players[rr.target.String()].Stash)
}
