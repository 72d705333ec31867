package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squidplay/squidplay/internal/config"
	"github.com/squidplay/squidplay/internal/protocol"
	"github.com/squidplay/squidplay/internal/store"
	"github.com/squidplay/squidplay/internal/testutil"
)

// fakeClient 不经 WebSocket 的 ClientSession 实现
type fakeClient struct {
	id string

	mu   sync.Mutex
	name string
	room string
	msgs []*protocol.Message
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) GetID() string   { return c.id }
func (c *fakeClient) Close()          {}
func (c *fakeClient) GetName() string { c.mu.Lock(); defer c.mu.Unlock(); return c.name }
func (c *fakeClient) SetName(n string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = n
}
func (c *fakeClient) GetRoom() string { c.mu.Lock(); defer c.mu.Unlock(); return c.room }
func (c *fakeClient) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = code
}

func (c *fakeClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// lastOfType 最近一条该类型的消息
func (c *fakeClient) lastOfType(t protocol.MessageType) *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == t {
			return c.msgs[i]
		}
	}
	return nil
}

func (c *fakeClient) countOfType(t protocol.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == t {
			n++
		}
	}
	return n
}

func newTestServer(t *testing.T) (*Server, *testutil.MemStore) {
	t.Helper()
	ms := testutil.NewMemStore()
	s := newServer(config.Default(), ms)
	t.Cleanup(func() {
		s.fanout.Close()
		s.service.Close()
	})
	return s, ms
}

func request(t *testing.T, msgType protocol.MessageType, payload any) *protocol.Message {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, payload)
	require.NoError(t, err)
	return msg
}

// createRoom 建房并返回房间码
func createRoom(t *testing.T, s *Server, c *fakeClient, name, gameType string) string {
	t.Helper()
	s.handler.Handle(c, request(t, protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		PlayerName: name,
		GameType:   gameType,
	}))
	created := c.lastOfType(protocol.MsgRoomCreated)
	require.NotNil(t, created, "expected room_created, got %+v", c.msgs)
	payload, err := protocol.ParsePayload[protocol.RoomCreatedPayload](created)
	require.NoError(t, err)
	return payload.RoomCode
}

func joinRoom(t *testing.T, s *Server, c *fakeClient, code, name string) {
	t.Helper()
	s.handler.Handle(c, request(t, protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomCode:   code,
		PlayerName: name,
	}))
	require.NotNil(t, c.lastOfType(protocol.MsgRoomJoined))
}

func TestHandlePing(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")

	s.handler.Handle(c, request(t, protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))

	pong := c.lastOfType(protocol.MsgPong)
	require.NotNil(t, pong)
	payload, err := protocol.ParsePayload[protocol.PongPayload](pong)
	require.NoError(t, err)
	assert.Equal(t, int64(42), payload.ClientTimestamp)
	assert.NotZero(t, payload.ServerTimestamp)
}

func TestHandleUnknownType(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")

	s.handler.Handle(c, &protocol.Message{Type: "teleport"})

	errMsg := c.lastOfType(protocol.MsgError)
	require.NotNil(t, errMsg)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](errMsg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, payload.Code)
}

func TestHandleCreateRoom(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")

	code := createRoom(t, s, c, "Alice", "uno")
	assert.Equal(t, code, c.GetRoom())
	assert.Equal(t, "Alice", c.GetName())

	// 建房后补发一份快照
	state := c.lastOfType(protocol.MsgRoomState)
	require.NotNil(t, state)
	payload, err := protocol.ParsePayload[protocol.RoomStatePayload](state)
	require.NoError(t, err)
	assert.Equal(t, code, payload.RoomCode)

	var rd store.RoomData
	require.NoError(t, json.Unmarshal(payload.State, &rd))
	assert.Equal(t, "waiting", rd.Status)
	assert.True(t, rd.Players["Alice"].IsHost)
}

func TestHandleCreateRoom_WhileInRoom(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")
	createRoom(t, s, c, "Alice", "uno")

	s.handler.Handle(c, request(t, protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		PlayerName: "Alice", GameType: "uno",
	}))

	errMsg := c.lastOfType(protocol.MsgError)
	require.NotNil(t, errMsg)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](errMsg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeAlreadyHosting, payload.Code)
}

func TestHandleJoinRoom_FanoutToMembers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	alice := newFakeClient("c1")
	bob := newFakeClient("c2")

	code := createRoom(t, s, alice, "Alice", "uno")
	joinRoom(t, s, bob, code, "Bob")

	// Bob 加入触发一次提交，双方都收到推送的新状态
	require.Eventually(t, func() bool {
		state := alice.lastOfType(protocol.MsgRoomState)
		if state == nil {
			return false
		}
		payload, err := protocol.ParsePayload[protocol.RoomStatePayload](state)
		if err != nil {
			return false
		}
		var rd store.RoomData
		if err := json.Unmarshal(payload.State, &rd); err != nil {
			return false
		}
		return len(rd.Players) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestHandleJoinRoom_Errors(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")

	s.handler.Handle(c, request(t, protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomCode: "ZZZZZZ", PlayerName: "Bob",
	}))
	errMsg := c.lastOfType(protocol.MsgError)
	require.NotNil(t, errMsg)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](errMsg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomNotFound, payload.Code)
	assert.Empty(t, c.GetRoom())
}

func TestHandleLeaveRoom(t *testing.T) {
	t.Parallel()

	s, ms := newTestServer(t)
	c := newFakeClient("c1")
	code := createRoom(t, s, c, "Alice", "uno")

	s.handler.Handle(c, request(t, protocol.MsgLeaveRoom, nil))

	require.NotNil(t, c.lastOfType(protocol.MsgRoomLeft))
	assert.Empty(t, c.GetRoom())

	// 空房间随最后一人离开而删除
	require.Eventually(t, func() bool {
		return ms.GetRoomData(store.RoomPath(code)) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestHandleRoomAction_RequiresRoom(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	c := newFakeClient("c1")

	s.handler.Handle(c, request(t, protocol.MsgStartGame, nil))

	errMsg := c.lastOfType(protocol.MsgError)
	require.NotNil(t, errMsg)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](errMsg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomNotFound, payload.Code)
}

func TestHandleSendMessage_Broadcast(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	alice := newFakeClient("c1")
	bob := newFakeClient("c2")

	code := createRoom(t, s, alice, "Alice", "spy")
	joinRoom(t, s, bob, code, "Bob")

	s.handler.Handle(alice, request(t, protocol.MsgSendMessage, protocol.SendMessagePayload{
		Content: "who picked the weird word?",
	}))

	for _, c := range []*fakeClient{alice, bob} {
		chat := c.lastOfType(protocol.MsgChatMessage)
		require.NotNil(t, chat)
		payload, err := protocol.ParsePayload[protocol.ChatMessagePayload](chat)
		require.NoError(t, err)
		assert.Equal(t, "Alice", payload.Sender)
		assert.Equal(t, "who picked the weird word?", payload.Content)
	}
}

func TestHandleJoinRoom_ReplaysChat(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	alice := newFakeClient("c1")
	code := createRoom(t, s, alice, "Alice", "spy")

	s.handler.Handle(alice, request(t, protocol.MsgSendMessage, protocol.SendMessagePayload{Content: "hi"}))
	s.handler.Handle(alice, request(t, protocol.MsgSendMessage, protocol.SendMessagePayload{Content: "anyone?"}))

	bob := newFakeClient("c2")
	joinRoom(t, s, bob, code, "Bob")

	assert.Equal(t, 2, bob.countOfType(protocol.MsgChatMessage), "history is replayed on join")
}

func TestHandleStartGame_SpyRoundOverWebSocketProtocol(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	clients := []*fakeClient{newFakeClient("c1"), newFakeClient("c2"), newFakeClient("c3")}
	names := []string{"Alice", "Bob", "Carol"}

	code := createRoom(t, s, clients[0], names[0], "spy")
	joinRoom(t, s, clients[1], code, names[1])
	joinRoom(t, s, clients[2], code, names[2])

	s.handler.Handle(clients[0], request(t, protocol.MsgStartGame, nil))
	s.handler.Handle(clients[0], request(t, protocol.MsgStartVoting, nil))

	for i, c := range clients {
		s.handler.Handle(c, request(t, protocol.MsgCastVote, protocol.CastVotePayload{
			Target: names[(i+1)%len(names)],
		}))
	}

	// 最后一票结束本轮，推送结果快照
	require.Eventually(t, func() bool {
		state := clients[1].lastOfType(protocol.MsgRoomState)
		if state == nil {
			return false
		}
		payload, err := protocol.ParsePayload[protocol.RoomStatePayload](state)
		if err != nil {
			return false
		}
		var rd store.RoomData
		if err := json.Unmarshal(payload.State, &rd); err != nil {
			return false
		}
		return rd.Spy != nil && rd.Spy.Phase == "results" && rd.Spy.Result != nil
	}, time.Second, 5*time.Millisecond)
}

func TestFanout_RoomRemovedClearsMembers(t *testing.T) {
	t.Parallel()

	s, ms := newTestServer(t)
	c := newFakeClient("c1")
	code := createRoom(t, s, c, "Alice", "uno")

	// 房间被外部删除时，成员收到 room_removed 并被移出推送
	require.NoError(t, ms.Remove(t.Context(), store.RoomPath(code)))

	require.NotNil(t, c.lastOfType(protocol.MsgRoomRemoved))
	assert.Empty(t, c.GetRoom())
}
