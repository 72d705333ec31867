package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/squidplay/squidplay/internal/protocol"
	"github.com/squidplay/squidplay/internal/store"
)

// Fanout 把存储层的路径变更推送给房间内的所有连接。每个活跃房间
// 持有两个订阅：房间状态与聊天日志。最后一名成员离开后取消订阅。
type Fanout struct {
	store store.Store

	mu    sync.RWMutex
	rooms map[string]*roomSub
}

type roomSub struct {
	members map[string]ClientSession // 连接 ID → 连接
	unsubs  []store.UnsubscribeFunc
}

// NewFanout 创建变更分发器
func NewFanout(st store.Store) *Fanout {
	return &Fanout{
		store: st,
		rooms: make(map[string]*roomSub),
	}
}

// Join 把连接加入房间的推送列表，首位成员触发订阅
func (f *Fanout) Join(ctx context.Context, code string, c ClientSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.rooms[code]
	if ok {
		sub.members[c.GetID()] = c
		return nil
	}

	sub = &roomSub{members: map[string]ClientSession{c.GetID(): c}}

	unsubRoom, err := f.store.Subscribe(ctx, store.RoomPath(code), func(ev store.Event) {
		f.onRoomEvent(code, ev)
	})
	if err != nil {
		return err
	}
	unsubMsgs, err := f.store.Subscribe(ctx, store.MessagesPath(code), func(ev store.Event) {
		f.onMessageEvent(code, ev)
	})
	if err != nil {
		unsubRoom()
		return err
	}

	sub.unsubs = []store.UnsubscribeFunc{unsubRoom, unsubMsgs}
	f.rooms[code] = sub
	return nil
}

// Leave 把连接移出房间的推送列表，末位成员触发退订
func (f *Fanout) Leave(code, clientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.rooms[code]
	if !ok {
		return
	}
	delete(sub.members, clientID)
	if len(sub.members) == 0 {
		f.dropLocked(code, sub)
	}
}

// onRoomEvent 房间状态变更：删除广播 room_removed，否则推送完整快照
func (f *Fanout) onRoomEvent(code string, ev store.Event) {
	if ev.Removed {
		msg := protocol.MustNewMessage(protocol.MsgRoomRemoved, protocol.RoomRemovedPayload{
			RoomCode: code,
		})
		f.mu.Lock()
		sub, ok := f.rooms[code]
		if !ok {
			f.mu.Unlock()
			return
		}
		members := membersOf(sub)
		f.dropLocked(code, sub)
		f.mu.Unlock()

		for _, c := range members {
			c.SendMessage(msg)
			if c.GetRoom() == code {
				c.SetRoom("")
			}
		}
		return
	}

	if ev.Value == nil {
		return
	}
	f.broadcast(code, protocol.MustNewMessage(protocol.MsgRoomState, protocol.RoomStatePayload{
		RoomCode: code,
		State:    json.RawMessage(ev.Value),
	}))
}

// onMessageEvent 聊天日志追加：转成 chat_message 推送
func (f *Fanout) onMessageEvent(code string, ev store.Event) {
	if ev.Appended == nil {
		return
	}
	var md store.MessageData
	if err := json.Unmarshal(ev.Appended, &md); err != nil {
		log.Printf("聊天消息解析失败: %v", err)
		return
	}
	f.broadcast(code, protocol.MustNewMessage(protocol.MsgChatMessage, protocol.ChatMessagePayload{
		Sender:    md.Sender,
		Content:   md.Content,
		Timestamp: md.Timestamp,
	}))
}

// broadcast 推送给房间的全部成员
func (f *Fanout) broadcast(code string, msg *protocol.Message) {
	f.mu.RLock()
	sub, ok := f.rooms[code]
	if !ok {
		f.mu.RUnlock()
		return
	}
	members := membersOf(sub)
	f.mu.RUnlock()

	for _, c := range members {
		c.SendMessage(msg)
	}
}

// dropLocked 取消订阅并移除房间，须持有写锁
func (f *Fanout) dropLocked(code string, sub *roomSub) {
	for _, unsub := range sub.unsubs {
		unsub()
	}
	delete(f.rooms, code)
}

// Close 取消全部订阅
func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, sub := range f.rooms {
		f.dropLocked(code, sub)
	}
}

func membersOf(sub *roomSub) []ClientSession {
	members := make([]ClientSession, 0, len(sub.members))
	for _, c := range sub.members {
		members = append(members, c)
	}
	return members
}
