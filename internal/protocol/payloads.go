package protocol

import "encoding/json"

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	PlayerName string `json:"player_name"`
	GameType   string `json:"game_type"`      // uno / spy
	Mode       string `json:"mode,omitempty"` // spy: normal / doppelganger / speedrun
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	HandIndex int `json:"hand_index"` // 手牌下标
}

// SendMessagePayload 聊天消息请求
type SendMessagePayload struct {
	Content string `json:"content"`
}

// CastVotePayload 投票请求
type CastVotePayload struct {
	Target string `json:"target"` // 被投玩家名
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	SessionID string `json:"session_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomCode string `json:"room_code"`
}

// RoomRemovedPayload 房间删除通知
type RoomRemovedPayload struct {
	RoomCode string `json:"room_code"`
}

// RoomStatePayload 房间状态快照，内容为存储层提交的房间 JSON
type RoomStatePayload struct {
	RoomCode string          `json:"room_code"`
	State    json.RawMessage `json:"state"`
}

// ChatMessagePayload 聊天消息推送
type ChatMessagePayload struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // 毫秒
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
