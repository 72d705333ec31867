package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgStartGame  MessageType = "start_game"  // 开始游戏

	// UNO 操作
	MsgPlayCard MessageType = "play_card" // 出牌
	MsgDrawCard MessageType = "draw_card" // 摸牌
	MsgEndTurn  MessageType = "end_turn"  // 结束回合

	// 谁是卧底操作
	MsgSendMessage MessageType = "send_message" // 发送聊天消息
	MsgCastVote    MessageType = "cast_vote"    // 投票
	MsgStartVoting MessageType = "start_voting" // 房主提前进入投票阶段
	MsgResetGame   MessageType = "reset_game"   // 房主重置游戏
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomCreated MessageType = "room_created" // 房间创建成功
	MsgRoomJoined  MessageType = "room_joined"  // 加入房间成功
	MsgRoomLeft    MessageType = "room_left"    // 离开房间成功

	// 状态推送（由存储层变更通知触发）
	MsgRoomState   MessageType = "room_state"   // 房间完整状态快照
	MsgRoomRemoved MessageType = "room_removed" // 房间已删除
	MsgChatMessage MessageType = "chat_message" // 聊天消息

	// 错误
	MsgError MessageType = "error" // 错误消息
)
