package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/game"
	"github.com/squidplay/squidplay/internal/protocol"
	"github.com/squidplay/squidplay/internal/store"
)

// Handler 消息处理器
type Handler struct {
	service  *game.Service
	store    store.Store
	fanout   *Fanout
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client ClientSession, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(service *game.Service, st store.Store, fanout *Fanout) *Handler {
	h := &Handler{
		service: service,
		store:   st,
		fanout:  fanout,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  h.handleLeaveRoom,
		protocol.MsgStartGame:  h.handleStartGame,

		// UNO 操作
		protocol.MsgPlayCard: h.handlePlayCard,
		protocol.MsgDrawCard: h.handleDrawCard,
		protocol.MsgEndTurn:  h.handleEndTurn,

		// 房间互动
		protocol.MsgSendMessage: h.handleSendMessage,
		protocol.MsgCastVote:    h.handleCastVote,
		protocol.MsgStartVoting: h.handleStartVoting,
		protocol.MsgResetGame:   h.handleResetGame,
	}
}

// Handle 按消息类型分发
func (h *Handler) Handle(client ClientSession, msg *protocol.Message) {
	fn, ok := h.handlers[msg.Type]
	if !ok {
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	fn(client, msg)
}

// sendError 把业务错误转成错误消息
func sendError(client ClientSession, err error) {
	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		client.SendMessage(protocol.NewErrorMessage(ge.Code))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

func (h *Handler) handlePing(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

func (h *Handler) handleCreateRoom(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeAlreadyHosting))
		return
	}

	ctx := context.Background()
	code, err := h.service.CreateRoom(ctx, payload.PlayerName, payload.GameType, payload.Mode)
	if err != nil {
		sendError(client, err)
		return
	}

	h.enterRoom(ctx, client, code, payload.PlayerName)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: code,
	}))
	h.pushSnapshot(ctx, client, code)
}

func (h *Handler) handleJoinRoom(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessageWithText(
			protocol.ErrCodeAlreadyHosting, "leave your current room first"))
		return
	}

	if err := h.service.JoinRoom(payload.RoomCode, payload.PlayerName); err != nil {
		sendError(client, err)
		return
	}

	ctx := context.Background()
	h.enterRoom(ctx, client, payload.RoomCode, payload.PlayerName)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode: payload.RoomCode,
	}))
	h.pushSnapshot(ctx, client, payload.RoomCode)
	h.replayChat(ctx, client, payload.RoomCode)
}

func (h *Handler) handleLeaveRoom(client ClientSession, msg *protocol.Message) {
	code := client.GetRoom()
	if code == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRoomNotFound))
		return
	}

	h.fanout.Leave(code, client.GetID())
	client.SetRoom("")
	if err := h.service.LeaveRoom(code, client.GetName()); err != nil {
		sendError(client, err)
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomLeft, nil))
}

func (h *Handler) handleStartGame(client ClientSession, msg *protocol.Message) {
	h.roomAction(client, func(code string) error {
		return h.service.StartGame(code, client.GetName())
	})
}

func (h *Handler) handlePlayCard(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	h.roomAction(client, func(code string) error {
		return h.service.PlayCard(code, client.GetName(), payload.HandIndex)
	})
}

func (h *Handler) handleDrawCard(client ClientSession, msg *protocol.Message) {
	h.roomAction(client, func(code string) error {
		return h.service.DrawCard(code, client.GetName())
	})
}

func (h *Handler) handleEndTurn(client ClientSession, msg *protocol.Message) {
	h.roomAction(client, func(code string) error {
		return h.service.EndTurn(code, client.GetName())
	})
}

func (h *Handler) handleSendMessage(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SendMessagePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	h.roomAction(client, func(code string) error {
		return h.service.SendMessage(context.Background(), code, client.GetName(), payload.Content)
	})
}

func (h *Handler) handleCastVote(client ClientSession, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CastVotePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	h.roomAction(client, func(code string) error {
		return h.service.CastVote(code, client.GetName(), payload.Target)
	})
}

func (h *Handler) handleStartVoting(client ClientSession, msg *protocol.Message) {
	h.roomAction(client, func(code string) error {
		return h.service.StartVoting(code, client.GetName())
	})
}

func (h *Handler) handleResetGame(client ClientSession, msg *protocol.Message) {
	h.roomAction(client, func(code string) error {
		return h.service.ResetGame(context.Background(), code, client.GetName())
	})
}

// roomAction 在客户端所在的房间上执行操作；不在房间内时报错。
// 成功的状态变更经存储层订阅推送，无需单独应答。
func (h *Handler) roomAction(client ClientSession, fn func(code string) error) {
	code := client.GetRoom()
	if code == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRoomNotFound))
		return
	}
	if err := fn(code); err != nil {
		sendError(client, err)
	}
}

// enterRoom 登记身份并接入房间的推送
func (h *Handler) enterRoom(ctx context.Context, client ClientSession, code, name string) {
	client.SetName(name)
	client.SetRoom(code)
	if err := h.fanout.Join(ctx, code, client); err != nil {
		log.Printf("订阅房间 %s 失败: %v", code, err)
	}
}

// pushSnapshot 补发当前房间快照。订阅只覆盖之后的变更，
// 刚接入的连接需要现状。
func (h *Handler) pushSnapshot(ctx context.Context, client ClientSession, code string) {
	data, err := h.store.Get(ctx, store.RoomPath(code))
	if err != nil || data == nil {
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomState, protocol.RoomStatePayload{
		RoomCode: code,
		State:    json.RawMessage(data),
	}))
}

// replayChat 补发已有的聊天记录
func (h *Handler) replayChat(ctx context.Context, client ClientSession, code string) {
	items, err := h.service.Messages(ctx, code)
	if err != nil {
		return
	}
	for _, item := range items {
		var md store.MessageData
		if err := json.Unmarshal(item, &md); err != nil {
			continue
		}
		client.SendMessage(protocol.MustNewMessage(protocol.MsgChatMessage, protocol.ChatMessagePayload{
			Sender:    md.Sender,
			Content:   md.Content,
			Timestamp: md.Timestamp,
		}))
	}
}
