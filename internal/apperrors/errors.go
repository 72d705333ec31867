package apperrors

import (
	"github.com/squidplay/squidplay/internal/protocol"
)

// Kind 错误分类，对应错误的语义类别
type Kind int

const (
	KindNotFound Kind = iota // 房间或玩家不存在
	KindConflict             // 名字冲突、房间已满、未轮到、阶段不符、非法操作
	KindState                // 游戏状态不允许该操作
	KindCapacity             // 玩家数量不满足上下限
	KindStore                // 存储层不可用
)

// GameError 游戏错误（房间和引擎共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound     = &GameError{Code: protocol.ErrCodeRoomNotFound, Kind: KindNotFound, Message: "room not found"}
	ErrPlayerNotFound   = &GameError{Code: protocol.ErrCodePlayerNotFound, Kind: KindNotFound, Message: "player not found"}
	ErrRoomFull         = &GameError{Code: protocol.ErrCodeRoomFull, Kind: KindCapacity, Message: "room is full"}
	ErrNameTaken        = &GameError{Code: protocol.ErrCodeNameTaken, Kind: KindConflict, Message: "player name already taken"}
	ErrInvalidName      = &GameError{Code: protocol.ErrCodeInvalidName, Kind: KindConflict, Message: "player name is empty"}
	ErrGameInProgress   = &GameError{Code: protocol.ErrCodeGameInProgress, Kind: KindState, Message: "game already in progress"}
	ErrGameNotStarted   = &GameError{Code: protocol.ErrCodeGameNotStarted, Kind: KindState, Message: "game has not started"}
	ErrNotEnoughPlayers = &GameError{Code: protocol.ErrCodeNotEnoughPlayers, Kind: KindCapacity, Message: "not enough players to start"}
	ErrNotHost          = &GameError{Code: protocol.ErrCodeNotHost, Kind: KindConflict, Message: "only the host may do that"}
	ErrAlreadyHosting   = &GameError{Code: protocol.ErrCodeAlreadyHosting, Kind: KindConflict, Message: "caller already hosts a room"}

	ErrNotYourTurn  = &GameError{Code: protocol.ErrCodeNotYourTurn, Kind: KindConflict, Message: "not your turn"}
	ErrInvalidIndex = &GameError{Code: protocol.ErrCodeInvalidIndex, Kind: KindConflict, Message: "card index out of range"}
	ErrIllegalCard  = &GameError{Code: protocol.ErrCodeIllegalCard, Kind: KindConflict, Message: "card does not match the discard top"}
	ErrDeckEmpty    = &GameError{Code: protocol.ErrCodeDeckEmpty, Kind: KindState, Message: "draw pile is empty"}

	ErrWrongPhase    = &GameError{Code: protocol.ErrCodeWrongPhase, Kind: KindConflict, Message: "action not allowed in the current phase"}
	ErrUnknownTarget = &GameError{Code: protocol.ErrCodeUnknownTarget, Kind: KindConflict, Message: "vote target is not in the room"}

	ErrStoreUnavailable = &GameError{Code: protocol.ErrCodeStoreUnavailable, Kind: KindStore, Message: "store unavailable"}
)
