package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001

	ErrCodeRoomNotFound     = 2001
	ErrCodeRoomFull         = 2002
	ErrCodePlayerNotFound   = 2003
	ErrCodeNameTaken        = 2004
	ErrCodeInvalidName      = 2005
	ErrCodeGameInProgress   = 2006
	ErrCodeGameNotStarted   = 2007
	ErrCodeNotEnoughPlayers = 2008
	ErrCodeNotHost          = 2009
	ErrCodeAlreadyHosting   = 2010

	ErrCodeNotYourTurn  = 3001
	ErrCodeInvalidIndex = 3002
	ErrCodeIllegalCard  = 3003
	ErrCodeDeckEmpty    = 3004

	ErrCodeWrongPhase    = 4001
	ErrCodeUnknownTarget = 4002

	ErrCodeStoreUnavailable = 5001
)

// ErrorMessages 错误码对应的默认消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:          "unknown error",
	ErrCodeInvalidMsg:       "invalid message format",
	ErrCodeRoomNotFound:     "room not found",
	ErrCodeRoomFull:         "room is full",
	ErrCodePlayerNotFound:   "player not found",
	ErrCodeNameTaken:        "player name already taken",
	ErrCodeInvalidName:      "player name is empty",
	ErrCodeGameInProgress:   "game already in progress",
	ErrCodeGameNotStarted:   "game has not started",
	ErrCodeNotEnoughPlayers: "not enough players to start",
	ErrCodeNotHost:          "only the host may do that",
	ErrCodeAlreadyHosting:   "caller already hosts a room",
	ErrCodeNotYourTurn:      "not your turn",
	ErrCodeInvalidIndex:     "card index out of range",
	ErrCodeIllegalCard:      "card does not match the discard top",
	ErrCodeDeckEmpty:        "draw pile is empty",
	ErrCodeWrongPhase:       "action not allowed in the current phase",
	ErrCodeUnknownTarget:    "vote target is not in the room",
	ErrCodeStoreUnavailable: "store unavailable",
}
