package store

// RoomData 房间数据（用于存储序列化）
type RoomData struct {
	Code        string                `json:"code"`
	GameType    string                `json:"game_type"`
	Status      string                `json:"status"`
	Mode        string                `json:"mode,omitempty"`
	Version     uint64                `json:"version"`
	Players     map[string]PlayerData `json:"players"`
	PlayerOrder []string              `json:"player_order"`
	CreatedAt   int64                 `json:"created_at"`
	Uno         *UnoData              `json:"uno,omitempty"`
	Spy         *SpyData              `json:"spy,omitempty"`
}

// PlayerData 玩家数据
type PlayerData struct {
	Name     string     `json:"name"`
	IsHost   bool       `json:"is_host"`
	Hand     []CardData `json:"hand,omitempty"`
	Role     string     `json:"role,omitempty"`
	Word     string     `json:"word,omitempty"`
	VotedFor string     `json:"voted_for,omitempty"`
}

// CardData 单张牌
type CardData struct {
	Kind  string `json:"kind"`
	Color string `json:"color,omitempty"`
	Value int    `json:"value,omitempty"`
}

// UnoData UNO 对局数据
type UnoData struct {
	Deck          []CardData `json:"deck"`
	Discard       []CardData `json:"discard"`
	CurrentPlayer string     `json:"current_player"`
	Direction     int        `json:"direction"`
}

// SpyData 谁是卧底对局数据
type SpyData struct {
	Phase         string            `json:"phase"`
	PhaseStart    int64             `json:"phase_start"`    // 毫秒时间戳
	PhaseDuration int64             `json:"phase_duration"` // 毫秒
	Round         int               `json:"round"`
	Word          string            `json:"word"`
	VariantWord   string            `json:"variant_word"`
	Outsider      string            `json:"outsider"`
	VariantHolder string            `json:"variant_holder,omitempty"`
	Votes         map[string]string `json:"votes"`
	Result        *SpyResultData    `json:"result,omitempty"`
}

// SpyResultData 单轮结果
type SpyResultData struct {
	Winner     string         `json:"winner"` // outsider / civilians
	Eliminated string         `json:"eliminated"`
	Outsider   string         `json:"outsider"`
	Counts     map[string]int `json:"counts"`
}

// MessageData 聊天消息
type MessageData struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // 毫秒
}
