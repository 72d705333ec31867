package room

import (
	"strings"
	"time"

	"github.com/squidplay/squidplay/internal/game/card"
)

// GameType 房间承载的游戏类型
type GameType string

const (
	GameUno GameType = "uno" // 卡牌对战
	GameSpy GameType = "spy" // 谁是卧底
)

// Valid 是否为已知游戏类型
func (g GameType) Valid() bool {
	return g == GameUno || g == GameSpy
}

// MaxPlayers 该游戏类型的人数上限
func (g GameType) MaxPlayers() int {
	if g == GameSpy {
		return 10
	}
	return 13
}

// MinPlayers 该游戏类型的开局人数下限
func (g GameType) MinPlayers() int {
	if g == GameSpy {
		return 3
	}
	return 2
}

// Mode 谁是卧底的玩法模式
type Mode string

const (
	ModeNormal       Mode = "normal"
	ModeDoppelganger Mode = "doppelganger" // 额外分配一名替身
	ModeSpeedrun     Mode = "speedrun"     // 缩短讨论时间
)

// Status 房间状态
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

var statusNames = map[Status]string{
	StatusWaiting:  "waiting",
	StatusPlaying:  "playing",
	StatusFinished: "finished",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Role 谁是卧底中的玩家身份
type Role int

const (
	RoleCivilian Role = iota // 平民，拿到共同题词
	RoleOutsider             // 卧底，不拿词
	RoleVariant              // 替身，拿到配对词
)

var roleNames = map[Role]string{
	RoleCivilian: "civilian",
	RoleOutsider: "outsider",
	RoleVariant:  "variant",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Phase 谁是卧底单轮内的阶段，只允许严格向前推进
type Phase int

const (
	PhaseDiscussion Phase = iota
	PhaseVoting
	PhaseResults
)

var phaseNames = map[Phase]string{
	PhaseDiscussion: "discussion",
	PhaseVoting:     "voting",
	PhaseResults:    "results",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Player 房间中的玩家，名字即房间内唯一标识
type Player struct {
	Name   string
	IsHost bool

	// UNO
	Hand card.Deck

	// 谁是卧底
	Role     Role
	Word     string
	VotedFor string
}

// UnoState UNO 对局状态
type UnoState struct {
	Deck          card.Deck // 摸牌堆
	Discard       card.Deck // 弃牌堆，末位为顶牌
	CurrentPlayer string
	Direction     int // 目前恒为 1（顺时针）
}

// Top 弃牌堆顶牌
func (u *UnoState) Top() card.Card {
	return u.Discard[len(u.Discard)-1]
}

// SpyResult 谁是卧底单轮结果
type SpyResult struct {
	Winner     string // outsider / civilians
	Eliminated string
	Outsider   string
	Counts     map[string]int
}

// SpyRound 谁是卧底单轮状态
type SpyRound struct {
	Round         int
	Phase         Phase
	PhaseStart    time.Time
	PhaseDuration time.Duration
	Word          string
	VariantWord   string
	Outsider      string
	VariantHolder string
	Votes         map[string]string // 投票人 → 目标，可覆盖
	Result        *SpyResult
}

// Room 游戏房间。所有字段仅允许在房间自身的执行序列
// （见 actor.go）内读写。
type Room struct {
	Code        string
	GameType    GameType
	Mode        Mode
	Status      Status
	Players     map[string]*Player
	PlayerOrder []string // 加入顺序
	Version     uint64   // 每次提交的变更递增
	CreatedAt   time.Time

	Uno *UnoState
	Spy *SpyRound

	phaseTimer *time.Timer // 当前阶段的自动转换定时器
	deleted    bool
}

// NewRoom 创建一个等待中的房间，host 为唯一房主
func NewRoom(code string, gameType GameType, mode Mode, hostName string) *Room {
	r := &Room{
		Code:        code,
		GameType:    gameType,
		Mode:        mode,
		Status:      StatusWaiting,
		Players:     make(map[string]*Player),
		PlayerOrder: make([]string, 0, gameType.MaxPlayers()),
		CreatedAt:   time.Now(),
	}
	r.Players[hostName] = &Player{Name: hostName, IsHost: true}
	r.PlayerOrder = append(r.PlayerOrder, hostName)
	return r
}

// ValidName 玩家名是否可用作标识（非空、非纯空白）
func ValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// Player 按名字取玩家
func (r *Room) Player(name string) (*Player, bool) {
	p, ok := r.Players[name]
	return p, ok
}

// PlayerCount 当前玩家数
func (r *Room) PlayerCount() int {
	return len(r.Players)
}

// AddPlayer 追加一名非房主玩家
func (r *Room) AddPlayer(name string) *Player {
	p := &Player{Name: name}
	r.Players[name] = p
	r.PlayerOrder = append(r.PlayerOrder, name)
	return p
}

// RemovePlayer 移除玩家并维护加入顺序；缺席时为无操作
func (r *Room) RemovePlayer(name string) {
	if _, ok := r.Players[name]; !ok {
		return
	}
	delete(r.Players, name)
	for i, n := range r.PlayerOrder {
		if n == name {
			r.PlayerOrder = append(r.PlayerOrder[:i], r.PlayerOrder[i+1:]...)
			break
		}
	}
}

// HostName 当前房主名，无房主时返回空串
func (r *Room) HostName() string {
	for _, name := range r.PlayerOrder {
		if r.Players[name].IsHost {
			return name
		}
	}
	return ""
}

// EnsureHost 若无房主则按加入顺序提升最早加入者
func (r *Room) EnsureHost() {
	if len(r.PlayerOrder) == 0 || r.HostName() != "" {
		return
	}
	r.Players[r.PlayerOrder[0]].IsHost = true
}

// NextPlayer 以当前加入顺序为固定环，返回 name 的下一位
func (r *Room) NextPlayer(name string) string {
	for i, n := range r.PlayerOrder {
		if n == name {
			return r.PlayerOrder[(i+1)%len(r.PlayerOrder)]
		}
	}
	// 玩家已离开：按环序找不到时退回首位
	if len(r.PlayerOrder) > 0 {
		return r.PlayerOrder[0]
	}
	return ""
}

// JoinIndex 玩家在加入顺序中的下标，不在房间时返回 -1
func (r *Room) JoinIndex(name string) int {
	for i, n := range r.PlayerOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// SetPhaseTimer 登记当前阶段定时器，替换并停止旧定时器
func (r *Room) SetPhaseTimer(t *time.Timer) {
	r.StopPhaseTimer()
	r.phaseTimer = t
}

// StopPhaseTimer 停止并清除阶段定时器
func (r *Room) StopPhaseTimer() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
}

// MarkDeleted 标记房间待删除，由执行序列在本次变更后处理
func (r *Room) MarkDeleted() {
	r.deleted = true
}

// Deleted 房间是否已标记删除
func (r *Room) Deleted() bool {
	return r.deleted
}
