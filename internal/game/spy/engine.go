// Package spy 实现谁是卧底的角色分配、阶段推进与计票。所有对
// 房间状态的读写都经由房间的执行序列；阶段定时器到期后同样通过
// 执行序列回调，并在动作前校验阶段未被抢先推进。
package spy

import (
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/game/room"
	"github.com/squidplay/squidplay/internal/game/words"
)

// DispatchFunc 把操作提交到指定房间的执行序列
type DispatchFunc func(code string, fn func(*room.Room) error) error

// Durations 各阶段时长
type Durations struct {
	Discussion         time.Duration // 标准模式讨论时长
	SpeedrunDiscussion time.Duration // speedrun 模式讨论时长
	Voting             time.Duration
}

// Engine 谁是卧底引擎
type Engine struct {
	words     *words.List
	durations Durations
	dispatch  DispatchFunc

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine 创建引擎。rng 为 nil 时使用时间种子。
func NewEngine(list *words.List, durations Durations, dispatch DispatchFunc, rng *rand.Rand) *Engine {
	if rng == nil {
		now := time.Now()
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix())))
	}
	return &Engine{
		words:     list,
		durations: durations,
		dispatch:  dispatch,
		rng:       rng,
	}
}

// Start 开局：分配角色与题词，进入讨论阶段，并调度讨论阶段的
// 自动转换定时器。
func (e *Engine) Start(r *room.Room) error {
	e.mu.Lock()
	pair := e.words.Pick(e.rng)
	outsiderIdx := e.rng.IntN(r.PlayerCount())

	// 替身仅在 doppelganger 模式且满 4 人时分配，且不能与卧底重合
	variantIdx := -1
	if r.Mode == room.ModeDoppelganger && r.PlayerCount() >= 4 {
		variantIdx = e.rng.IntN(r.PlayerCount() - 1)
		if variantIdx >= outsiderIdx {
			variantIdx++
		}
	}
	e.mu.Unlock()

	outsider := r.PlayerOrder[outsiderIdx]
	variantHolder := ""
	if variantIdx >= 0 {
		variantHolder = r.PlayerOrder[variantIdx]
	}

	for _, name := range r.PlayerOrder {
		p := r.Players[name]
		p.VotedFor = ""
		switch name {
		case outsider:
			p.Role = room.RoleOutsider
			p.Word = "" // 卧底不拿词
		case variantHolder:
			p.Role = room.RoleVariant
			p.Word = pair.Variant
		default:
			p.Role = room.RoleCivilian
			p.Word = pair.Word
		}
	}

	round := 1
	if r.Spy != nil {
		round = r.Spy.Round + 1
	}

	duration := e.durations.Discussion
	if r.Mode == room.ModeSpeedrun {
		duration = e.durations.SpeedrunDiscussion
	}

	r.Spy = &room.SpyRound{
		Round:         round,
		Phase:         room.PhaseDiscussion,
		PhaseStart:    time.Now(),
		PhaseDuration: duration,
		Word:          pair.Word,
		VariantWord:   pair.Variant,
		Outsider:      outsider,
		VariantHolder: variantHolder,
		Votes:         make(map[string]string),
	}
	r.Status = room.StatusPlaying

	e.scheduleDiscussionTimeout(r, duration)

	log.Printf("🕵️ 房间 %s 谁是卧底第 %d 轮开始 (%s)，%d 名玩家", r.Code, round, r.Mode, r.PlayerCount())
	return nil
}

// StartVoting 进入投票阶段：清空所有票与玩家的投票字段，记录新的
// 阶段起点，并调度投票阶段的自动结束。房间不在讨论阶段时为无操作
// （不是错误），因此在手动提前转换之后才触发的过期定时器不会重复推进。
func (e *Engine) StartVoting(r *room.Room) error {
	if r.Spy == nil || r.Spy.Phase != room.PhaseDiscussion {
		return nil
	}

	r.Spy.Phase = room.PhaseVoting
	r.Spy.PhaseStart = time.Now()
	r.Spy.PhaseDuration = e.durations.Voting
	r.Spy.Votes = make(map[string]string)
	for _, p := range r.Players {
		p.VotedFor = ""
	}

	e.scheduleVotingTimeout(r)

	log.Printf("🗳️ 房间 %s 进入投票阶段", r.Code)
	return nil
}

// CastVote 投票。同一投票人重复投票覆盖旧票；当不同投票人数等于
// 玩家数时立即结束本轮。
func (e *Engine) CastVote(r *room.Room, voter, target string) error {
	if r.Spy == nil || r.Spy.Phase != room.PhaseVoting {
		return apperrors.ErrWrongPhase
	}
	if _, ok := r.Player(voter); !ok {
		return apperrors.ErrPlayerNotFound
	}
	if _, ok := r.Player(target); !ok {
		return apperrors.ErrUnknownTarget
	}

	r.Spy.Votes[voter] = target
	r.Players[voter].VotedFor = target

	if len(r.Spy.Votes) == r.PlayerCount() {
		return e.EndRound(r)
	}
	return nil
}

// CompleteVoting 投票阶段内成员变动后重查票数。尚未投票的玩家
// 离开可能让余下的票刚好齐了，此时立即结束本轮。
func (e *Engine) CompleteVoting(r *room.Room) error {
	if r.Spy == nil || r.Spy.Phase != room.PhaseVoting {
		return nil
	}
	if r.PlayerCount() > 0 && len(r.Spy.Votes) >= r.PlayerCount() {
		return e.EndRound(r)
	}
	return nil
}

// EndRound 结束本轮并计票。投票定时器与"全员已投"可能对同一轮都
// 触发一次，房间已结束时静默返回，保证结果只记录一次。
func (e *Engine) EndRound(r *room.Room) error {
	if r.Spy == nil {
		return nil
	}
	if r.Status == room.StatusFinished || r.Spy.Phase == room.PhaseResults {
		return nil
	}

	eliminated, counts := Tally(r, r.Spy.Votes)

	winner := "outsider"
	if eliminated == r.Spy.Outsider {
		winner = "civilians"
	}

	r.Spy.Result = &room.SpyResult{
		Winner:     winner,
		Eliminated: eliminated,
		Outsider:   r.Spy.Outsider,
		Counts:     counts,
	}
	r.Spy.Phase = room.PhaseResults
	r.Spy.PhaseStart = time.Now()
	r.Spy.PhaseDuration = 0
	r.Status = room.StatusFinished
	r.StopPhaseTimer()

	log.Printf("🏁 房间 %s 第 %d 轮结束：%s 胜，出局 %q", r.Code, r.Spy.Round, winner, eliminated)
	return nil
}

// Reset 把房间恢复为等待状态：清除角色、题词、投票与结果。
// 聊天记录由调用方负责清空。
func (e *Engine) Reset(r *room.Room) error {
	r.StopPhaseTimer()
	r.Spy = nil
	r.Status = room.StatusWaiting
	for _, p := range r.Players {
		p.Role = room.RoleCivilian
		p.Word = ""
		p.VotedFor = ""
	}

	log.Printf("🔄 房间 %s 已重置", r.Code)
	return nil
}

// Tally 统计票数并给出被淘汰者。得票严格最多者出局；平票按加入
// 顺序最早者出局（确定性规则，而不是 map 遍历顺序）；无人得票时
// 无人出局。
func Tally(r *room.Room, votes map[string]string) (eliminated string, counts map[string]int) {
	counts = make(map[string]int, len(votes))
	for _, target := range votes {
		counts[target]++
	}

	best := 0
	for _, name := range r.PlayerOrder {
		if counts[name] > best {
			best = counts[name]
			eliminated = name
		}
	}
	return eliminated, counts
}

// scheduleDiscussionTimeout 调度讨论阶段到期自动进入投票。回调经
// 执行序列下发，并按 SpyRound 指针校验仍是同一轮：重置后轮数会
// 归一，指针不会复用，迟到的旧局定时器因此不会推进新局。
func (e *Engine) scheduleDiscussionTimeout(r *room.Room, duration time.Duration) {
	code := r.Code
	current := r.Spy

	r.SetPhaseTimer(time.AfterFunc(duration, func() {
		err := e.dispatch(code, func(r *room.Room) error {
			if r.Spy != current || r.Spy.Phase != room.PhaseDiscussion {
				return nil // 过期定时器
			}
			return e.StartVoting(r)
		})
		if err != nil && err != apperrors.ErrRoomNotFound {
			log.Printf("⚠️ 房间 %s 讨论阶段定时转换失败: %v", code, err)
		}
	}))
}

// scheduleVotingTimeout 调度投票阶段到期自动结束本轮
func (e *Engine) scheduleVotingTimeout(r *room.Room) {
	code := r.Code
	current := r.Spy

	r.SetPhaseTimer(time.AfterFunc(e.durations.Voting, func() {
		err := e.dispatch(code, func(r *room.Room) error {
			if r.Spy != current || r.Spy.Phase != room.PhaseVoting {
				return nil // 过期定时器
			}
			return e.EndRound(r)
		})
		if err != nil && err != apperrors.ErrRoomNotFound {
			log.Printf("⚠️ 房间 %s 投票阶段定时结束失败: %v", code, err)
		}
	}))
}
