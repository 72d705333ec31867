// Package uno 实现卡牌对战的发牌与回合引擎。所有方法都假定
// 在目标房间的执行序列内被调用。
package uno

import (
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/game/card"
	"github.com/squidplay/squidplay/internal/game/room"
)

// Engine UNO 引擎
type Engine struct {
	handSize int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine 创建引擎。rng 为 nil 时使用时间种子。
func NewEngine(handSize int, rng *rand.Rand) *Engine {
	if rng == nil {
		now := time.Now()
		rng = rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix())))
	}
	return &Engine{handSize: handSize, rng: rng}
}

// Start 开局：重建并重洗一副完整牌堆（不沿用上一局），按加入
// 顺序发牌，翻一张弃牌堆首牌，首位加入者先手。
func (e *Engine) Start(r *room.Room) error {
	deck := card.NewDeck()

	e.mu.Lock()
	deck.Shuffle(e.rng)
	e.mu.Unlock()

	hands, discard, rest, ok := card.Deal(deck, e.handSize, r.PlayerCount())
	if !ok {
		return apperrors.ErrDeckEmpty
	}

	for i, name := range r.PlayerOrder {
		r.Players[name].Hand = hands[i]
	}

	r.Uno = &room.UnoState{
		Deck:          rest,
		Discard:       card.Deck{discard},
		CurrentPlayer: r.PlayerOrder[0],
		Direction:     1,
	}
	r.Status = room.StatusPlaying

	log.Printf("🃏 房间 %s UNO 开局，%d 名玩家，先手 %s", r.Code, r.PlayerCount(), r.Uno.CurrentPlayer)
	return nil
}

// PlayCard 出牌：校验手牌下标、回合与牌面匹配，把牌从手牌移到
// 弃牌堆顶。出牌不结束回合，结束回合是独立操作（EndTurn）。
func (e *Engine) PlayCard(r *room.Room, player string, handIndex int) error {
	if err := e.checkTurn(r, player); err != nil {
		return err
	}

	p := r.Players[player]
	if handIndex < 0 || handIndex >= len(p.Hand) {
		return apperrors.ErrInvalidIndex
	}

	played := p.Hand[handIndex]
	if !played.Matches(r.Uno.Top()) {
		return apperrors.ErrIllegalCard
	}

	p.Hand = append(p.Hand[:handIndex], p.Hand[handIndex+1:]...)
	r.Uno.Discard = append(r.Uno.Discard, played)
	return nil
}

// DrawCard 摸牌：从摸牌堆前端取一张入手。摸牌堆耗尽即本轮的
// 终态，不从弃牌堆回收重洗。
func (e *Engine) DrawCard(r *room.Room, player string) error {
	if err := e.checkTurn(r, player); err != nil {
		return err
	}

	if len(r.Uno.Deck) == 0 {
		return apperrors.ErrDeckEmpty
	}

	p := r.Players[player]
	p.Hand = append(p.Hand, r.Uno.Deck[0])
	r.Uno.Deck = r.Uno.Deck[1:]
	return nil
}

// EndTurn 结束回合，把回合交给固定环序（加入顺序）中的下一位
func (e *Engine) EndTurn(r *room.Room, player string) error {
	if err := e.checkTurn(r, player); err != nil {
		return err
	}

	r.Uno.CurrentPlayer = r.NextPlayer(player)
	return nil
}

// checkTurn 校验对局进行中且轮到该玩家
func (e *Engine) checkTurn(r *room.Room, player string) error {
	if r.Uno == nil || r.Status != room.StatusPlaying {
		return apperrors.ErrGameNotStarted
	}
	if _, ok := r.Player(player); !ok {
		return apperrors.ErrPlayerNotFound
	}
	if r.Uno.CurrentPlayer != player {
		return apperrors.ErrNotYourTurn
	}
	return nil
}
