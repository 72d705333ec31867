// Package game 组合房间管理器、两套游戏引擎与存储层，向传输层暴露
// 全部房间操作。除聊天追加外，所有状态变更都经各房间的执行序列提交。
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/squidplay/squidplay/internal/apperrors"
	"github.com/squidplay/squidplay/internal/config"
	"github.com/squidplay/squidplay/internal/game/room"
	"github.com/squidplay/squidplay/internal/game/spy"
	"github.com/squidplay/squidplay/internal/game/uno"
	"github.com/squidplay/squidplay/internal/game/words"
	"github.com/squidplay/squidplay/internal/store"
)

// Service 游戏服务
type Service struct {
	cfg   *config.Config
	store store.Store
	rooms *room.Manager
	uno   *uno.Engine
	spy   *spy.Engine
}

// NewService 创建服务并启动房间管理器
func NewService(cfg *config.Config, st store.Store) *Service {
	s := &Service{
		cfg:   cfg,
		store: st,
		rooms: room.NewManager(st, cfg.Game.RoomTimeoutDuration()),
		uno:   uno.NewEngine(cfg.Game.InitialHandSize, nil),
	}
	s.spy = spy.NewEngine(words.MustLoad(), spy.Durations{
		Discussion:         cfg.Game.DiscussionDuration(false),
		SpeedrunDiscussion: cfg.Game.DiscussionDuration(true),
		Voting:             cfg.Game.VotingDuration(),
	}, s.rooms.Dispatch, nil)
	return s
}

// Close 停止房间管理器
func (s *Service) Close() {
	s.rooms.Close()
}

// Rooms 暴露房间管理器，供传输层查询房间存在性
func (s *Service) Rooms() *room.Manager {
	return s.rooms
}

// CreateRoom 创建房间并返回房间码
func (s *Service) CreateRoom(ctx context.Context, hostName, gameType, mode string) (string, error) {
	gt := room.GameType(gameType)
	if !gt.Valid() {
		return "", fmt.Errorf("unknown game type %q", gameType)
	}
	m, err := normalizeMode(gt, mode)
	if err != nil {
		return "", err
	}
	return s.rooms.CreateRoom(ctx, hostName, gt, m)
}

// JoinRoom 加入房间
func (s *Service) JoinRoom(code, name string) error {
	return s.rooms.JoinRoom(code, name)
}

// LeaveRoom 离开房间；房间为空时删除房间。投票阶段里未投票的
// 玩家离开后余下的票可能已经齐了，随即重查并结束本轮。
func (s *Service) LeaveRoom(code, name string) error {
	if err := s.rooms.LeaveRoom(code, name); err != nil {
		return err
	}
	err := s.rooms.Dispatch(code, func(r *room.Room) error {
		return s.spy.CompleteVoting(r)
	})
	if err == apperrors.ErrRoomNotFound {
		return nil // 离开的正是最后一人，房间已删除
	}
	return err
}

// StartGame 由房主开局。人数须满足游戏类型的下限；结束态的房间
// 须先重置才能开下一局。
func (s *Service) StartGame(code, requester string) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		if err := requireHost(r, requester); err != nil {
			return err
		}
		if r.Status != room.StatusWaiting {
			return apperrors.ErrGameInProgress
		}
		if r.PlayerCount() < r.GameType.MinPlayers() {
			return apperrors.ErrNotEnoughPlayers
		}
		if r.GameType == room.GameSpy {
			return s.spy.Start(r)
		}
		return s.uno.Start(r)
	})
}

// PlayCard 当前回合玩家打出手牌
func (s *Service) PlayCard(code, player string, handIndex int) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		return s.uno.PlayCard(r, player, handIndex)
	})
}

// DrawCard 当前回合玩家摸一张牌
func (s *Service) DrawCard(code, player string) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		return s.uno.DrawCard(r, player)
	})
}

// EndTurn 当前回合玩家结束回合
func (s *Service) EndTurn(code, player string) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		return s.uno.EndTurn(r, player)
	})
}

// SendMessage 房间成员追加一条聊天消息。空白内容静默丢弃。
func (s *Service) SendMessage(ctx context.Context, code, sender, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	// 仅校验成员资格，消息本体不进房间状态
	if err := s.rooms.Dispatch(code, func(r *room.Room) error {
		if _, ok := r.Player(sender); !ok {
			return apperrors.ErrPlayerNotFound
		}
		return nil
	}); err != nil {
		return err
	}
	return s.store.Append(ctx, store.MessagesPath(code), store.MessageData{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Messages 按顺序读出房间的全部聊天消息
func (s *Service) Messages(ctx context.Context, code string) ([][]byte, error) {
	return s.store.ListAppended(ctx, store.MessagesPath(code))
}

// CastVote 投票阶段内的投票
func (s *Service) CastVote(code, voter, target string) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		if r.GameType != room.GameSpy || r.Status != room.StatusPlaying {
			return apperrors.ErrGameNotStarted
		}
		return s.spy.CastVote(r, voter, target)
	})
}

// StartVoting 房主手动把讨论阶段切到投票阶段。房间不在讨论阶段时
// 为无操作。
func (s *Service) StartVoting(code, requester string) error {
	return s.rooms.Dispatch(code, func(r *room.Room) error {
		if err := requireHost(r, requester); err != nil {
			return err
		}
		if r.GameType != room.GameSpy || r.Spy == nil {
			return apperrors.ErrGameNotStarted
		}
		return s.spy.StartVoting(r)
	})
}

// ResetGame 房主把房间恢复为等待态，并清空房间的聊天记录
func (s *Service) ResetGame(ctx context.Context, code, requester string) error {
	if err := s.rooms.Dispatch(code, func(r *room.Room) error {
		if err := requireHost(r, requester); err != nil {
			return err
		}
		if r.GameType == room.GameSpy {
			return s.spy.Reset(r)
		}
		return resetUno(r)
	}); err != nil {
		return err
	}
	return s.store.Remove(ctx, store.MessagesPath(code))
}

// resetUno 清空对局与手牌，回到等待态
func resetUno(r *room.Room) error {
	r.StopPhaseTimer()
	r.Uno = nil
	r.Status = room.StatusWaiting
	for _, p := range r.Players {
		p.Hand = nil
	}
	return nil
}

// requireHost 操作者必须是在房间内的房主
func requireHost(r *room.Room, name string) error {
	p, ok := r.Player(name)
	if !ok {
		return apperrors.ErrPlayerNotFound
	}
	if !p.IsHost {
		return apperrors.ErrNotHost
	}
	return nil
}

// normalizeMode 校验并归一化玩法模式。UNO 房间没有模式；谁是卧底
// 缺省为 normal。
func normalizeMode(gt room.GameType, mode string) (room.Mode, error) {
	if gt == room.GameUno {
		if mode != "" {
			return "", fmt.Errorf("game type %q has no mode", gt)
		}
		return "", nil
	}
	switch m := room.Mode(mode); m {
	case "", room.ModeNormal:
		return room.ModeNormal, nil
	case room.ModeDoppelganger, room.ModeSpeedrun:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}
