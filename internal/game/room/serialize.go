package room

import (
	"github.com/squidplay/squidplay/internal/game/card"
	"github.com/squidplay/squidplay/internal/store"
)

// ToRoomData 将 Room 转换为可序列化的 RoomData。
// 只能在房间的执行序列内调用。
func (r *Room) ToRoomData() *store.RoomData {
	data := &store.RoomData{
		Code:        r.Code,
		GameType:    string(r.GameType),
		Status:      r.Status.String(),
		Mode:        string(r.Mode),
		Version:     r.Version,
		Players:     make(map[string]store.PlayerData, len(r.Players)),
		PlayerOrder: append([]string(nil), r.PlayerOrder...),
		CreatedAt:   r.CreatedAt.Unix(),
	}

	for name, p := range r.Players {
		pd := store.PlayerData{
			Name:     p.Name,
			IsHost:   p.IsHost,
			VotedFor: p.VotedFor,
		}
		if r.GameType == GameUno {
			pd.Hand = cardsToData(p.Hand)
		} else {
			pd.Role = p.Role.String()
			pd.Word = p.Word
		}
		data.Players[name] = pd
	}

	if r.Uno != nil {
		data.Uno = &store.UnoData{
			Deck:          cardsToData(r.Uno.Deck),
			Discard:       cardsToData(r.Uno.Discard),
			CurrentPlayer: r.Uno.CurrentPlayer,
			Direction:     r.Uno.Direction,
		}
	}

	if r.Spy != nil {
		sd := &store.SpyData{
			Phase:         r.Spy.Phase.String(),
			PhaseStart:    r.Spy.PhaseStart.UnixMilli(),
			PhaseDuration: r.Spy.PhaseDuration.Milliseconds(),
			Round:         r.Spy.Round,
			Word:          r.Spy.Word,
			VariantWord:   r.Spy.VariantWord,
			Outsider:      r.Spy.Outsider,
			VariantHolder: r.Spy.VariantHolder,
			Votes:         make(map[string]string, len(r.Spy.Votes)),
		}
		for voter, target := range r.Spy.Votes {
			sd.Votes[voter] = target
		}
		if r.Spy.Result != nil {
			sd.Result = &store.SpyResultData{
				Winner:     r.Spy.Result.Winner,
				Eliminated: r.Spy.Result.Eliminated,
				Outsider:   r.Spy.Result.Outsider,
				Counts:     r.Spy.Result.Counts,
			}
		}
		data.Spy = sd
	}

	return data
}

// cardsToData 转换一叠牌
func cardsToData(cards card.Deck) []store.CardData {
	if cards == nil {
		return nil
	}
	result := make([]store.CardData, len(cards))
	for i, c := range cards {
		cd := store.CardData{Kind: c.Kind.String()}
		if !c.Kind.IsWild() {
			cd.Color = c.Color.String()
		}
		if c.Kind == card.Number {
			cd.Value = c.Value
		}
		result[i] = cd
	}
	return result
}
