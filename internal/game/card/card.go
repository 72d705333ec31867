package card

import (
	"math/rand/v2"
)

// Color 定义牌的颜色
type Color int

const (
	ColorNone Color = iota // 万能牌无颜色
	Red
	Yellow
	Green
	Blue
)

// colorNames 颜色字符串映射表
var colorNames = map[Color]string{
	ColorNone: "black",
	Red:       "red",
	Yellow:    "yellow",
	Green:     "green",
	Blue:      "blue",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "unknown"
}

// Colors 四种有效颜色，按固定构造顺序
var Colors = [4]Color{Red, Yellow, Green, Blue}

// Kind 定义牌的种类（标签变体）
type Kind int

const (
	Number Kind = iota // 数字牌，Value 0-9
	Skip               // 禁出
	Reverse            // 反转
	DrawTwo            // 加二
	Wild               // 变色
	WildDrawFour       // 变色加四
)

// kindNames 种类字符串映射表
var kindNames = map[Kind]string{
	Number:       "number",
	Skip:         "skip",
	Reverse:      "reverse",
	DrawTwo:      "draw2",
	Wild:         "wild",
	WildDrawFour: "wild4",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsWild 是否为万能牌
func (k Kind) IsWild() bool {
	return k == Wild || k == WildDrawFour
}

// Card 定义一张牌。Kind 是变体标签：
// Number 携带 Color 和 Value；Skip/Reverse/DrawTwo 携带 Color；
// Wild/WildDrawFour 无颜色（ColorNone）且 Value 恒为 0。
type Card struct {
	Kind  Kind
	Color Color
	Value int
}

// Matches 判断本牌能否出在 top 之上：
// 万能牌总是合法；颜色相同合法；数字牌点数相同合法；特殊牌种类相同合法。
func (c Card) Matches(top Card) bool {
	if c.Kind.IsWild() {
		return true
	}
	if c.Color == top.Color {
		return true
	}
	if c.Kind != top.Kind {
		return false
	}
	if c.Kind == Number {
		return c.Value == top.Value
	}
	return true // 同种特殊牌（如 skip 对 skip）
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 按固定构造顺序生成完整的 108 张牌：
// 每色 1 张 0、每色 1-9 各 2 张、每色 skip/reverse/draw2 各 2 张、
// wild 与 wild4 各 4 张。
func NewDeck() Deck {
	deck := make(Deck, 0, 108)

	for _, color := range Colors {
		deck = append(deck, Card{Kind: Number, Color: color, Value: 0})
		for v := 1; v <= 9; v++ {
			deck = append(deck, Card{Kind: Number, Color: color, Value: v})
			deck = append(deck, Card{Kind: Number, Color: color, Value: v})
		}
	}

	for _, color := range Colors {
		for _, kind := range []Kind{Skip, Reverse, DrawTwo} {
			deck = append(deck, Card{Kind: kind, Color: color})
			deck = append(deck, Card{Kind: kind, Color: color})
		}
	}

	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Kind: Wild, Color: ColorNone})
		deck = append(deck, Card{Kind: WildDrawFour, Color: ColorNone})
	}

	return deck
}

// Shuffle 使用 Fisher–Yates 洗牌：从末位到第 1 位，与 [0, i] 内的
// 均匀随机下标交换。传入固定种子的 rng 可得到确定的排列。
func (d Deck) Shuffle(rng *rand.Rand) {
	for i := len(d) - 1; i >= 1; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// Deal 从牌堆前端按玩家顺序各发 n 张，再翻一张作为弃牌堆首牌，
// 余下为摸牌堆。牌数不足时 ok 为 false。
func Deal(deck Deck, n, playerCount int) (hands []Deck, discard Card, rest Deck, ok bool) {
	need := n*playerCount + 1
	if len(deck) < need {
		return nil, Card{}, nil, false
	}

	hands = make([]Deck, playerCount)
	pos := 0
	for p := 0; p < playerCount; p++ {
		hand := make(Deck, n)
		copy(hand, deck[pos:pos+n])
		hands[p] = hand
		pos += n
	}

	discard = deck[pos]
	pos++

	rest = make(Deck, len(deck)-pos)
	copy(rest, deck[pos:])
	return hands, discard, rest, true
}
