// Package words 持有谁是卧底的题词表。词表在进程启动时从内嵌的
// yaml 加载一次，之后只读。
package words

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

//go:embed words.yaml
var rawWords []byte

// Pair 一组题词：多数玩家的词与替身词
type Pair struct {
	Word    string `yaml:"word"`
	Variant string `yaml:"variant"`
}

// List 不可变词表
type List struct {
	pairs []Pair
}

// Load 解析内嵌词表
func Load() (*List, error) {
	var doc struct {
		Pairs []Pair `yaml:"pairs"`
	}
	if err := yaml.Unmarshal(rawWords, &doc); err != nil {
		return nil, fmt.Errorf("parse words.yaml: %w", err)
	}
	if len(doc.Pairs) == 0 {
		return nil, fmt.Errorf("words.yaml contains no pairs")
	}

	for i, p := range doc.Pairs {
		if p.Word == "" {
			return nil, fmt.Errorf("words.yaml pair %d has empty word", i)
		}
		// 没有配对词时退回同一个词
		if p.Variant == "" {
			doc.Pairs[i].Variant = p.Word
		}
	}

	return &List{pairs: doc.Pairs}, nil
}

// MustLoad 加载词表，失败时 panic
func MustLoad() *List {
	l, err := Load()
	if err != nil {
		panic(err)
	}
	return l
}

// Len 词表长度
func (l *List) Len() int {
	return len(l.pairs)
}

// Pick 均匀随机抽取一组题词
func (l *List) Pick(rng *rand.Rand) Pair {
	return l.pairs[rng.IntN(len(l.pairs))]
}
