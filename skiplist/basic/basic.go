// Package basic is the coin-flip skip list used as the randomized reference
// for hash pipes. It stays close to the classic algorithm on purpose so the
// comparison measures the height rule, not implementation differences.
package basic

import (
	"math/rand"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

const (
	maxLevel    = 32
	probability = 0.5
)

type basicNode struct {
	key   skiplist.K
	value skiplist.V
	next  []*basicNode
}

// BasicSkipList 是以擲硬幣決定高度的傳統 skip list，作為 hashpipe 的對照組
type BasicSkipList struct {
	head  *basicNode
	level int32 // 目前最高層（從 0 起算）
	rand  *rand.Rand
	size  int
}

func NewBasicSkipList(seed int64) *BasicSkipList {
	return &BasicSkipList{
		head: newNode("", 0, maxLevel),
		rand: rand.New(rand.NewSource(seed)),
	}
}

func newNode(key skiplist.K, value skiplist.V, level int32) *basicNode {
	return &basicNode{
		key:   key,
		value: value,
		next:  make([]*basicNode, level+1),
	}
}

func (sl *BasicSkipList) find(key skiplist.K) *basicNode {
	cur := sl.head
	for h := sl.level; h >= 0; h-- {
		for cur.next[h] != nil && cur.next[h].key < key {
			cur = cur.next[h]
		}
		if cur.next[h] != nil && cur.next[h].key == key {
			return cur.next[h]
		}
	}
	return nil
}

func (sl *BasicSkipList) randomLevel() int32 {
	lvl := 0
	for sl.rand.Float64() < probability && lvl < maxLevel {
		lvl++
	}
	return int32(lvl)
}

func (sl *BasicSkipList) Put(key skiplist.K, value skiplist.V) {
	if cur := sl.find(key); cur != nil {
		cur.value = value
		return
	}
	lvl := sl.randomLevel()
	node := newNode(key, value, lvl)
	sl.level = max(sl.level, lvl)
	curr := sl.head
	for h := sl.level; h >= 0; h-- {
		for curr.next[h] != nil && curr.next[h].key < key {
			curr = curr.next[h]
		}
		if h <= lvl {
			node.next[h] = curr.next[h]
			curr.next[h] = node
		}
	}
	sl.size++
}

func (sl *BasicSkipList) Get(key skiplist.K) (skiplist.V, bool) {
	if cur := sl.find(key); cur != nil {
		return cur.value, true
	}
	return 0, false
}

func (sl *BasicSkipList) Contains(key skiplist.K) bool {
	return sl.find(key) != nil
}

func (sl *BasicSkipList) Size() int {
	return sl.size
}

// Control 回傳 key 在 level 層的下一個 key
func (sl *BasicSkipList) Control(key skiplist.K, level int) (skiplist.K, bool) {
	cur := sl.find(key)
	if cur == nil || level < 0 || level >= len(cur.next) || cur.next[level] == nil {
		return "", false
	}
	return cur.next[level].key, true
}

func (sl *BasicSkipList) GetHead() skiplist.Nodelike {
	return sl.head
}

func (sl *BasicSkipList) GetMaxStats() (int, int) {
	return sl.size, int(sl.level)
}

func (nd *basicNode) GetKey() skiplist.K {
	return nd.key
}

func (nd *basicNode) GetValue() skiplist.V {
	return nd.value
}

func (nd *basicNode) GetLevel() int32 {
	return int32(len(nd.next) - 1)
}

func (nd *basicNode) GetNextAt(level int32) skiplist.Nodelike {
	if level < 0 || level >= int32(len(nd.next)) {
		return nil
	}
	if nd.next[level] == nil {
		return nil
	}
	return nd.next[level]
}
