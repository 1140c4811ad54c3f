// Package hashpipe implements a deterministic skip list ("hash pipe") mapping
// string keys to int values. A key's tower height is the number of trailing
// zero bits of its hash plus one, so a key gets the same height every time it
// is inserted, in any table.
//
// A HashPipe is not safe for concurrent use.
package hashpipe

import (
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

type HashPipe struct {
	spine []sentinel // spine[l] is the entry point of level l; only grows
	size  int
	hash  Hasher
	log   zerolog.Logger
}

type Option func(*HashPipe)

// WithHasher replaces the default XXHash hasher.
func WithHasher(h Hasher) Option {
	return func(hp *HashPipe) {
		if h != nil {
			hp.hash = h
		}
	}
}

// WithLogger logs spine growth at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(hp *HashPipe) {
		hp.log = l
	}
}

func New(opts ...Option) *HashPipe {
	hp := &HashPipe{
		hash: XXHash,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(hp)
	}
	return hp
}

func (hp *HashPipe) heightOf(key string) int {
	h := Height(hp.hash(key))
	if h < 1 || h > MaxHeight {
		panic(errors.Errorf("hashpipe: height function returned %d for key %q", h, key))
	}
	return h
}

// nextAt returns the successor at level of at; a nil at is the spine.
func (hp *HashPipe) nextAt(at *tower, level int) *tower {
	if at == nil {
		return hp.spine[level].next
	}
	return at.rungs[level].next
}

// search descends from the top of the spine toward key. On an exact match it
// stops and returns the matching tower with true. Otherwise it returns the
// level-0 floor (nil when key sorts before every stored key) with false.
// preds[l] receives the floor at level l for every l < len(preds) that the
// walk reached; nil stands for the spine sentinel.
func (hp *HashPipe) search(key string, preds []*tower) (*tower, bool) {
	if len(hp.spine) == 0 {
		if hp.size > 0 {
			panic(errors.Errorf("hashpipe: empty spine with %d stored keys", hp.size))
		}
		return nil, false
	}

	var at *tower
	for level := len(hp.spine) - 1; level >= 0; level-- {
		next := hp.nextAt(at, level)
		for next != nil {
			c := strings.Compare(next.elem.key, key)
			if c == 0 {
				return next, true
			}
			if c > 0 {
				break
			}
			at = next
			if level >= at.height() {
				panic(errors.Errorf("hashpipe: key %q linked at level %d above its height %d",
					at.elem.key, level, at.height()))
			}
			next = at.rungs[level].next
		}
		if level < len(preds) {
			preds[level] = at
		}
	}
	return at, false
}

// Put 插入或更新 key 對應的 value
func (hp *HashPipe) Put(key string, value int) {
	height := hp.heightOf(key)

	var buf [MaxHeight]*tower
	preds := buf[:height]
	if t, found := hp.search(key, preds); found {
		t.elem.value = value
		return
	}

	t := newTower(key, value, height)
	for level := min(height, len(hp.spine)) - 1; level >= 0; level-- {
		if pred := preds[level]; pred == nil {
			t.rungs[level].next = hp.spine[level].next
			hp.spine[level].next = t
		} else {
			t.rungs[level].next = pred.rungs[level].next
			pred.rungs[level].next = t
		}
	}
	hp.size++

	if height > len(hp.spine) {
		hp.grow(t)
	}
}

// grow appends sentinels until the spine is as tall as t, each pointing at t.
func (hp *HashPipe) grow(t *tower) {
	from := len(hp.spine)
	for level := from; level < t.height(); level++ {
		hp.spine = append(hp.spine, sentinel{next: t})
	}
	hp.log.Debug().
		Str("key", t.elem.key).
		Int("from", from).
		Int("to", len(hp.spine)).
		Msg("spine grown")
}

// Get 取得 key 對應的 value；key 不存在時回傳 false
func (hp *HashPipe) Get(key string) (int, bool) {
	t, found := hp.search(key, nil)
	if !found {
		return 0, false
	}
	return t.elem.value, true
}

func (hp *HashPipe) Contains(key string) bool {
	_, found := hp.search(key, nil)
	return found
}

// Size returns the number of distinct keys.
func (hp *HashPipe) Size() int {
	return hp.size
}

// Control returns the key that key's rung at level links to. It reports
// false when key is absent, level is outside the tower, or the rung is the
// last one on its level.
func (hp *HashPipe) Control(key string, level int) (string, bool) {
	if level < 0 {
		return "", false
	}
	t, found := hp.search(key, nil)
	if !found || level >= t.height() {
		return "", false
	}
	next := t.rungs[level].next
	if next == nil {
		return "", false
	}
	return next.elem.key, true
}

// Height returns the tower height of a stored key.
func (hp *HashPipe) Height(key string) (int, bool) {
	t, found := hp.search(key, nil)
	if !found {
		return 0, false
	}
	return t.height(), true
}

// Levels returns the spine length, i.e. the tallest tower inserted so far.
func (hp *HashPipe) Levels() int {
	return len(hp.spine)
}

// All yields every entry in ascending key order.
func (hp *HashPipe) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		if len(hp.spine) == 0 {
			return
		}
		for t := hp.spine[0].next; t != nil; t = t.rungs[0].next {
			if !yield(t.elem.key, t.elem.value) {
				return
			}
		}
	}
}

func (hp *HashPipe) GetHead() skiplist.Nodelike {
	return head{hp: hp}
}

func (hp *HashPipe) GetMaxStats() (int, int) {
	return hp.size, len(hp.spine) - 1
}
