package hashpipe

import (
	"github.com/pkg/errors"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

// element holds a key's value. Updates mutate it in place.
type element struct {
	key   string
	value int
}

// rung is one level of a tower. The rung below it is the previous slot of
// the same tower; rung 0 leads to the tower's element.
type rung struct {
	next *tower
}

// sentinel is one slot of the root spine. It has no key.
type sentinel struct {
	next *tower
}

// tower is the vertical stack of rungs for one key, rungs[l] being level l.
type tower struct {
	elem  *element
	rungs []rung
}

func newTower(key string, value int, height int) *tower {
	if height < 1 || height > MaxHeight {
		panic(errors.Errorf("hashpipe: invalid tower height %d for key %q", height, key))
	}
	return &tower{
		elem:  &element{key: key, value: value},
		rungs: make([]rung, height),
	}
}

func (t *tower) height() int {
	return len(t.rungs)
}

// tower 實作 Nodelike 介面

func (t *tower) GetKey() skiplist.K {
	return t.elem.key
}

func (t *tower) GetValue() skiplist.V {
	return t.elem.value
}

func (t *tower) GetLevel() int32 {
	return int32(len(t.rungs) - 1)
}

func (t *tower) GetNextAt(level int32) skiplist.Nodelike {
	if level < 0 || level >= int32(len(t.rungs)) || t.rungs[level].next == nil {
		return nil
	}
	return t.rungs[level].next
}

// head exposes the spine as a keyless Nodelike for analysis tools.
type head struct {
	hp *HashPipe
}

func (h head) GetKey() skiplist.K {
	return ""
}

func (h head) GetValue() skiplist.V {
	return 0
}

func (h head) GetLevel() int32 {
	return int32(len(h.hp.spine) - 1)
}

func (h head) GetNextAt(level int32) skiplist.Nodelike {
	if level < 0 || level >= int32(len(h.hp.spine)) || h.hp.spine[level].next == nil {
		return nil
	}
	return h.hp.spine[level].next
}
