// Package bloompipe puts a bloom filter in front of a hash pipe so lookups of
// absent keys can skip the traversal.
package bloompipe

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

type BloomPipe struct {
	pipe   *hashpipe.HashPipe
	filter *bloom.BloomFilter
	// rejected counts lookups answered by the filter alone.
	rejected int
}

// New sizes the filter for expected keys at false-positive rate fp.
func New(expected uint, fp float64, opts ...hashpipe.Option) *BloomPipe {
	return &BloomPipe{
		pipe:   hashpipe.New(opts...),
		filter: bloom.NewWithEstimates(max(expected, 1), fp),
	}
}

func (bp *BloomPipe) Put(key skiplist.K, value skiplist.V) {
	bp.filter.AddString(key)
	bp.pipe.Put(key, value)
}

func (bp *BloomPipe) Get(key skiplist.K) (skiplist.V, bool) {
	if !bp.filter.TestString(key) {
		bp.rejected++
		return 0, false
	}
	return bp.pipe.Get(key)
}

func (bp *BloomPipe) Contains(key skiplist.K) bool {
	_, ok := bp.Get(key)
	return ok
}

func (bp *BloomPipe) Size() int {
	return bp.pipe.Size()
}

func (bp *BloomPipe) Control(key skiplist.K, level int) (skiplist.K, bool) {
	if !bp.filter.TestString(key) {
		return "", false
	}
	return bp.pipe.Control(key, level)
}

// Rejected returns how many Get calls the filter answered without a search.
func (bp *BloomPipe) Rejected() int {
	return bp.rejected
}

// Pipe exposes the underlying table for analysis.
func (bp *BloomPipe) Pipe() *hashpipe.HashPipe {
	return bp.pipe
}
