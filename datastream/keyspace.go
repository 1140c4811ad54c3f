package datastream

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

// KeySpace 是 n 個固定的 string key，index 0..n-1
type KeySpace struct {
	keys []skiplist.K
}

func NewKeySpace(n int, prefix string) *KeySpace {
	keys := make([]skiplist.K, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return &KeySpace{keys: keys}
}

// NewKeySpaceFrom wraps an explicit key list.
func NewKeySpaceFrom(keys []skiplist.K) *KeySpace {
	cp := make([]skiplist.K, len(keys))
	copy(cp, keys)
	return &KeySpace{keys: cp}
}

func (ks *KeySpace) Len() int             { return len(ks.keys) }
func (ks *KeySpace) Key(i int) skiplist.K { return ks.keys[i] }
func (ks *KeySpace) Keys() []skiplist.K   { return ks.keys }

// Distribution 將 sampler 的權重對應到 key 上
func (ks *KeySpace) Distribution(s Sampler) map[skiplist.K]float64 {
	w := s.Weights()
	dist := make(map[skiplist.K]float64, len(ks.keys))
	for i, k := range ks.keys {
		if i < len(w) {
			dist[k] = w[i]
		}
	}
	return dist
}

// Sampler 產生 key index（0..n-1）
type Sampler interface {
	Next() int
	Weights() []float64
}

// cdfSampler 以累積分布函數二分搜尋取樣
type cdfSampler struct {
	weights []float64
	cdf     []float64
	rng     *rand.Rand
}

func newCDFSampler(weights []float64, rng *rand.Rand) *cdfSampler {
	cdf := make([]float64, len(weights))
	sum := 0.0
	for i, w := range weights {
		sum += w
		cdf[i] = sum
	}
	return &cdfSampler{weights: weights, cdf: cdf, rng: rng}
}

func (s *cdfSampler) Next() int {
	r := s.rng.Float64() * s.cdf[len(s.cdf)-1]
	lo, hi := 0, len(s.cdf)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if r > s.cdf[mid] {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *cdfSampler) Weights() []float64 {
	out := make([]float64, len(s.weights))
	copy(out, s.weights)
	return out
}

// NewUniformSampler 每個 index 機率相同
func NewUniformSampler(n int, seed uint64) Sampler {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	return newCDFSampler(weights, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// NewZipfSampler 產生 Zipf 分布：第 i 名權重正比於 1/(i+b)^a，名次隨機打散到 index 上
func NewZipfSampler(n int, a, b float64, seed uint64) Sampler {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	weights := make([]float64, n)
	var sum float64
	for i := 1; i <= n; i++ {
		weights[i-1] = 1.0 / math.Pow(float64(i)+b, a)
		sum += weights[i-1]
	}
	// 正規化
	for i := range weights {
		weights[i] /= sum
	}
	rng.Shuffle(len(weights), func(i, j int) {
		weights[i], weights[j] = weights[j], weights[i]
	})
	return newCDFSampler(weights, rng)
}

// Entropy 計算分布的熵（單位：bit），忽略 <= 0 的值
func Entropy(dist map[skiplist.K]float64) float64 {
	h := 0.0
	for _, p := range dist {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
