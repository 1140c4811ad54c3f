package hashpipe

import (
	"bytes"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

func TestHashPipeInterface(t *testing.T) {
	var _ skiplist.SymbolTable = (*HashPipe)(nil)
	var _ skiplist.Analyable = (*HashPipe)(nil)
	var _ skiplist.Nodelike = (*tower)(nil)
	var _ skiplist.Nodelike = head{}
}

func allHashers() map[string]Hasher {
	return map[string]Hasher{"xxhash": XXHash, "fnv": FNV1a, "java": JavaHash}
}

func TestScenarioA(t *testing.T) {
	for name, h := range allHashers() {
		t.Run(name, func(t *testing.T) {
			hp := New(WithHasher(h))
			hp.Put("B", 1)
			hp.Put("A", 2)
			hp.Put("C", 3)

			for key, want := range map[string]int{"A": 2, "B": 1, "C": 3} {
				got, ok := hp.Get(key)
				require.True(t, ok, "key %s", key)
				assert.Equal(t, want, got, "key %s", key)
			}
			// D sorts after C: the level-0 floor is C, which must not leak out.
			_, ok := hp.Get("D")
			assert.False(t, ok)
			assert.Equal(t, 3, hp.Size())
		})
	}
}

func TestScenarioB(t *testing.T) {
	hp := New()
	hp.Put("X", 5)
	hp.Put("X", 9)

	v, ok := hp.Get("X")
	require.True(t, ok)
	assert.Equal(t, 9, v)
	assert.Equal(t, 1, hp.Size())
}

func TestEmptyHashPipe(t *testing.T) {
	hp := New()

	_, ok := hp.Get("anything")
	assert.False(t, ok)
	assert.False(t, hp.Contains("anything"))
	assert.Equal(t, 0, hp.Size())
	assert.Equal(t, 0, hp.Levels())

	_, ok = hp.Control("anything", 0)
	assert.False(t, ok)

	n := 0
	for range hp.All() {
		n++
	}
	assert.Zero(t, n)
}

func TestControlOutsideTower(t *testing.T) {
	hp := New()
	keys := []string{"S", "E", "A", "R", "C", "H", "X", "M", "P", "L"}
	for i, k := range keys {
		hp.Put(k, i)
	}
	for _, k := range keys {
		height, ok := hp.Height(k)
		require.True(t, ok)
		assert.Equal(t, Height(XXHash(k)), height)

		for level := height; level < height+3; level++ {
			_, ok := hp.Control(k, level)
			assert.False(t, ok, "key %s level %d", k, level)
		}
		_, ok = hp.Control(k, -1)
		assert.False(t, ok)
	}
	_, ok := hp.Control("Z", 0)
	assert.False(t, ok)
}

func TestControlLinks(t *testing.T) {
	hp := New()
	keys := make([]string, 0, 500)
	for i := range 500 {
		keys = append(keys, fmt.Sprintf("key-%04d", i))
	}
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for i, k := range keys {
		hp.Put(k, i)
	}

	sorted := slices.Clone(keys)
	sort.Strings(sorted)

	// 每一層的後繼必須是下一個高度足夠的 key
	for level := 0; level < hp.Levels(); level++ {
		var onLevel []string
		for _, k := range sorted {
			if Height(XXHash(k)) > level {
				onLevel = append(onLevel, k)
			}
		}
		for i, k := range onLevel {
			next, ok := hp.Control(k, level)
			if i == len(onLevel)-1 {
				assert.False(t, ok, "last key %s at level %d", k, level)
				continue
			}
			require.True(t, ok, "key %s level %d", k, level)
			assert.Equal(t, onLevel[i+1], next, "key %s level %d", k, level)
		}
	}
}

func TestReadAfterWriteAndUpdate(t *testing.T) {
	hp := New()
	const n = 2000
	for i := range n {
		hp.Put(fmt.Sprintf("k%d", i), i)
	}
	require.Equal(t, n, hp.Size())

	for i := range n {
		v, ok := hp.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	for i := 0; i < n; i += 2 {
		hp.Put(fmt.Sprintf("k%d", i), -i)
	}
	assert.Equal(t, n, hp.Size())
	for i := range n {
		want := i
		if i%2 == 0 {
			want = -i
		}
		v, ok := hp.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		require.Equal(t, want, v)
	}

	for i := n; i < n+200; i++ {
		_, ok := hp.Get(fmt.Sprintf("k%d", i))
		require.False(t, ok)
	}
}

func TestNegativeOneIsAValue(t *testing.T) {
	hp := New()
	hp.Put("neg", -1)
	v, ok := hp.Get("neg")
	require.True(t, ok)
	assert.Equal(t, -1, v)
}

func TestOrderIndependence(t *testing.T) {
	pairs := make(map[string]int, 300)
	keys := make([]string, 0, 300)
	for i := range 300 {
		k := fmt.Sprintf("item/%03d", i*7%300)
		pairs[k] = i
		keys = append(keys, k)
	}

	collect := func(hp *HashPipe) [][2]any {
		var out [][2]any
		for k, v := range hp.All() {
			out = append(out, [2]any{k, v})
		}
		return out
	}

	var want [][2]any
	for seed := int64(1); seed <= 5; seed++ {
		perm := slices.Clone(keys)
		rand.New(rand.NewSource(seed)).Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

		hp := New()
		for _, k := range perm {
			hp.Put(k, pairs[k])
		}
		got := collect(hp)
		if want == nil {
			want = got
			require.Len(t, want, len(keys))
			continue
		}
		assert.Equal(t, want, got, "seed %d", seed)
	}

	// All 依字典序輸出
	for i := 1; i < len(want); i++ {
		assert.Less(t, want[i-1][0].(string), want[i][0].(string))
	}
}

func TestHeightDistribution(t *testing.T) {
	const n = 1 << 16
	counts := make([]int, MaxHeight+1)
	for i := range n {
		counts[Height(XXHash(fmt.Sprintf("user:%d", i)))]++
	}
	assert.Zero(t, counts[0])
	for h := 1; h <= 5; h++ {
		got := float64(counts[h]) / n
		want := 1 / float64(uint(1)<<h)
		assert.InDelta(t, want, got, 0.02, "height %d", h)
	}
}

func TestJavaHashHeights(t *testing.T) {
	for key, want := range map[string]int{"A": 1, "B": 2, "D": 3, "H": 4, "P": 5, "@": 7} {
		assert.Equal(t, want, Height(JavaHash(key)), "key %s", key)
	}
	assert.Equal(t, 33, Height(JavaHash("")))
	assert.Equal(t, uint64(1)<<32|2080, JavaHash("AA"))
}

func TestHasherByName(t *testing.T) {
	for _, name := range HasherNames() {
		h, err := HasherByName(name)
		require.NoError(t, err)
		assert.NotNil(t, h)
	}
	_, err := HasherByName(" XXHash ")
	assert.NoError(t, err)
	_, err = HasherByName("md5")
	assert.Error(t, err)
}

func TestDegenerateHashers(t *testing.T) {
	flat := func(string) uint64 { return 1 }
	tall := func(string) uint64 { return 0 }

	for name, h := range map[string]Hasher{"flat": flat, "tall": tall} {
		t.Run(name, func(t *testing.T) {
			hp := New(WithHasher(h))
			const n = 5000
			for i := n - 1; i >= 0; i-- {
				hp.Put(fmt.Sprintf("%05d", i), i)
			}
			assert.Equal(t, n, hp.Size())
			assert.Equal(t, Height(h("")), hp.Levels())
			for i := 0; i < n; i += 97 {
				v, ok := hp.Get(fmt.Sprintf("%05d", i))
				require.True(t, ok)
				require.Equal(t, i, v)
			}
		})
	}
}

func TestSpineGrowth(t *testing.T) {
	heights := map[string]uint64{"a": 1, "b": 1 << 3, "c": 1 << 1, "d": 1 << 6}
	hp := New(WithHasher(func(k string) uint64 { return heights[k] }))

	hp.Put("a", 0)
	assert.Equal(t, 1, hp.Levels())
	hp.Put("b", 0)
	assert.Equal(t, 4, hp.Levels())
	hp.Put("c", 0)
	assert.Equal(t, 4, hp.Levels())
	hp.Put("d", 0)
	assert.Equal(t, 7, hp.Levels())

	next, ok := hp.Control("b", 3)
	require.True(t, ok)
	assert.Equal(t, "d", next)
	next, ok = hp.Control("b", 1)
	require.True(t, ok)
	assert.Equal(t, "c", next)
	next, ok = hp.Control("a", 0)
	require.True(t, ok)
	assert.Equal(t, "b", next)
	_, ok = hp.Control("d", 6)
	assert.False(t, ok)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	hp := New(WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	hp.Put("first", 1)
	assert.Contains(t, buf.String(), "spine grown")
}

func TestCorruptionPanics(t *testing.T) {
	hp := New()
	hp.Put("a", 1)
	hp.spine = nil
	assert.Panics(t, func() { hp.Get("a") })

	assert.Panics(t, func() { newTower("x", 0, 0) })

	hp = New(WithHasher(func(string) uint64 { return 1 << 2 }))
	hp.Put("a", 1)
	hp.Put("b", 2)
	require.Equal(t, 3, hp.Levels())
	// a tower linked on a level above its own height
	short := newTower("aa", 0, 1)
	short.rungs[0].next = hp.spine[0].next
	for level := range hp.spine {
		hp.spine[level].next = short
	}
	assert.Panics(t, func() { hp.Get("b") })
}

func BenchmarkHashPipePut(b *testing.B) {
	keys := make([]string, 1<<14)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hp := New()
		for j, k := range keys {
			hp.Put(k, j)
		}
	}
}

func BenchmarkHashPipeGet(b *testing.B) {
	hp := New()
	keys := make([]string, 1<<14)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		hp.Put(keys[i], i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hp.Get(keys[i&(len(keys)-1)])
	}
}
