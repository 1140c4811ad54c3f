package datastream

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hakuto4838/HashPipe.git/skiplist/hashpipe"
)

func TestWriteAndReadOpFile(t *testing.T) {
	ks := NewKeySpace(64, "user:")
	w, err := GenerateWorkload(ks, NewZipfSampler(ks.Len(), 1.2, 0, 42), 2000, 0.8, 0.1, 42)
	require.NoError(t, err)
	require.Len(t, w.Ops, 2000)

	file := filepath.Join(t.TempDir(), "bench.bin")
	require.NoError(t, WriteOpFile(file, w))

	got, err := ReadOpFile(file)
	require.NoError(t, err)
	assert.Equal(t, w.Ops, got.Ops)
	require.Len(t, got.Dist, len(w.Dist))
	for k, p := range w.Dist {
		assert.Equal(t, p, got.Dist[k], "key %s", k)
	}
}

func TestGenerateWorkloadRules(t *testing.T) {
	ks := NewKeySpace(32, "k")
	w, err := GenerateWorkload(ks, NewUniformSampler(ks.Len(), 7), 1000, 0.9, 0.2, 7)
	require.NoError(t, err)

	seen := map[string]bool{}
	misses, hits := 0, 0
	for i, op := range w.Ops {
		if strings.HasPrefix(op.Key, "miss/") {
			require.Equal(t, OpGet, op.Type, "op %d", i)
			_, inDist := w.Dist[op.Key]
			require.False(t, inDist)
			misses++
			continue
		}
		if !seen[op.Key] {
			require.Equal(t, OpPut, op.Type, "op %d: first occurrence of %s must be Put", i, op.Key)
			seen[op.Key] = true
		} else if op.Type == OpGet {
			hits++
		}
	}
	assert.Positive(t, misses)

	// 每個非 miss 的 Get 都在 Put 之後，重播時必定命中
	hp := hashpipe.New()
	assert.Equal(t, hits, w.ToSequenceModel().Replay(hp))
	assert.Equal(t, len(seen), hp.Size())
}

func TestGenerateWorkloadInvalid(t *testing.T) {
	ks := NewKeySpace(4, "k")
	_, err := GenerateWorkload(ks, NewUniformSampler(4, 1), -1, 0.5, 0, 1)
	assert.Error(t, err)
	_, err = GenerateWorkload(ks, NewUniformSampler(4, 1), 10, 1.5, 0, 1)
	assert.Error(t, err)
	_, err = GenerateWorkload(nil, nil, 10, 0.5, 0, 1)
	assert.Error(t, err)
}

func TestReadOpFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadOpFile(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte("SLBENCH1\x01\x00\x00\x00"), 0o644))
	_, err = ReadOpFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic")

	// 標頭宣稱大量 key，但檔案在 key 表前就結束
	huge := filepath.Join(dir, "huge.bin")
	header := []byte("HPBENCH1\x01\x00\x00\x00\xff\xff\xff\x7f")
	require.NoError(t, os.WriteFile(huge, header, 0o644))
	_, err = ReadOpFile(huge)
	assert.Error(t, err)

	// 只寫了一個 key 的截斷檔
	short := filepath.Join(dir, "short.bin")
	oneKey := append(append([]byte{}, header...), 0x01, 0x00, 'a', 0, 0, 0, 0, 0, 0, 0xf0, 0x3f)
	require.NoError(t, os.WriteFile(short, oneKey, 0o644))
	_, err = ReadOpFile(short)
	assert.Error(t, err)
}

func TestSamplers(t *testing.T) {
	z := NewZipfSampler(100, 1.07, 0, 3)
	sum := 0.0
	for _, w := range z.Weights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	for range 1000 {
		i := z.Next()
		require.True(t, i >= 0 && i < 100)
	}

	ks := NewKeySpace(8, "u")
	assert.InDelta(t, 3.0, Entropy(ks.Distribution(NewUniformSampler(8, 1))), 1e-9)
}

func TestSequenceModel(t *testing.T) {
	ops := []Operation{
		{Type: OpPut, Key: "a", Value: 1},
		{Type: OpGet, Key: "a"},
		{Type: OpGet, Key: "b"},
	}
	m := NewSequenceModelFromOps(ops)
	first := m.NextN(2)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[1].Key)
	op, ok := m.Next()
	require.True(t, ok)
	assert.Equal(t, "b", op.Key)
	_, ok = m.Next()
	assert.False(t, ok)
	assert.Nil(t, m.NextN(1))

	m.Reset()
	assert.Equal(t, 1, m.Replay(hashpipe.New()))
	assert.Equal(t, "Put", OpPut.String())
}
