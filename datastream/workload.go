package datastream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/Hakuto4838/HashPipe.git/skiplist"
)

// 檔案格式（LittleEndian）：
// [8]byte  Magic: "HPBENCH1"
// uint16   Version: 1
// uint16   Reserved: 0
// uint32   KeyCount
// 重複 KeyCount 次：
//   uint16  KeyLen
//   [KeyLen]byte Key
//   float64 Weight
// uint64   OpCount
// 重複 OpCount 次：
//   uint8   OperationType (0=Get,1=Put)
//   uint32  Key index
//   int64   Value

var (
	benchMagic   = [8]byte{'H', 'P', 'B', 'E', 'N', 'C', 'H', '1'}
	benchVersion = uint16(1)
)

// Workload 是一組可重播的操作與其 key 分布
type Workload struct {
	Dist map[skiplist.K]float64
	Ops  []Operation
}

// GenerateWorkload 以 sampler 產生 k 筆操作。
// 規則：
//   - key 第一次出現時輸出 Put
//   - 之後以 getRatio 的機率輸出 Get，其餘為更新的 Put
//   - 另外以 missRatio 的機率對不存在的 key 輸出 Get
func GenerateWorkload(ks *KeySpace, s Sampler, k int, getRatio, missRatio float64, seed uint64) (*Workload, error) {
	if ks == nil || s == nil {
		return nil, errors.New("nil key space or sampler")
	}
	if k < 0 {
		return nil, errors.Errorf("invalid op count: %d", k)
	}
	if getRatio < 0 || getRatio > 1 || missRatio < 0 || missRatio > 1 {
		return nil, errors.Errorf("ratios must be in [0,1]: get=%v miss=%v", getRatio, missRatio)
	}

	rng := rand.New(rand.NewPCG(seed, ^seed))
	w := &Workload{
		Dist: ks.Distribution(s),
		Ops:  make([]Operation, 0, k),
	}
	seen := make([]bool, ks.Len())
	for i := 0; i < k; i++ {
		if rng.Float64() < missRatio {
			w.Ops = append(w.Ops, Operation{Type: OpGet, Key: fmt.Sprintf("miss/%d", rng.IntN(ks.Len()+1))})
			continue
		}
		idx := s.Next()
		op := Operation{Type: OpPut, Key: ks.Key(idx), Value: i}
		if seen[idx] && rng.Float64() < getRatio {
			op = Operation{Type: OpGet, Key: ks.Key(idx)}
		}
		seen[idx] = true
		w.Ops = append(w.Ops, op)
	}
	return w, nil
}

// ToSequenceModel 將 Workload 轉為可重播的 SequenceModel
func (w *Workload) ToSequenceModel() *SequenceModel {
	if w == nil {
		return NewSequenceModelFromOps(nil)
	}
	return NewSequenceModelFromOps(w.Ops)
}

// WriteOpFile 將 workload 寫成 HPBENCH1 檔
func WriteOpFile(filename string, w *Workload) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "error while creating op file: %s", filename)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := encodeWorkload(bw, w); err != nil {
		return errors.Wrapf(err, "error while writing op file: %s", filename)
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "error while flushing op file: %s", filename)
	}
	return file.Close()
}

func encodeWorkload(out io.Writer, w *Workload) error {
	le := binary.LittleEndian
	if _, err := out.Write(benchMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(out, le, benchVersion); err != nil {
		return err
	}
	if err := binary.Write(out, le, uint16(0)); err != nil { // reserved
		return err
	}

	// key 表：分布中的 key 在前，其餘只出現在操作中的 key（例如 miss）接在後面
	index := make(map[skiplist.K]uint32)
	var keys []skiplist.K
	addKey := func(k skiplist.K) {
		if _, ok := index[k]; !ok {
			index[k] = uint32(len(keys))
			keys = append(keys, k)
		}
	}
	for _, k := range sortedKeys(w.Dist) {
		addKey(k)
	}
	for _, op := range w.Ops {
		addKey(op.Key)
	}

	if err := binary.Write(out, le, uint32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if len(k) > 0xFFFF {
			return errors.Errorf("key too long: %d bytes", len(k))
		}
		if err := binary.Write(out, le, uint16(len(k))); err != nil {
			return err
		}
		if _, err := io.WriteString(out, k); err != nil {
			return err
		}
		if err := binary.Write(out, le, w.Dist[k]); err != nil {
			return err
		}
	}

	if err := binary.Write(out, le, uint64(len(w.Ops))); err != nil {
		return err
	}
	for _, op := range w.Ops {
		rec := struct {
			Type  uint8
			Key   uint32
			Value int64
		}{uint8(op.Type), index[op.Key], int64(op.Value)}
		if err := binary.Write(out, le, rec); err != nil {
			return err
		}
	}
	return nil
}

// ReadOpFile 讀取 HPBENCH1 檔
func ReadOpFile(filename string) (*Workload, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "error while opening op file: %s", filename)
	}
	defer fd.Close()

	w, err := decodeWorkload(bufio.NewReader(fd))
	if err != nil {
		return nil, errors.Wrapf(err, "error while reading op file: %s", filename)
	}
	return w, nil
}

func decodeWorkload(in io.Reader) (*Workload, error) {
	le := binary.LittleEndian
	var magic [8]byte
	if _, err := io.ReadFull(in, magic[:]); err != nil {
		return nil, err
	}
	if magic != benchMagic {
		return nil, errors.Errorf("invalid magic: %q", magic)
	}
	var ver, reserved uint16
	if err := binary.Read(in, le, &ver); err != nil {
		return nil, err
	}
	if ver != benchVersion {
		return nil, errors.Errorf("unsupported version: %d", ver)
	}
	if err := binary.Read(in, le, &reserved); err != nil {
		return nil, err
	}

	var keyCount uint32
	if err := binary.Read(in, le, &keyCount); err != nil {
		return nil, err
	}
	// keyCount 來自檔案，不可信；容量設上限，逐筆 append
	keys := make([]skiplist.K, 0, min(keyCount, 1<<16))
	dist := make(map[skiplist.K]float64)
	for i := uint32(0); i < keyCount; i++ {
		var n uint16
		if err := binary.Read(in, le, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, err
		}
		var weight float64
		if err := binary.Read(in, le, &weight); err != nil {
			return nil, err
		}
		key := string(buf)
		keys = append(keys, key)
		if weight > 0 {
			dist[key] = weight
		}
	}

	var opCount uint64
	if err := binary.Read(in, le, &opCount); err != nil {
		return nil, err
	}
	ops := make([]Operation, 0, min(opCount, 1<<20))
	for i := uint64(0); i < opCount; i++ {
		var rec struct {
			Type  uint8
			Key   uint32
			Value int64
		}
		if err := binary.Read(in, le, &rec); err != nil {
			return nil, err
		}
		if rec.Key >= keyCount {
			return nil, errors.Errorf("op %d: key index %d out of range", i, rec.Key)
		}
		if t := OperationType(rec.Type); t != OpGet && t != OpPut {
			return nil, errors.Errorf("op %d: unknown operation type %d", i, rec.Type)
		}
		ops = append(ops, Operation{Type: OperationType(rec.Type), Key: keys[rec.Key], Value: skiplist.V(rec.Value)})
	}
	return &Workload{Dist: dist, Ops: ops}, nil
}

// sortedKeys 以升冪輸出 map 的 key，確保檔案可重現
func sortedKeys(m map[skiplist.K]float64) []skiplist.K {
	keys := make([]skiplist.K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
