package datastream

import "github.com/Hakuto4838/HashPipe.git/skiplist"

// OperationType 表示操作種類
type OperationType uint8

const (
	OpGet OperationType = iota
	OpPut
)

func (t OperationType) String() string {
	switch t {
	case OpGet:
		return "Get"
	case OpPut:
		return "Put"
	default:
		return "Unknown"
	}
}

// Operation 表示一筆操作；Value 只對 OpPut 有意義
type Operation struct {
	Type  OperationType
	Key   skiplist.K
	Value skiplist.V
}

// Apply 對符號表執行這筆操作，回傳 Get 是否命中
func (op Operation) Apply(st skiplist.SymbolTable) bool {
	switch op.Type {
	case OpPut:
		st.Put(op.Key, op.Value)
		return true
	case OpGet:
		_, ok := st.Get(op.Key)
		return ok
	}
	return false
}

// SequenceModel 以既有的 Operation 序列提供順序重播
type SequenceModel struct {
	ops []Operation
	pos int
}

// NewSequenceModelFromOps 由外部供給的操作序列建立模型
func NewSequenceModelFromOps(ops []Operation) *SequenceModel {
	cp := make([]Operation, len(ops))
	copy(cp, ops)
	return &SequenceModel{ops: cp}
}

// Next 回傳下一筆操作，若結束則回傳零值與 false
func (m *SequenceModel) Next() (Operation, bool) {
	if m.pos >= len(m.ops) {
		return Operation{}, false
	}
	op := m.ops[m.pos]
	m.pos++
	return op, true
}

// NextN 回傳接下來 n 筆（或直到結束）的操作
func (m *SequenceModel) NextN(n int) []Operation {
	if n <= 0 || m.pos >= len(m.ops) {
		return nil
	}
	end := min(m.pos+n, len(m.ops))
	out := make([]Operation, end-m.pos)
	copy(out, m.ops[m.pos:end])
	m.pos = end
	return out
}

// Reset 游標重置到起點
func (m *SequenceModel) Reset() { m.pos = 0 }

// Replay 把剩下的操作全部套用到 st，回傳 Get 命中數
func (m *SequenceModel) Replay(st skiplist.SymbolTable) (hits int) {
	for {
		op, ok := m.Next()
		if !ok {
			return hits
		}
		if op.Apply(st) && op.Type == OpGet {
			hits++
		}
	}
}
