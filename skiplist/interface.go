package skiplist

type K = string
type V = int

// SymbolTable 是有序的 string -> int 符號表
type SymbolTable interface {
	Put(key K, value V)
	Get(key K) (V, bool)
	Contains(key K) bool
	Size() int
	// Control 回傳 key 在 level 層的後繼 key（診斷用）
	Control(key K, level int) (K, bool)
}

// Analyable 提供分析功能的介面
type Analyable interface {
	SymbolTable
	GetHead() Nodelike
	// GetMaxStats 獲取節點數和最高層級（從 0 起算）
	GetMaxStats() (maxNodes int, maxLevel int)
}

// Nodelike 是一整座塔（或 head）的唯讀視圖
type Nodelike interface {
	GetKey() K
	GetValue() V
	GetLevel() int32
	GetNextAt(level int32) Nodelike
}
