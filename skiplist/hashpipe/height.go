package hashpipe

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode/utf16"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// MaxHeight is the tallest tower a 64-bit hash can produce (an all-zero hash).
const MaxHeight = 65

// Hasher maps a key to the hash whose trailing zero bits decide its tower height.
// Heights are only as well distributed as the hasher's low bits.
type Hasher func(key string) uint64

// Height returns trailing_zero_count(hash) + 1.
func Height(hash uint64) int {
	return bits.TrailingZeros64(hash) + 1
}

// XXHash is the default hasher.
func XXHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// FNV1a hashes with 64-bit FNV-1a.
func FNV1a(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// JavaHash reproduces java.lang.String#hashCode over the key's UTF-16 code units.
// The 32-bit result is widened with bit 32 set so a zero hash gives height 33, not 65.
func JavaHash(key string) uint64 {
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = 31*h + int32(c)
	}
	return uint64(uint32(h)) | 1<<32
}

var hashers = map[string]Hasher{
	"xxhash": XXHash,
	"fnv":    FNV1a,
	"java":   JavaHash,
}

// HasherByName 依名稱取得 hasher（xxhash, fnv, java）
func HasherByName(name string) (Hasher, error) {
	h, ok := hashers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Errorf("unknown hasher: %q", name)
	}
	return h, nil
}

// HasherNames lists the registered hasher names in a fixed order.
func HasherNames() []string {
	return []string{"xxhash", "fnv", "java"}
}
