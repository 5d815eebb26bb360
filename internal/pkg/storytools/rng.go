package storytools

import (
	"math/rand"
)

// Rand 随机源接口
// 规划器中所有随机选择都通过该接口，便于注入种子化实现做可复现测试
type Rand interface {
	// Next 返回 [0,1) 区间内的下一个随机数
	Next() float64
}

// SimpleHash 对字符串做顺序相关的 32 位哈希，返回非负数
// 用于从场景索引+时间段派生光线种子，以及从剧本内容派生默认规划种子
func SimpleHash(s string) int64 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	// 先拓宽再取负：h 恰为 int32 最小值时 -h 在 32 位内回绕仍是负数
	if h < 0 {
		return -int64(h)
	}
	return int64(h)
}

// SeededRand 种子化伪随机源（mulberry32 变体）
// 相同种子产生完全相同的序列
type SeededRand struct {
	state uint32
}

// NewSeededRand 创建种子化随机源
func NewSeededRand(seed int64) *SeededRand {
	return &SeededRand{state: uint32(seed)}
}

// Next 返回 [0,1) 区间内的下一个随机数
func (r *SeededRand) Next() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return float64(z^(z>>14)) / 4294967296.0
}

// systemRand 非种子化随机源，包装标准库
type systemRand struct {
	r *rand.Rand
}

// NewSystemRand 创建非种子化随机源（生产环境需要每次运行真随机时使用）
func NewSystemRand() Rand {
	return &systemRand{r: rand.New(rand.NewSource(rand.Int63()))}
}

// Next 返回 [0,1) 区间内的下一个随机数
func (s *systemRand) Next() float64 {
	return s.r.Float64()
}
