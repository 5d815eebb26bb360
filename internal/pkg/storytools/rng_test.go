package storytools

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSimpleHash(t *testing.T) {
	Convey("SimpleHash 的哈希性质", t, func() {
		Convey("同一输入永远得到同一哈希", func() {
			So(SimpleHash("scene-0-night"), ShouldEqual, SimpleHash("scene-0-night"))
		})

		Convey("结果永远非负", func() {
			inputs := []string{"", "a", "scene-3-dusk", "一段很长很长很长的中文输入用来触发溢出回绕"}
			for _, input := range inputs {
				So(SimpleHash(input), ShouldBeGreaterThanOrEqualTo, 0)
			}
		})

		Convey("32 位哈希恰好落在最小负数的输入也非负", func() {
			// 该字符串的累积哈希正好是 int32 最小值
			So(SimpleHash("twpngdnqml"), ShouldEqual, int64(2147483648))
		})

		Convey("顺序相关：字符交换后哈希不同", func() {
			So(SimpleHash("ab"), ShouldNotEqual, SimpleHash("ba"))
		})
	})
}

func TestSeededRand(t *testing.T) {
	Convey("SeededRand 的序列性质", t, func() {
		Convey("相同种子产生完全相同的序列", func() {
			a := NewSeededRand(42)
			b := NewSeededRand(42)
			for i := 0; i < 100; i++ {
				So(a.Next(), ShouldEqual, b.Next())
			}
		})

		Convey("不同种子产生不同序列", func() {
			a := NewSeededRand(1)
			b := NewSeededRand(2)
			diverged := false
			for i := 0; i < 10; i++ {
				if a.Next() != b.Next() {
					diverged = true
				}
			}
			So(diverged, ShouldBeTrue)
		})

		Convey("取值落在 [0,1) 区间", func() {
			r := NewSeededRand(SimpleHash("range-check"))
			for i := 0; i < 1000; i++ {
				v := r.Next()
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				So(v, ShouldBeLessThan, 1)
			}
		})
	})
}
